package logs

import (
	"io"

	"github.com/rs/zerolog"
)

// console renders records for humans; error and worse go to the error stream.
// The timestamp part is printed as stored in the record.
type console struct {
	out zerolog.ConsoleWriter
	err zerolog.ConsoleWriter
}

func newConsole(out, errOut io.Writer) console {
	return console{out: consoleWriter(out), err: consoleWriter(errOut)}
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       true,
		PartsOrder:    []string{timestampField, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FieldsExclude: []string{timestampField},
	}
}

func (c console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

func (c console) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level <= zerolog.PanicLevel {
		return c.err.Write(p)
	}
	return c.out.Write(p)
}
