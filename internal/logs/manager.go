// Package logs writes the service's structured log to one file per UTC
// calendar day, gzips finished days in the background and expires old files.
//
// Destinations are named app-YYYY-MM-DD.log while active and
// app-YYYY-MM-DD.log.gz once compressed. Each line is one JSON object with
// timestamp, level and message plus any metadata fields.
package logs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	filePrefix = "app-"
	fileSuffix = ".log"
	gzSuffix   = ".log.gz"
	dateLayout = "2006-01-02"

	timestampField = "timestamp"
)

var ErrClosed = errors.New("logs: manager closed")

type Options struct {
	Dir        string
	Level      string
	Console    io.Writer
	ErrConsole io.Writer
	Now        func() time.Time
}

// Manager owns the active destination. It is an io.Writer: every write first
// checks whether the calendar day changed and, if so, switches to the new
// day's file and hands the previous one to the compressor.
type Manager struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	date   string
	file   *os.File
	closed bool

	compressor *compressor
	logger     zerolog.Logger
}

func New(opts Options) (*Manager, error) {
	if opts.Dir == "" {
		return nil, errors.New("logs: empty directory")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log dir: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	if opts.ErrConsole == nil {
		opts.ErrConsole = os.Stderr
	}
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = l
	}

	m := &Manager{dir: opts.Dir, now: opts.Now}
	m.date = m.today()
	m.compressor = newCompressor(m.reportCompression)

	console := newConsole(opts.Console, opts.ErrConsole)
	m.logger = zerolog.New(zerolog.MultiLevelWriter(m, console)).
		Level(level).
		Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
			e.Str(timestampField, m.now().UTC().Format(time.RFC3339Nano))
		}))

	if err := m.compressStale(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to scan for stale log files")
	}
	return m, nil
}

// Logger returns the structured logger writing through this manager.
func (m *Manager) Logger() *zerolog.Logger {
	return &m.logger
}

// Append writes one record. Metadata keys are merged at the top level;
// timestamp, level and message are reserved and dropped from meta.
func (m *Manager) Append(level zerolog.Level, message string, meta map[string]any) {
	e := m.logger.WithLevel(level)
	if fields := withoutReserved(meta); len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(message)
}

func (m *Manager) Info(message string, meta map[string]any) {
	m.Append(zerolog.InfoLevel, message, meta)
}

func (m *Manager) Warn(message string, meta map[string]any) {
	m.Append(zerolog.WarnLevel, message, meta)
}

func (m *Manager) Error(message string, meta map[string]any) {
	m.Append(zerolog.ErrorLevel, message, meta)
}

func (m *Manager) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	m.rotateLocked()
	if m.file == nil {
		f, err := os.OpenFile(m.pathFor(m.date), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, fmt.Errorf("open log destination: %w", err)
		}
		m.file = f
	}
	return m.file.Write(p)
}

// Close drains pending compressions and closes the active destination.
// Writes after Close fail with ErrClosed.
func (m *Manager) Close() error {
	m.compressor.close()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// ActiveDestination returns the file name currently written to.
func (m *Manager) ActiveDestination() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return destinationName(m.date)
}

func (m *Manager) rotateLocked() {
	today := m.today()
	if today == m.date {
		return
	}
	prev := m.pathFor(m.date)
	if m.file != nil {
		_ = m.file.Close()
		m.file = nil
	}
	m.date = today
	m.compressor.enqueue(prev)
}

// compressStale queues uncompressed destinations of earlier days, left over
// by a previous process that stopped before its rollover.
func (m *Manager) compressStale() error {
	names, err := m.ListDestinations()
	if err != nil {
		return err
	}
	for _, name := range names {
		date, ok := destinationDate(name)
		if !ok || !strings.HasSuffix(name, fileSuffix) || date >= m.date {
			continue
		}
		m.compressor.enqueue(filepath.Join(m.dir, name))
	}
	return nil
}

func (m *Manager) reportCompression(path string, err error) {
	m.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("Log compression failed")
}

func (m *Manager) today() string {
	return m.now().UTC().Format(dateLayout)
}

func (m *Manager) pathFor(date string) string {
	return filepath.Join(m.dir, destinationName(date))
}

func destinationName(date string) string {
	return filePrefix + date + fileSuffix
}

func isDestination(name string) bool {
	return strings.HasPrefix(name, filePrefix) &&
		(strings.HasSuffix(name, fileSuffix) || strings.HasSuffix(name, gzSuffix))
}

// destinationDate extracts the YYYY-MM-DD part of a destination name.
func destinationDate(name string) (string, bool) {
	if !isDestination(name) {
		return "", false
	}
	date := strings.TrimPrefix(name, filePrefix)
	date = strings.TrimSuffix(strings.TrimSuffix(date, ".gz"), fileSuffix)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", false
	}
	return date, true
}

func withoutReserved(meta map[string]any) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		switch k {
		case timestampField, zerolog.LevelFieldName, zerolog.MessageFieldName:
			continue
		}
		out[k] = v
	}
	return out
}
