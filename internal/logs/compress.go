package logs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// compressor gzips finished destinations on a single background goroutine.
// Jobs never block the writer that queued them and failures are only reported.
type compressor struct {
	mu      sync.Mutex
	pending []string

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	report func(path string, err error)
}

func newCompressor(report func(path string, err error)) *compressor {
	c := &compressor{
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		report: report,
	}
	go c.run()
	return c
}

func (c *compressor) enqueue(path string) {
	c.mu.Lock()
	c.pending = append(c.pending, path)
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// close processes whatever is still queued and stops the worker.
func (c *compressor) close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *compressor) run() {
	defer close(c.done)
	for {
		select {
		case <-c.wake:
			c.drain()
		case <-c.stop:
			c.drain()
			return
		}
	}
}

func (c *compressor) drain() {
	for {
		path, ok := c.next()
		if !ok {
			return
		}
		if err := compressFile(path); err != nil && c.report != nil {
			c.report(path, err)
		}
	}
}

func (c *compressor) next() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return "", false
	}
	path := c.pending[0]
	c.pending = c.pending[1:]
	return path, true
}

// compressFile writes src.gz next to src and removes src once the archive is
// complete. A missing src is not an error. On failure src is left in place.
// The archive keeps src's modification time so retention treats both alike.
func compressFile(src string) error {
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(in)
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dst := src + ".gz"
	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(src)
	zw.ModTime = info.ModTime()
	if _, err := io.Copy(zw, in); err != nil {
		_ = zw.Close()
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish archive: %w", err)
	}
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}
