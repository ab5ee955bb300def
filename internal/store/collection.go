package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// collection is one JSON array file. It has no locking of its own: the Store
// serializes every load/save pair.
type collection[T any] struct {
	path string
}

func newCollection[T any](dir, name string) (*collection[T], error) {
	c := &collection[T]{path: filepath.Join(dir, name)}
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		if err := c.save([]T{}); err != nil {
			return nil, fmt.Errorf("bootstrap %s: %w", name, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return c, nil
}

func (c *collection[T]) name() string { return filepath.Base(c.path) }

func (c *collection[T]) load() ([]T, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.name(), err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	var items []T
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name(), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// save replaces the file contents through a temporary sibling so a crash
// never leaves a half-written array behind.
func (c *collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), c.name()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", c.name(), err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp for %s: %w", c.name(), err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode %s: %w", c.name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", c.name(), err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace %s: %w", c.name(), err)
	}
	return nil
}

// update loads the collection, applies fn and writes the result back only
// when fn reports a change.
func (c *collection[T]) update(fn func([]T) ([]T, bool)) error {
	items, err := c.load()
	if err != nil {
		return err
	}
	out, changed := fn(items)
	if !changed {
		return nil
	}
	return c.save(out)
}
