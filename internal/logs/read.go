package logs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

const DefaultTailLimit = 100

// Record is one decoded log line. Lines that are not JSON objects are kept
// as {"raw": line}.
type Record map[string]any

func (r Record) Level() string   { return r.str("level") }
func (r Record) Message() string { return r.str("message") }

func (r Record) Raw() (string, bool) {
	s, ok := r["raw"].(string)
	return s, ok && len(r) == 1
}

func (r Record) str(key string) string {
	s, _ := r[key].(string)
	return s
}

// Tail returns up to limit of the newest records of the active destination,
// newest first. Earlier days, compressed or not, are never read.
func (m *Manager) Tail(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultTailLimit
	}
	m.mu.Lock()
	path := m.pathFor(m.date)
	m.mu.Unlock()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log destination: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	lines := make([]string, 0, limit)
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 10*1024*1024)
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}
		if len(lines) == limit {
			lines = lines[1:]
		}
		lines = append(lines, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan log destination: %w", err)
	}

	out := make([]Record, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		out = append(out, parseRecord(lines[i]))
	}
	return out, nil
}

func parseRecord(line string) Record {
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil || rec == nil {
		return Record{"raw": line}
	}
	return rec
}

// ListDestinations returns every active and compressed destination in the
// log directory, newest date first.
func (m *Manager) ListDestinations() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read log dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && isDestination(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
