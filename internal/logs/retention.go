package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SweepRetention deletes destinations last modified more than daysToKeep days
// ago and returns their names. The active destination is never removed.
// Each deletion is logged.
func (m *Manager) SweepRetention(daysToKeep int) ([]string, error) {
	if daysToKeep < 0 {
		return nil, fmt.Errorf("logs: negative retention %d", daysToKeep)
	}
	cutoff := m.now().AddDate(0, 0, -daysToKeep)
	names, err := m.ListDestinations()
	if err != nil {
		return nil, err
	}
	active := m.ActiveDestination()

	var removed []string
	var errs []error
	for _, name := range names {
		if name == active {
			continue
		}
		path := filepath.Join(m.dir, name)
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("stat %s: %w", name, err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
			continue
		}
		removed = append(removed, name)
		m.Info("Deleted old log file", map[string]any{"file": name})
	}
	return removed, errors.Join(errs...)
}
