package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/djherbis/times"
)

// Prune deletes export files written more than maxAge ago and returns the
// names it removed. Subdirectories are left alone.
func (e *Exporter) Prune(maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(e.cfg.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read export dir: %w", err)
	}

	cutoff := e.now().Add(-maxAge)
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(e.cfg.Dir, entry.Name())
		ts, err := e.stat(path)
		if err != nil {
			return removed, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if !writtenAt(ts).Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed = append(removed, entry.Name())
	}
	if len(removed) > 0 {
		e.logger.WithPayload(map[string]interface{}{"removed": len(removed)}).Info("old exports pruned")
	}
	return removed, nil
}

// writtenAt prefers the birth time, which a later touch of the file does not
// move. Filesystems without one fall back to the modification time.
func writtenAt(ts times.Timespec) time.Time {
	if ts.HasBirthTime() {
		return ts.BirthTime()
	}
	return ts.ModTime()
}

// PruneExpired applies the configured retention. Zero retention keeps everything.
func (e *Exporter) PruneExpired() ([]string, error) {
	if e.cfg.RetentionDays <= 0 {
		return nil, nil
	}
	return e.Prune(time.Duration(e.cfg.RetentionDays) * 24 * time.Hour)
}
