package session

import (
	"errors"
	"fmt"

	"github.com/roach88/acorn/internal/store"
)

// CleanupReport lists the outcome of force-saving each open database.
type CleanupReport struct {
	// Saved databases were written to disk.
	Saved []Key
	// Skipped databases were not written because writing is disabled.
	Skipped []Key
	// Failed maps each database whose write failed to the reason.
	Failed map[Key]error
}

// OK reports whether no save failed.
func (r CleanupReport) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the failures, nil when there are none.
func (r CleanupReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	keys := make([]Key, 0, len(r.Failed))
	for k := range r.Failed {
		keys = append(keys, k)
	}
	sortKeys(keys)

	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, fmt.Errorf("%s: %w", k, r.Failed[k]))
	}
	return errors.Join(errs...)
}

// Cleanup force-saves every open database. Each database is saved even when
// another fails. Calling it again saves the current state again.
func (s *Session) Cleanup() CleanupReport {
	s.mu.Lock()
	keys := s.sortedKeys()
	dbs := make([]*store.TaskDB, len(keys))
	for i, k := range keys {
		dbs[i] = s.dbs[k]
	}
	s.mu.Unlock()

	report := CleanupReport{Failed: make(map[Key]error)}
	for i, db := range dbs {
		res := db.Save(true)
		switch res.Outcome {
		case store.Written:
			report.Saved = append(report.Saved, keys[i])
		case store.SkippedReadOnly:
			report.Skipped = append(report.Skipped, keys[i])
		case store.Failed:
			report.Failed[keys[i]] = res.Err
		}
	}

	s.logger.Info("session cleanup finished",
		"saved", len(report.Saved),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report
}
