package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Outcome is what a Save call did.
type Outcome int

const (
	// Throttled means the save window had not elapsed; nothing happened.
	Throttled Outcome = iota
	// Written means the file was replaced with the current state.
	Written
	// SkippedReadOnly means the save was due but writing is disabled.
	SkippedReadOnly
	// Failed means the write was attempted and failed. Err says why.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Throttled:
		return "throttled"
	case Written:
		return "written"
	case SkippedReadOnly:
		return "skipped-read-only"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// SaveResult reports a Save call.
type SaveResult struct {
	Outcome Outcome
	Path    string
	Err     error
}

// Save writes the database when more than savefreq whole minutes have passed
// since the last attempt, or when force is set. Due saves advance the
// throttle window whether or not anything is written. Save never changes the
// recorded entries or descriptions.
func (db *TaskDB) Save(force bool) SaveResult {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.clock.Now()
	if !force && !db.due(now) {
		return SaveResult{Outcome: Throttled, Path: db.path}
	}
	db.lastSave = now

	if !db.writable() {
		db.logger.Debug("database not written: writing disabled",
			"project", db.project,
			"task", db.task,
		)
		return SaveResult{Outcome: SkippedReadOnly, Path: db.path}
	}

	if err := db.write(); err != nil {
		db.logger.Error("database save failed",
			"project", db.project,
			"task", db.task,
			"path", db.path,
			"error", err,
		)
		return SaveResult{Outcome: Failed, Path: db.path, Err: err}
	}

	db.logger.Info("database saved",
		"project", db.project,
		"task", db.task,
		"path", db.path,
	)
	return SaveResult{Outcome: Written, Path: db.path}
}

// due must be called with db.mu held.
func (db *TaskDB) due(now time.Time) bool {
	if db.lastSave.IsZero() {
		return true
	}
	elapsed := int64(now.Sub(db.lastSave) / time.Minute)
	return elapsed > int64(db.saveFreq/time.Minute)
}

// write must be called with db.mu held. The file is replaced atomically, so
// readers see either the previous or the new state.
func (db *TaskDB) write() error {
	data, err := db.state.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	dir := filepath.Dir(db.path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := os.Rename(tmpName, db.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}
