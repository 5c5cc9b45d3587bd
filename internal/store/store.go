package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roach88/acorn/internal/ir"
)

// DefaultProject and DefaultTask are used when no task was selected.
const (
	DefaultProject = "default"
	DefaultTask    = "default"
)

// DefaultSaveFreq is the minimum interval between non-forced writes.
const DefaultSaveFreq = 2 * time.Minute

// Clock provides wall time for the save throttle.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Resolver describes live tracked objects by durable identity.
// *tracker.Tracker implements it.
type Resolver interface {
	DescribeIdentity(id string) (ir.Value, bool)
}

// TaskDB is the call log for one (project, task) pair.
type TaskDB struct {
	mu sync.Mutex

	project string
	task    string
	path    string

	saveFreq time.Duration
	clock    Clock
	writable func() bool
	resolver Resolver
	logger   *slog.Logger

	state    *Snapshot
	lastSave time.Time
}

// Option configures a TaskDB.
type Option func(*TaskDB)

// WithSaveFreq sets the save throttle window. Only whole minutes count.
func WithSaveFreq(d time.Duration) Option {
	return func(db *TaskDB) {
		db.saveFreq = d
	}
}

// WithClock sets the time source for the save throttle.
func WithClock(c Clock) Option {
	return func(db *TaskDB) {
		db.clock = c
	}
}

// WithWritable sets the function consulted on every save attempt. When it
// returns false nothing is written.
func WithWritable(fn func() bool) Option {
	return func(db *TaskDB) {
		db.writable = fn
	}
}

// WithResolver sets how newly referenced identities are described. Without
// a resolver identities are never described.
func WithResolver(r Resolver) Option {
	return func(db *TaskDB) {
		db.resolver = r
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(db *TaskDB) {
		db.logger = l
	}
}

// ErrInvalidName is returned for project and task names that cannot form a
// file name inside the storage directory.
var ErrInvalidName = errors.New("invalid project or task name")

// ValidateName checks a project or task name. Names must be non-empty and
// may not contain path separators or be a relative path element.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`+string(filepath.Separator)):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

// PathFor returns the database file path for a project and task. Callers
// validate the names first.
func PathFor(dir, project, task string) string {
	return filepath.Join(dir, project+"."+task+".json")
}

// Open creates the database for project and task in dir and loads the
// existing file, if any.
func Open(project, task, dir string, opts ...Option) (*TaskDB, error) {
	for _, name := range []string{project, task} {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
	}

	db := &TaskDB{
		project:  project,
		task:     task,
		path:     PathFor(dir, project, task),
		saveFreq: DefaultSaveFreq,
		clock:    systemClock{},
		writable: func() bool { return true },
		state:    newSnapshot(),
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = slog.Default()
	}

	if project == DefaultProject && task == DefaultTask {
		db.logger.Warn("recording to the default project and task; select a task to keep call logs apart",
			"path", db.path)
	}

	if err := db.Load(); err != nil {
		return nil, err
	}
	return db, nil
}

// Load replaces the in-memory state with the file contents. A missing file
// leaves the state unchanged.
func (db *TaskDB) Load() error {
	data, err := os.ReadFile(db.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", db.path, err)
	}

	snap, err := Decode(db.path, data)
	if err != nil {
		return fmt.Errorf("load %s: %w", db.path, err)
	}

	db.mu.Lock()
	db.state = snap
	db.mu.Unlock()

	db.logger.Info("database loaded",
		"project", db.project,
		"task", db.task,
		"entities", len(snap.Entities),
		"uuids", len(snap.UUIDs),
	)
	return nil
}

// Record appends e under key and describes every durable identity that e
// references and this database has not described yet.
//
// The key and every string in e are stored in NFC form, and non-finite
// floats as strings, so the database always stays writable.
func (db *TaskDB) Record(key string, e ir.Entry) {
	key = ir.NormalizeKey(key)
	e = e.Normalize()

	db.mu.Lock()
	db.state.Entities[key] = append(db.state.Entities[key], e)
	pending := db.undescribed(e)
	db.mu.Unlock()

	// Describers run user code that may record again.
	for _, id := range pending {
		desc, ok := db.resolver.DescribeIdentity(id)
		if !ok {
			continue
		}
		db.mu.Lock()
		if _, done := db.state.UUIDs[id]; !done {
			db.state.UUIDs[id] = ir.Normalize(desc)
		}
		db.mu.Unlock()
	}
}

// undescribed returns the identities referenced by e that have no
// description yet. It must be called with db.mu held.
func (db *TaskDB) undescribed(e ir.Entry) []string {
	if db.resolver == nil {
		return nil
	}
	var ids []string
	add := func(v ir.Value) {
		id, ok := ir.IdentityOf(v)
		if !ok {
			return
		}
		if _, done := db.state.UUIDs[id]; done {
			return
		}
		if slices.Contains(ids, id) {
			return
		}
		ids = append(ids, id)
	}

	add(e.Returns)
	for _, arg := range e.Args.Positional {
		add(arg)
	}
	for _, name := range e.Args.Named.SortedKeys() {
		if name != ir.PositionalKey {
			add(e.Args.Named[name])
		}
	}
	return ids
}

// Path returns the database file path.
func (db *TaskDB) Path() string { return db.path }

// Project returns the project name.
func (db *TaskDB) Project() string { return db.project }

// Task returns the task name.
func (db *TaskDB) Task() string { return db.task }

// Entries returns a copy of the entries recorded under key.
func (db *TaskDB) Entries(key string) []ir.Entry {
	key = ir.NormalizeKey(key)
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]ir.Entry(nil), db.state.Entities[key]...)
}

// Keys returns the entity keys in sorted order.
func (db *TaskDB) Keys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.Keys()
}

// Description returns the stored description of an identity.
func (db *TaskDB) Description(id string) (ir.Value, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	desc, ok := db.state.UUIDs[id]
	return desc, ok
}

// DescriptionCount returns the number of described identities.
func (db *TaskDB) DescriptionCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.state.UUIDs)
}

// LastSave returns the time of the last save attempt, zero if none.
func (db *TaskDB) LastSave() time.Time {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.lastSave
}

// Snapshot returns a copy of the current state.
func (db *TaskDB) Snapshot() *Snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

// Identities returns the described identities in sorted order.
func (db *TaskDB) Identities() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.Identities()
}
