package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/acorn/internal/config"
	"github.com/roach88/acorn/internal/ir"
	"github.com/roach88/acorn/internal/store"
	"github.com/roach88/acorn/internal/tracker"
)

// ErrStorageDirUnset is returned when no storage directory was set and the
// settings do not configure database.folder.
var ErrStorageDirUnset = errors.New("storage directory is not set and database.folder is not configured")

// Settings keys read by the session.
const (
	settingsSection = "database"
	optionFolder    = "folder"
	optionSaveFreq  = "savefreq"

	defaultSaveFreqMinutes = 2
)

// Key identifies a task database.
type Key struct {
	Project string
	Task    string
}

func (k Key) String() string {
	return k.Project + "." + k.Task
}

// Session is the process-wide recording state.
//
// Thread-safety: all methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	project    string
	task       string
	storageDir string
	dbs        map[Key]*store.TaskDB

	writable atomic.Bool

	settings *config.Provider
	tracker  *tracker.Tracker
	clock    store.Clock
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithSettings sets the settings provider. Defaults to one reading
// config.DefaultDir().
func WithSettings(p *config.Provider) Option {
	return func(s *Session) {
		s.settings = p
	}
}

// WithTracker sets the object tracker shared by all databases.
func WithTracker(t *tracker.Tracker) Option {
	return func(s *Session) {
		s.tracker = t
	}
}

// WithStorageDir sets the storage directory, overriding database.folder.
func WithStorageDir(dir string) Option {
	return func(s *Session) {
		s.storageDir = dir
	}
}

// WithClock sets the time source handed to every database.
func WithClock(c store.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates a session recording to the default project and task.
func New(opts ...Option) *Session {
	s := &Session{
		project: store.DefaultProject,
		task:    store.DefaultTask,
		dbs:     make(map[Key]*store.TaskDB),
	}
	s.writable.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	if s.settings == nil {
		s.settings = config.NewProvider(config.DefaultDir())
	}
	if s.tracker == nil {
		s.tracker = tracker.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// SetTask selects the project and task that later records go to. Names
// that are not valid file name parts are rejected with store.ErrInvalidName
// and the selection is left unchanged.
func (s *Session) SetTask(project, task string) error {
	for _, name := range []string{project, task} {
		if err := store.ValidateName(name); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.project = project
	s.task = task
	s.mu.Unlock()

	s.logger.Info("task selected", "project", project, "task", task)
	return nil
}

// Task returns the active project and task.
func (s *Session) Task() Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Key{Project: s.project, Task: s.task}
}

// SetWritable enables or disables file writes for every database.
func (s *Session) SetWritable(w bool) {
	s.writable.Store(w)
}

// Writable reports whether databases may write their files.
func (s *Session) Writable() bool {
	return s.writable.Load()
}

// SetStorageDir sets the directory for databases opened from now on.
func (s *Session) SetStorageDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storageDir = dir
}

// Tracker returns the session's object tracker.
func (s *Session) Tracker() *tracker.Tracker {
	return s.tracker
}

// StorageDir returns the absolute storage directory, creating it if needed.
// An explicitly set directory wins over the database.folder setting.
func (s *Session) StorageDir() (string, error) {
	s.mu.Lock()
	dir := s.storageDir
	s.mu.Unlock()
	return s.resolveStorageDir(dir)
}

func (s *Session) resolveStorageDir(dir string) (string, error) {
	if dir == "" {
		settings, err := s.settings.Settings(config.GlobalPackage, false)
		if err != nil {
			return "", fmt.Errorf("storage directory: %w", err)
		}
		dir, _ = settings.Get(settingsSection, optionFolder)
	}
	if dir == "" {
		return "", ErrStorageDirUnset
	}

	dir, err := expandPath(dir)
	if err != nil {
		return "", fmt.Errorf("storage directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage directory: %w", err)
	}
	return dir, nil
}

// expandPath resolves a leading "~" and makes the path absolute.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

func (s *Session) saveFreq() (time.Duration, error) {
	settings, err := s.settings.Settings(config.GlobalPackage, false)
	if err != nil {
		return 0, err
	}
	minutes, err := settings.Int(settingsSection, optionSaveFreq, defaultSaveFreqMinutes)
	if err != nil {
		return 0, err
	}
	return time.Duration(minutes) * time.Minute, nil
}

// current returns the database for the active project and task, opening it
// on first use.
func (s *Session) current() (*store.TaskDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{Project: s.project, Task: s.task}
	if db, ok := s.dbs[key]; ok {
		return db, nil
	}

	dir, err := s.resolveStorageDir(s.storageDir)
	if err != nil {
		return nil, err
	}
	freq, err := s.saveFreq()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	opts := []store.Option{
		store.WithSaveFreq(freq),
		store.WithWritable(s.writable.Load),
		store.WithResolver(s.tracker),
		store.WithLogger(s.logger),
	}
	if s.clock != nil {
		opts = append(opts, store.WithClock(s.clock))
	}

	db, err := store.Open(key.Project, key.Task, dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", key, err)
	}
	s.dbs[key] = db

	s.logger.Info("database opened",
		"project", key.Project,
		"task", key.Task,
		"path", db.Path(),
	)
	return db, nil
}

// Record appends e under key in the active task database and gives the
// database a chance to save. A failed save is logged by the database and
// retried on a later call; only failing to open the database is returned.
func (s *Session) Record(key string, e ir.Entry) error {
	db, err := s.current()
	if err != nil {
		return err
	}
	db.Record(key, e)
	db.Save(false)
	return nil
}

// RecordCall renders Go arguments and the return value through the tracker
// and records the resulting entry.
func (s *Session) RecordCall(key string, args []any, kwargs map[string]any, ret any) error {
	positional := make([]ir.Value, len(args))
	for i, a := range args {
		positional[i] = s.tracker.Render(a)
	}
	var named map[string]ir.Value
	if len(kwargs) > 0 {
		named = make(map[string]ir.Value, len(kwargs))
		for k, v := range kwargs {
			named[k] = s.tracker.Render(v)
		}
	}
	return s.Record(key, ir.NewEntry(positional, named, s.tracker.Render(ret)))
}

// Track classifies v through the session's tracker.
func (s *Session) Track(v any) tracker.Result {
	return s.tracker.Classify(v)
}

// LoadDescriptors registers the describers from the <pkg>.json descriptor
// file in the settings directory. A missing file is not an error.
func (s *Session) LoadDescriptors(pkg string) error {
	doc, ok, err := s.settings.Descriptors(pkg)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := s.tracker.Registry().LoadDescriptors(doc); err != nil {
		return fmt.Errorf("descriptors %s: %w", pkg, err)
	}
	return nil
}

// Databases returns the keys of all open databases, sorted.
func (s *Session) Databases() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedKeys()
}

func (s *Session) sortedKeys() []Key {
	keys := make([]Key, 0, len(s.dbs))
	for k := range s.dbs {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Project != keys[j].Project {
			return keys[i].Project < keys[j].Project
		}
		return keys[i].Task < keys[j].Task
	})
}

// Database returns the open database for project and task.
func (s *Session) Database(project, task string) (*store.TaskDB, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.dbs[Key{Project: project, Task: task}]
	return db, ok
}
