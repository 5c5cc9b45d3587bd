package harness

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/roach88/acorn/internal/config"
	"github.com/roach88/acorn/internal/session"
	"github.com/roach88/acorn/internal/store"
	"github.com/roach88/acorn/internal/testutil"
	"github.com/roach88/acorn/internal/tracker"
)

// Start is the fake clock's initial time in every run.
var Start = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

// Object is the live value created by an object step.
type Object struct {
	Name string
}

// Harness is the scenario execution state.
type Harness struct {
	session    *session.Session
	clock      *testutil.FakeClock
	storageDir string
	objects    map[string]*Object
	logger     *slog.Logger
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger handed to the Session. Logs are discarded by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each run uses fresh temporary settings and storage directories, removed
// when the run ends. An error is returned only when a step cannot be
// executed; failed assertions are reported in the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	root, err := os.MkdirTemp("", "acorn-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(root)

	settingsDir := filepath.Join(root, "settings")
	if err := writeSettings(settingsDir, scenario.SaveFreq); err != nil {
		return nil, err
	}

	registry := tracker.NewRegistry()
	registry.Register(reflect.TypeOf(Object{}), describeObject)

	clock := testutil.NewFakeClock(Start)
	h := &Harness{
		session: session.New(
			session.WithSettings(config.NewProvider(settingsDir)),
			session.WithStorageDir(filepath.Join(root, "db")),
			session.WithTracker(tracker.New(
				tracker.WithGenerator(testutil.NewSequentialGenerator()),
				tracker.WithRegistry(registry),
			)),
			session.WithClock(clock),
			session.WithLogger(cfg.logger),
		),
		clock:   clock,
		objects: make(map[string]*Object),
		logger:  cfg.logger,
	}
	h.storageDir, err = h.session.StorageDir()
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := h.execute(i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op(), err)
		}
		result.AddEvent(ev)
		h.logger.Debug("scenario step completed", "scenario", scenario.Name, "step", i, "op", ev.Op)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h) {
		result.AddError(msg)
	}
	return result, nil
}

func writeSettings(dir string, saveFreq *int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if saveFreq == nil {
		return nil
	}
	content := fmt.Sprintf("database:\n  savefreq: %d\n", *saveFreq)
	path := filepath.Join(dir, config.GlobalPackage+".yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func describeObject(v any) any {
	name := ""
	switch o := v.(type) {
	case *Object:
		name = o.Name
	case Object:
		name = o.Name
	}
	return map[string]any{"type": "harness.Object", "name": name}
}

// execute runs one step and returns its trace event.
func (h *Harness) execute(i int, step Step) (TraceEvent, error) {
	ev := TraceEvent{Step: i, Op: step.Op()}

	switch ev.Op {
	case OpTask:
		if err := h.session.SetTask(step.Task.Project, step.Task.Task); err != nil {
			return ev, err
		}
		ev.Database = h.session.Task().String()

	case OpObject:
		obj := &Object{Name: step.Object}
		h.objects[step.Object] = obj
		res := h.session.Track(obj)
		if res.Kind != tracker.Tracked {
			return ev, fmt.Errorf("object %q classified as %s", step.Object, res.Kind)
		}
		ev.Name = step.Object
		ev.Identity = res.Instance.ID

	case OpRecord:
		if err := h.record(step); err != nil {
			return ev, err
		}
		key := h.session.Task()
		db, ok := h.session.Database(key.Project, key.Task)
		if !ok {
			return ev, fmt.Errorf("database %s not open after record", key)
		}
		stored, err := h.storedCount(key.Project, key.Task, step.Record)
		if err != nil {
			return ev, err
		}
		ev.Database = key.String()
		ev.Entity = step.Record
		ev.Calls = len(db.Entries(step.Record))
		ev.Stored = stored

	case OpAdvance:
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return ev, err
		}
		h.clock.Advance(d)
		ev.Elapsed = d.String()

	case OpWritable:
		h.session.SetWritable(*step.Writable)
		ev.Writable = *step.Writable

	case OpSave:
		key := h.session.Task()
		db, ok := h.session.Database(key.Project, key.Task)
		if !ok {
			return ev, fmt.Errorf("database %s is not open", key)
		}
		res := db.Save(true)
		ev.Database = key.String()
		ev.Outcome = res.Outcome.String()

	case OpCleanup:
		report := h.session.Cleanup()
		ev.Saved = keyNames(report.Saved)
		ev.Skipped = keyNames(report.Skipped)
		failed := make([]session.Key, 0, len(report.Failed))
		for k := range report.Failed {
			failed = append(failed, k)
		}
		ev.Failed = keyNames(sortedKeys(failed))

	case OpRemoveStorage:
		if err := os.RemoveAll(h.storageDir); err != nil {
			return ev, err
		}

	default:
		return ev, fmt.Errorf("step has no single operation")
	}
	return ev, nil
}

func (h *Harness) record(step Step) error {
	args := make([]any, len(step.Args))
	for i, a := range step.Args {
		v, err := h.bind(a)
		if err != nil {
			return fmt.Errorf("args[%d]: %w", i, err)
		}
		args[i] = v
	}
	var kwargs map[string]any
	if len(step.Kwargs) > 0 {
		kwargs = make(map[string]any, len(step.Kwargs))
		for k, a := range step.Kwargs {
			v, err := h.bind(a)
			if err != nil {
				return fmt.Errorf("kwargs[%q]: %w", k, err)
			}
			kwargs[k] = v
		}
	}
	ret, err := h.bind(step.Returns)
	if err != nil {
		return fmt.Errorf("returns: %w", err)
	}
	return h.session.RecordCall(step.Record, args, kwargs, ret)
}

// bind replaces a "$name" reference with the named object.
func (h *Harness) bind(v any) (any, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return v, nil
	}
	obj, ok := h.objects[strings.TrimPrefix(s, "$")]
	if !ok {
		return nil, fmt.Errorf("unknown object %q", s)
	}
	return obj, nil
}

// readStored reads the database file for project and task. A missing file
// yields nil.
func (h *Harness) readStored(project, task string) (*store.Snapshot, error) {
	snap, err := store.ReadFile(store.PathFor(h.storageDir, project, task))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return snap, err
}

func (h *Harness) storedCount(project, task, entity string) (int, error) {
	snap, err := h.readStored(project, task)
	if err != nil || snap == nil {
		return 0, err
	}
	return len(snap.Entities[entity]), nil
}

func keyNames(keys []session.Key) []string {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return names
}

func sortedKeys(keys []session.Key) []session.Key {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Project != keys[j].Project {
			return keys[i].Project < keys[j].Project
		}
		return keys[i].Task < keys[j].Task
	})
	return keys
}
