package store

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/acorn/internal/ir"
	"github.com/roach88/acorn/internal/testutil"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mapResolver describes a fixed set of identities and counts lookups.
type mapResolver struct {
	mu    sync.Mutex
	descs map[string]ir.Value
	calls map[string]int
}

func newMapResolver(descs map[string]ir.Value) *mapResolver {
	return &mapResolver{descs: descs, calls: make(map[string]int)}
}

func (r *mapResolver) DescribeIdentity(id string) (ir.Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[id]++
	d, ok := r.descs[id]
	return d, ok
}

func (r *mapResolver) callCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

func openTestDB(t *testing.T, dir string, clock *testutil.FakeClock, opts ...Option) *TaskDB {
	t.Helper()
	base := []Option{WithClock(clock), WithLogger(discardLogger())}
	db, err := Open("proj1", "taskA", dir, append(base, opts...)...)
	require.NoError(t, err)
	return db
}

func callEntry(positional ...ir.Value) ir.Entry {
	return ir.NewEntry(positional, nil, nil)
}
