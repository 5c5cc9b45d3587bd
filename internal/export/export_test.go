package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acorn/internal/ir"
	"github.com/roach88/acorn/internal/store"
	"github.com/roach88/acorn/internal/testutil"
)

func testSnapshot() *store.Snapshot {
	m1 := testutil.SequentialID(1)
	return &store.Snapshot{
		Entities: map[string][]ir.Entry{
			"mymodule.myfunc": {
				ir.NewEntry([]ir.Value{ir.String("hello"), ir.Int(5)}, nil, nil),
				ir.NewEntry([]ir.Value{ir.String("again")}, nil, ir.Float(0.5)),
			},
			"numpy.dot": {
				ir.NewEntry([]ir.Value{ir.String(m1)}, map[string]ir.Value{"out": ir.Null{}}, ir.String(m1)),
			},
		},
		UUIDs: map[string]ir.Value{
			m1: ir.Object{"type": ir.String("matrix")},
		},
	}
}

func openMirror(t *testing.T, path string) *Mirror {
	t.Helper()
	m, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestOpen_Pragmas(t *testing.T) {
	m := openMirror(t, filepath.Join(t.TempDir(), "mirror.db"))

	assert.NoError(t, m.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, m.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, m.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")
	m := openMirror(t, path)
	require.NoError(t, m.Close())

	again := openMirror(t, path)
	assert.NoError(t, again.verifyPragma("user_version", "1"))
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mirror.db")

	require.NoError(t, Write(ctx, path, testSnapshot()))
	m := openMirror(t, path)

	entities, err := m.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []EntityCount{
		{Entity: "mymodule.myfunc", Calls: 2},
		{Entity: "numpy.dot", Calls: 1},
	}, entities)

	calls, err := m.Calls(ctx, "mymodule.myfunc")
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, Call{
		Entity:  "mymodule.myfunc",
		Seq:     1,
		Entry:   `{"args":{"__":["hello",5]},"returns":null}`,
		Returns: "null",
	}, calls[0])
	assert.Equal(t, int64(2), calls[1].Seq)
	assert.Equal(t, "0.5", calls[1].Returns)

	desc, ok, err := m.Object(ctx, testutil.SequentialID(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"type":"matrix"}`, desc)

	_, ok, err = m.Object(ctx, testutil.SequentialID(9))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrite_ReplacesExisting(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mirror.db")

	require.NoError(t, Write(ctx, path, testSnapshot()))

	smaller := &store.Snapshot{
		Entities: map[string][]ir.Entry{"only": {ir.NewEntry(nil, nil, nil)}},
		UUIDs:    map[string]ir.Value{},
	}
	require.NoError(t, Write(ctx, path, smaller))

	m := openMirror(t, path)
	entities, err := m.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []EntityCount{{Entity: "only", Calls: 1}}, entities)
}

func TestWrite_QueryReturnsByIdentity(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mirror.db")
	require.NoError(t, Write(ctx, path, testSnapshot()))

	m := openMirror(t, path)
	rows, err := m.Query(ctx, `
		SELECT c.entity, o.description
		FROM calls c JOIN objects o ON c.returns = json_quote(o.uuid)
	`)
	require.NoError(t, err)
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		var entity, desc string
		require.NoError(t, rows.Scan(&entity, &desc))
		got = append(got, [2]string{entity, desc})
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][2]string{{"numpy.dot", `{"type":"matrix"}`}}, got)
}

func TestWrite_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Write(ctx, filepath.Join(t.TempDir(), "mirror.db"), testSnapshot())
	assert.Error(t, err)
}
