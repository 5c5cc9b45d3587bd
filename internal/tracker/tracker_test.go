package tracker

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acorn/internal/ir"
	"github.com/roach88/acorn/internal/testutil"
)

func TestTrack_SameObjectSameIdentity(t *testing.T) {
	tr := New()
	m := &matrix{Rows: 2, Cols: 2}

	first := tr.Classify(m)
	second := tr.Classify(m)

	require.Equal(t, Tracked, first.Kind)
	require.Equal(t, Tracked, second.Kind)
	assert.Same(t, first.Instance, second.Instance)
	assert.Equal(t, first.Instance.ID, second.Instance.ID)
	assert.Equal(t, 1, tr.Len())

	_, ok := ir.ParseIdentity(first.Instance.ID)
	assert.True(t, ok, "minted identities are UUIDs")
}

func TestTrack_DistinctObjectsDistinctIdentities(t *testing.T) {
	tr := New()
	a := &matrix{Rows: 1}
	b := &matrix{Rows: 1} // equal contents, different object

	ra, rb := tr.Classify(a), tr.Classify(b)
	assert.NotEqual(t, ra.Instance.ID, rb.Instance.ID)
	assert.Equal(t, 2, tr.Len())
}

func TestTrack_ValuesByCopyAreDistinct(t *testing.T) {
	tr := New()
	m := matrix{Rows: 3}

	ra, rb := tr.Classify(m), tr.Classify(m)
	assert.NotEqual(t, ra.Instance.ID, rb.Instance.ID)
	assert.Zero(t, ra.Instance.Addr)
}

type marker struct{}

func TestTrack_ZeroSizePointersAreDistinct(t *testing.T) {
	tr := New()
	a, b := &marker{}, &marker{}

	ra, rb := tr.Classify(a), tr.Classify(b)
	require.Equal(t, Tracked, ra.Kind)
	require.Equal(t, Tracked, rb.Kind)
	assert.NotEqual(t, ra.Instance.ID, rb.Instance.ID)
	assert.Equal(t, 2, tr.Len())

	_, ok := tr.LookupValue(a)
	assert.False(t, ok, "zero-size values have no address identity")
}

func TestTrack_Reslice(t *testing.T) {
	tr := New()
	backing := [][]int{{1}, {2}, {3}}

	whole := tr.Classify(backing)
	prefix := tr.Classify(backing[:2])
	again := tr.Classify(backing)

	assert.NotEqual(t, whole.Instance.ID, prefix.Instance.ID)
	assert.Equal(t, whole.Instance.ID, again.Instance.ID)
}

func TestTrack_IndicesAgree(t *testing.T) {
	tr := New(WithGenerator(testutil.NewFixedGenerator("id-1", "id-2")))
	a, b := &matrix{}, map[string]any{"k": []any{nil}}

	ia := tr.Classify(a).Instance
	ib := tr.Classify(b).Instance

	byID, ok := tr.Lookup("id-1")
	require.True(t, ok)
	byValue, ok := tr.LookupValue(a)
	require.True(t, ok)
	assert.Same(t, ia, byID)
	assert.Same(t, ia, byValue)

	byID, _ = tr.Lookup("id-2")
	byValue, _ = tr.LookupValue(b)
	assert.Same(t, ib, byID)
	assert.Same(t, ib, byValue)
}

func TestTrack_Forget(t *testing.T) {
	tr := New()
	m := &matrix{}
	id := tr.Classify(m).Instance.ID

	assert.True(t, tr.Forget(id))
	assert.False(t, tr.Forget(id))
	assert.Equal(t, 0, tr.Len())

	_, ok := tr.LookupValue(m)
	assert.False(t, ok)

	fresh := tr.Classify(m).Instance.ID
	assert.NotEqual(t, id, fresh)
}

func TestTrack_Concurrent(t *testing.T) {
	tr := New()
	m := &matrix{}

	const goroutines = 50
	ids := make(chan string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- tr.Classify(m).Instance.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)
	assert.Equal(t, 1, tr.Len())
}

func TestDescribeIdentity(t *testing.T) {
	tr := New()
	reg := tr.Registry()
	require.NoError(t, reg.LoadDescriptors(map[string]any{
		"tracker.matrix": map[string]any{"fields": []any{"Rows", "Cols", "data"}},
	}))

	id := tr.Classify(&matrix{Rows: 2, Cols: 3}).Instance.ID

	desc, ok := tr.DescribeIdentity(id)
	require.True(t, ok)
	assert.Equal(t, ir.Object{
		"type": ir.String("*tracker.matrix"),
		"Rows": ir.Int(2),
		"Cols": ir.Int(3),
	}, desc, "unexported fields are skipped")

	_, ok = tr.DescribeIdentity("00000000-0000-4000-8000-000000000999")
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	tr := New(WithGenerator(testutil.NewSequentialGenerator()))

	assert.Equal(t, ir.Int(5), tr.Render(5))
	assert.Equal(t, ir.Float(21.5), tr.Render(celsius(21.5)))
	assert.Equal(t, ir.String("(1+2i)"), tr.Render(complex(1, 2)))
	assert.Equal(t, ir.Null{}, tr.Render(nil))
	assert.Equal(t, ir.String("list len=2 min=1 max=2"), tr.Render([]int{2, 1}))
	assert.Equal(t, ir.String(testutil.SequentialID(1)), tr.Render(&matrix{}))
}

func TestRender_NonFiniteFloats(t *testing.T) {
	tr := New()

	assert.Equal(t, ir.String("NaN"), tr.Render(math.NaN()))
	assert.Equal(t, ir.String("+Inf"), tr.Render(math.Inf(1)))
	assert.Equal(t, ir.String("-Inf"), tr.Render(celsius(math.Inf(-1))))
	assert.Equal(t, ir.String("NaN"), tr.Render(float32(math.NaN())))
}
