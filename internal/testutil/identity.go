package testutil

import (
	"fmt"
	"sync"
)

// FixedGenerator returns predetermined identities in order.
//
// Panics if all identities have been consumed. This is a fail-fast approach
// to catch a test that tracks more objects than it declared.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined identity.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all identities exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// SequentialGenerator mints valid version 4 UUIDs from a counter:
// 00000000-0000-4000-8000-000000000001, ...000002, and so on.
// Used where golden files need stable identities.
//
// Thread-safety: SequentialGenerator is safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu sync.Mutex
	n  int64
}

// NewSequentialGenerator creates a generator whose first identity ends in 1.
func NewSequentialGenerator() *SequentialGenerator {
	return &SequentialGenerator{}
}

// Generate returns the next identity.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return SequentialID(g.n)
}

// SequentialID returns the identity SequentialGenerator mints at step n.
func SequentialID(n int64) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}
