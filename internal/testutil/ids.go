// Package testutil carries deterministic stand-ins for the syncer's
// sources of nondeterminism: the id generator and the wall clock.
package testutil

import "sync"

// FixedGenerator returns predetermined identifiers in order.
//
// Tests declare the exact ids they expect up front and assert against
// them, keeping fixtures byte-identical across runs.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
//	gen := NewFixedGenerator("id-1", "id-2")
//	gen.Generate() // "id-1"
//	gen.Generate() // "id-2"
//	gen.Generate() // panic: ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics when all ids are consumed. Failing fast catches a test that
// creates more entities than it declared.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("testutil: FixedGenerator ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
