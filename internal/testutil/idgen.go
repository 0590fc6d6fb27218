package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator yields deterministic IDs "<prefix>-000001",
// "<prefix>-000002", … in place of random UUIDs.
//
// Thread-safe; each call returns a distinct ID, so generated values still
// satisfy primary-key uniqueness in store tests.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "test".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "test"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// NewID returns the next ID in the sequence.
func (g *SequenceIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}
