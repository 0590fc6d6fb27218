// Package testutil provides deterministic test doubles for the clock and
// ID sources used by the ledger and the run-history store.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe clock frozen at a known instant.
//
// Unlike time.Now, FixedClock only moves when a test advances it, so
// timestamps in ledger entries and history rows are byte-stable across
// runs and repeated recordings are idempotent.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the clock's current instant without advancing it.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
