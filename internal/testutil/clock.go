// Package testutil holds shared test helpers.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe deterministic time source for tests. Each
// call to Now returns the configured instant advanced by one step, so
// successive records get distinct but predictable timestamps.
type FixedClock struct {
	mu    sync.Mutex
	at    time.Time
	step  time.Duration
	calls int
}

// NewFixedClock creates a clock pinned at the given instant. A zero step
// makes every call return the same time.
func NewFixedClock(at time.Time, step time.Duration) *FixedClock {
	return &FixedClock{at: at, step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.at.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls reports how many times Now has been invoked.
func (c *FixedClock) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
