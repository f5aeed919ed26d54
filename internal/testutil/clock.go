package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a DeterministicClock reports by default.
var Epoch = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

// DeterministicClock is a wall clock stand-in for tests. Each call to Now
// returns the start time advanced by one more step.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewDeterministicClock creates a clock starting at start. A zero start
// selects Epoch.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	if start.IsZero() {
		start = Epoch
	}
	return &DeterministicClock{start: start, step: step}
}

// Now returns start + n*step for the n-th call, counting from zero.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how often Now was called.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset makes the next call to Now return the start time again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
