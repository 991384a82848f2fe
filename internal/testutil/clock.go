package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a fake wall clock for tests: every call to Now
// returns a time one second later than the previous one, starting at
// Epoch.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// Epoch is the time returned by the first call to Now.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewDeterministicClock creates a new deterministic clock.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now returns the next time and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.seq) * time.Second)
	c.seq++
	return t
}

// Calls returns how many times Now was called.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
