package resolver

import (
	"sync"
	"time"
)

// Clock supplies the wall-clock time used for synthetic document identifiers.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local system time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// MonotonicClock wraps a Clock so that Now never goes backwards within the
// process, even if the system clock is stepped back. Safe for concurrent use.
type MonotonicClock struct {
	base Clock

	mu   sync.Mutex
	last time.Time
}

// NewMonotonicClock returns a non-decreasing view of base.
func NewMonotonicClock(base Clock) *MonotonicClock {
	if base == nil {
		base = SystemClock{}
	}
	return &MonotonicClock{base: base}
}

// Now returns the later of the base clock's time and the last value returned.
func (c *MonotonicClock) Now() time.Time {
	now := c.base.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Before(c.last) {
		return c.last
	}
	c.last = now
	return now
}
