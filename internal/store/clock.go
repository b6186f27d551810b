package store

import (
	"sync/atomic"
	"time"
)

// Clock stamps records with strictly increasing nanosecond timestamps.
//
// Each reading is the wall time, or one nanosecond past the previous reading
// when the wall clock has not advanced (or went backwards).
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	now  func() time.Time
	last atomic.Int64
}

// NewClock creates a clock reading now.
func NewClock(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Next returns the next timestamp.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	for {
		last := c.last.Load()
		next := max(c.now().UnixNano(), last+1)
		if c.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Observe makes future readings greater than ts.
func (c *Clock) Observe(ts int64) {
	for {
		last := c.last.Load()
		if ts <= last || c.last.CompareAndSwap(last, ts) {
			return
		}
	}
}

// Current returns the last reading without advancing.
func (c *Clock) Current() int64 {
	return c.last.Load()
}
