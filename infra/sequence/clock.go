package sequence

import (
	"sync/atomic"
	"time"
)

// Clock yields nanosecond timestamps for record timestamp fields.
type Clock interface {
	Nanos() int64
}

// MonotonicClock reports wall-clock nanoseconds anchored at construction
// and advanced by the monotonic reading, so it never steps backwards when
// the system clock is adjusted.
type MonotonicClock struct {
	base  time.Time
	epoch int64
}

func NewMonotonicClock() *MonotonicClock {
	now := time.Now()
	return &MonotonicClock{base: now, epoch: now.UnixNano()}
}

func (c *MonotonicClock) Nanos() int64 {
	return c.epoch + int64(time.Since(c.base))
}

// ManualClock is a Clock driven by hand, for tests and replay.
type ManualClock struct {
	now atomic.Int64
}

func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

func (c *ManualClock) Nanos() int64 { return c.now.Load() }

func (c *ManualClock) Set(v int64) { c.now.Store(v) }

func (c *ManualClock) Advance(d time.Duration) int64 {
	return c.now.Add(int64(d))
}
