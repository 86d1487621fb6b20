package repository

import (
	"sync"
	"time"
)

// Clock issues strictly increasing millisecond timestamps for turn sort keys.
// When the wall clock has not advanced past the last issued value it returns
// last+1, so two turns written by this process never share a key.
type Clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClock returns a Clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NowMillis returns the next timestamp.
func (c *Clock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}
