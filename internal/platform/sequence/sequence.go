// Package sequence provides the logical clock for the system. Every
// state-changing request is stamped with a strictly increasing sequence
// number; cooldowns and verification timestamps are measured against it,
// never against wall-clock time.
package sequence

import "sync/atomic"

// Counter issues strictly increasing sequence values. The zero value is
// ready to use; the first Next call returns 1 so that 0 can mean "never".
type Counter struct {
	current atomic.Uint64
}

// NewCounter returns a counter resuming from the given value, which is how
// a restart picks up where the persisted state left off.
func NewCounter(start uint64) *Counter {
	c := &Counter{}
	c.current.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Counter) Next() uint64 {
	return c.current.Add(1)
}

// Current returns the latest issued value without advancing.
func (c *Counter) Current() uint64 {
	return c.current.Load()
}
