package engine

import "sync/atomic"

// Clock hands out the seq numbers that order the elaboration log.
//
// A run takes one contiguous block: the first number stamps the run, the
// rest stamp its sources in input order. Blocks from concurrent runs never
// overlap, and nothing depends on wall time.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first block starts at 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first block starts after last.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.last.Store(last)
	return c
}

// Reserve claims n consecutive seq numbers and returns the first.
func (c *Clock) Reserve(n int64) int64 {
	return c.last.Add(n) - n + 1
}

// AdvanceTo makes sure the next block starts after seq. The clock never
// moves backwards.
func (c *Clock) AdvanceTo(seq int64) {
	for {
		cur := c.last.Load()
		if cur >= seq || c.last.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.last.Load()
}
