package testutil

import "time"

// FakeClock is a deterministic stand-in for wall-clock time in tests that
// would otherwise depend on real sleeps (the segmenter driver's poll loop).
// Sleep advances the clock instantly instead of blocking.
type FakeClock struct {
	now time.Time
}

// NewFakeClock returns a FakeClock starting at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (c *FakeClock) Now() time.Time { return c.now }

func (c *FakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}
