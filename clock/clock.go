// Package clock keeps animation time for a render loop. The start and last
// frame instants are owned by a Clock value that the caller threads through,
// so two loops never share timing state.
package clock

import "time"

// Clock measures elapsed and per-frame time from an injectable source.
type Clock struct {
	// Now is the time source; time.Now when nil.
	Now func() time.Time

	start time.Time
	last  time.Time
	ticks uint64
}

// New returns a clock started at the current instant of now.
func New(now func() time.Time) *Clock {
	c := &Clock{Now: now}
	c.Restart()
	return c
}

func (c *Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Restart resets the start and last tick to the current instant.
func (c *Clock) Restart() {
	c.start = c.now()
	c.last = c.start
	c.ticks = 0
}

// Tick advances the clock and returns the time since start and since the
// previous tick.
func (c *Clock) Tick() (elapsed, delta time.Duration) {
	if c.start.IsZero() {
		c.Restart()
	}
	t := c.now()
	elapsed = t.Sub(c.start)
	delta = t.Sub(c.last)
	c.last = t
	c.ticks++
	return elapsed, delta
}

// Seconds is Tick expressed as float32 seconds, the unit shaders expect.
func (c *Clock) Seconds() (elapsed, delta float32) {
	e, d := c.Tick()
	return float32(e.Seconds()), float32(d.Seconds())
}

// Ticks returns how many times Tick was called since the last restart.
func (c *Clock) Ticks() uint64 {
	return c.ticks
}

// Start returns the instant the clock was last restarted.
func (c *Clock) Start() time.Time {
	return c.start
}
