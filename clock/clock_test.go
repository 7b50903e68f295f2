package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manual struct {
	t time.Time
}

func (m *manual) now() time.Time { return m.t }

func (m *manual) advance(d time.Duration) { m.t = m.t.Add(d) }

func TestTickReportsElapsedAndDelta(t *testing.T) {
	src := &manual{t: time.Unix(1000, 0)}
	c := New(src.now)

	src.advance(16 * time.Millisecond)
	e, d := c.Tick()
	assert.Equal(t, 16*time.Millisecond, e)
	assert.Equal(t, 16*time.Millisecond, d)

	src.advance(20 * time.Millisecond)
	e, d = c.Tick()
	assert.Equal(t, 36*time.Millisecond, e)
	assert.Equal(t, 20*time.Millisecond, d)
	assert.Equal(t, uint64(2), c.Ticks())
}

func TestClocksAreIndependent(t *testing.T) {
	src := &manual{t: time.Unix(0, 0)}
	a := New(src.now)
	src.advance(time.Second)
	b := New(src.now)
	src.advance(time.Second)

	ea, _ := a.Tick()
	eb, _ := b.Tick()
	assert.Equal(t, 2*time.Second, ea)
	assert.Equal(t, time.Second, eb)
}

func TestRestart(t *testing.T) {
	src := &manual{t: time.Unix(0, 0)}
	c := New(src.now)
	src.advance(time.Second)
	c.Tick()

	c.Restart()
	require.Zero(t, c.Ticks())
	src.advance(250 * time.Millisecond)
	e, d := c.Seconds()
	assert.InDelta(t, 0.25, e, 1e-6)
	assert.InDelta(t, 0.25, d, 1e-6)
}

func TestZeroValueUsesWallClock(t *testing.T) {
	var c Clock
	e, d := c.Tick()
	assert.GreaterOrEqual(t, e, time.Duration(0))
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.False(t, c.Start().IsZero())
}
