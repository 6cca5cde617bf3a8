package interval

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func useClock(t *testing.T) *manualClock {
	c := &manualClock{now: time.Unix(0, 0)}
	prev := SetClock(c)
	t.Cleanup(func() {
		StopAll()
		SetClock(prev)
	})
	return c
}

func TestIntervalFiresEachPeriod(t *testing.T) {
	c := useClock(t)
	calls := 0
	iv := New(time.Second, func() { calls++ })
	iv.Start()
	assert.True(t, iv.IsActive())
	assert.True(t, HasActive())

	Step()
	assert.Equal(t, 0, calls)

	c.advance(time.Second)
	Step()
	Step()
	assert.Equal(t, 1, calls, "an interval fires once per period")

	c.advance(3500 * time.Millisecond)
	Step()
	assert.Equal(t, 2, calls, "missed periods are skipped")
	c.advance(500 * time.Millisecond)
	Step()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, iv.Fired())

	iv.Stop()
	iv.Stop()
	c.advance(time.Minute)
	Step()
	assert.Equal(t, 3, calls)
	assert.False(t, HasActive())
}

func TestIntervalStartOrderAndStopFromCallback(t *testing.T) {
	c := useClock(t)
	var log []string
	var b *Interval
	a := New(time.Second, func() {
		log = append(log, "a")
		b.Stop()
	})
	b = New(time.Second, func() { log = append(log, "b") })
	a.Start()
	b.Start()

	c.advance(time.Second)
	Step()
	assert.Equal(t, []string{"a"}, log)
}

func TestIntervalIgnoresNonPositivePeriod(t *testing.T) {
	useClock(t)
	iv := New(0, func() {})
	iv.Start()
	assert.False(t, iv.IsActive())
}
