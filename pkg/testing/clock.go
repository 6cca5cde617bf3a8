package testing

import (
	"sync/atomic"
	"time"

	"github.com/go-drift/magic/pkg/interval"
)

// Epoch is the time a new FakeClock reads.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeClock is an [interval.Clock] that only moves when told to. It is safe
// for concurrent use.
type FakeClock struct {
	// nanoseconds since the Unix epoch
	ns atomic.Int64
}

var _ interval.Clock = (*FakeClock)(nil)

// NewFakeClock returns a clock reading [Epoch].
func NewFakeClock() *FakeClock {
	c := &FakeClock{}
	c.Set(Epoch)
	return c
}

// Now returns the clock's time in UTC.
func (c *FakeClock) Now() time.Time {
	return time.Unix(0, c.ns.Load()).UTC()
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.ns.Add(int64(d))
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.ns.Store(t.UnixNano())
}
