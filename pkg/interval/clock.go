package interval

import (
	"sync/atomic"
	"time"
)

// Clock provides time for intervals. The default implementation uses system
// time. Tests inject a fake clock with SetClock to fire intervals
// deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type clockHolder struct{ Clock }

var clock atomic.Pointer[clockHolder]

func init() {
	clock.Store(&clockHolder{realClock{}})
}

// SetClock replaces the interval clock and returns the previous one so
// callers can restore it during cleanup. A nil clock restores system time.
func SetClock(c Clock) Clock {
	if c == nil {
		c = realClock{}
	}
	return clock.Swap(&clockHolder{c}).Clock
}

// Now returns the current time from the active clock.
func Now() time.Time { return clock.Load().Now() }
