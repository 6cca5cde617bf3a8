// Package interval provides repeating callbacks driven by the render loop.
//
// An [Interval] does not own a goroutine. Active intervals fire from [Step],
// which the owner of the render loop calls once per frame on the render
// goroutine, so callbacks may write magic state directly:
//
//	// In a magic effect
//	func (e *Entity) Start() func() {
//	    iv := interval.New(e.Period(), e.Act)
//	    iv.Start()
//	    return iv.Stop
//	}
//
//	// In the frame loop
//	root.Dispatch(interval.Step)
//
// Time comes from the package [Clock], so tests advance a fake clock and
// call Step to fire intervals without sleeping.
package interval

import (
	"sync"
	"time"
)

var (
	mu     sync.Mutex
	active = make(map[*Interval]struct{})
	order  []*Interval
)

// Interval calls a callback every period while active.
type Interval struct {
	period   time.Duration
	callback func()
	isActive bool
	next     time.Time
	fired    int
}

// New creates an interval. It does nothing until Start is called.
func New(period time.Duration, callback func()) *Interval {
	return &Interval{period: period, callback: callback}
}

// Start activates the interval. The first call fires one period from now.
func (i *Interval) Start() {
	mu.Lock()
	defer mu.Unlock()
	if i.isActive || i.period <= 0 {
		return
	}
	i.isActive = true
	i.next = Now().Add(i.period)
	active[i] = struct{}{}
	order = append(order, i)
}

// Stop deactivates the interval. Stop is safe to call more than once.
func (i *Interval) Stop() {
	mu.Lock()
	defer mu.Unlock()
	if !i.isActive {
		return
	}
	i.isActive = false
	delete(active, i)
	for n, x := range order {
		if x == i {
			order = append(order[:n], order[n+1:]...)
			break
		}
	}
}

// IsActive returns whether the interval is running.
func (i *Interval) IsActive() bool {
	mu.Lock()
	defer mu.Unlock()
	return i.isActive
}

// Fired returns how many times the callback ran.
func (i *Interval) Fired() int {
	mu.Lock()
	defer mu.Unlock()
	return i.fired
}

// Step fires every active interval that is due, in start order. An interval
// that fell several periods behind fires once and is rescheduled after the
// current time.
func Step() {
	now := Now()
	mu.Lock()
	if len(order) == 0 {
		mu.Unlock()
		return
	}
	// Copy so callbacks can start and stop intervals.
	due := make([]*Interval, 0, len(order))
	for _, i := range order {
		if !now.Before(i.next) {
			due = append(due, i)
		}
	}
	mu.Unlock()

	for _, i := range due {
		mu.Lock()
		if !i.isActive {
			mu.Unlock()
			continue
		}
		for !now.Before(i.next) {
			i.next = i.next.Add(i.period)
		}
		i.fired++
		cb := i.callback
		mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}

// HasActive reports whether any interval is running.
func HasActive() bool {
	mu.Lock()
	defer mu.Unlock()
	return len(active) > 0
}

// StopAll stops every interval.
func StopAll() {
	mu.Lock()
	defer mu.Unlock()
	for i := range active {
		i.isActive = false
	}
	clear(active)
	order = nil
}
