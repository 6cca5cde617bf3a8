package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/interval"
)

// FrameDuration is how far PumpAndSettle advances the fake clock per frame.
const FrameDuration = 16 * time.Millisecond

// ErrSettleTimeout is returned when PumpAndSettle exceeds its timeout.
var ErrSettleTimeout = errors.New("PumpAndSettle timed out: tree did not settle")

// Tester mounts components on a [hooks.Root] and drives it frame by frame,
// without a Run loop. Work dispatched from goroutines is held until the next
// Pump. While a tester is live the [interval] clock is its fake clock, and
// each Pump steps due intervals.
type Tester struct {
	root       *hooks.Root
	clock      *FakeClock
	prevClock  interval.Clock
	dispatches []func()
	mounted    bool
	closed     bool
}

// NewTester returns a tester with a fresh root and fake clock. Call Cleanup
// when done, or use NewTesterWithT.
func NewTester() *Tester {
	t := &Tester{root: hooks.NewRoot(), clock: NewFakeClock()}
	t.prevClock = interval.SetClock(t.clock)
	return t
}

// NewTesterWithT returns a tester cleaned up by t.Cleanup.
func NewTesterWithT(t testing.TB) *Tester {
	tester := NewTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the tree, running every effect cleanup, and restores the
// interval clock.
func (t *Tester) Cleanup() {
	if t.mounted {
		t.root.Unmount()
		t.mounted = false
	}
	if !t.closed {
		t.closed = true
		interval.StopAll()
		interval.SetClock(t.prevClock)
	}
}

// Root returns the underlying root.
func (t *Tester) Root() *hooks.Root {
	return t.root
}

// Clock returns the fake clock advanced by PumpAndSettle.
func (t *Tester) Clock() *FakeClock {
	return t.clock
}

// SetMaxPasses sets the root's per-flush pass limit.
func (t *Tester) SetMaxPasses(n int) {
	t.root.MaxPasses = n
}

// Mount renders nodes as the tree, reconciling against any previous tree,
// and flushes once.
func (t *Tester) Mount(nodes ...hooks.Node) error {
	t.mounted = true
	return t.root.Mount(nodes...)
}

// Pump steps due intervals, runs held dispatches and flushes the root.
func (t *Tester) Pump() error {
	interval.Step()
	dispatches := t.dispatches
	t.dispatches = nil
	for _, fn := range dispatches {
		fn()
	}
	return t.root.Flush()
}

// PumpAndSettle pumps until no work is pending or timeout of fake time has
// passed. Each frame advances the clock by FrameDuration.
func (t *Tester) PumpAndSettle(timeout time.Duration) error {
	var elapsed time.Duration
	for elapsed < timeout {
		if err := t.Pump(); err != nil {
			return err
		}
		if !t.needsWork() {
			return nil
		}
		t.clock.Advance(FrameDuration)
		elapsed += FrameDuration
	}
	return ErrSettleTimeout
}

func (t *Tester) needsWork() bool {
	return t.root.NeedsWork() || len(t.dispatches) > 0
}

// Advance moves the fake clock forward by d and pumps once.
func (t *Tester) Advance(d time.Duration) error {
	t.clock.Advance(d)
	return t.Pump()
}

// Dispatch holds fn until the next Pump.
func (t *Tester) Dispatch(fn func()) {
	t.dispatches = append(t.dispatches, fn)
}

// Find evaluates a finder against the mounted tree.
func (t *Tester) Find(finder Finder) FinderResult {
	return FinderResult{nodes: finder.Evaluate(t.root), finder: finder}
}

// Texts returns the content of every mounted text node in tree order.
func (t *Tester) Texts() []string {
	var out []string
	t.root.Walk(func(n hooks.NodeInfo) bool {
		if n.Kind == "text" {
			out = append(out, n.Text)
		}
		return true
	})
	return out
}
