package showcase

import (
	"log/slog"
	"slices"

	"github.com/go-drift/magic/pkg/magic"
)

// Counter is the smallest magic class: a state, a memo derived from it and
// an effect that runs when it changes.
type Counter struct {
	magic.Object

	Count   magic.State[int]
	Step    magic.State[int]
	Doubled magic.Memo[int]

	// Seen records the counts the Announce effect observed.
	Seen []int
}

func init() {
	magic.Annotate[Counter](
		magic.IsState("Count"),
		magic.IsState("Step"),
		magic.IsMemo("Doubled", magic.DepsFunc(func(c *Counter) []any {
			return []any{c.Count.Get()}
		})),
		magic.IsEffect("Announce", magic.DepsFunc(func(c *Counter) []any {
			return []any{c.Count.Get()}
		})),
	)
}

// NewCounter returns a counter at zero stepping by one.
func NewCounter() *Counter {
	c := &Counter{Step: magic.StateOf(1)}
	c.Doubled = magic.MemoOf(func() int { return c.Count.Get() * 2 })
	return c
}

// Increment adds the step to the count.
func (c *Counter) Increment() {
	c.Count.Update(func(n int) int { return n + c.Step.Get() })
}

// Decrement subtracts the step from the count.
func (c *Counter) Decrement() {
	c.Count.Update(func(n int) int { return n - c.Step.Get() })
}

// Reset sets the count back to zero.
func (c *Counter) Reset() {
	c.Count.Set(0)
}

// Announce records and logs the count after it changed.
func (c *Counter) Announce() {
	c.Seen = append(c.Seen, c.Count.Get())
	slog.Debug("counter changed", "count", c.Count.Get())
}

// Tally counts votes per option.
type Tally struct {
	magic.Object

	Votes  magic.StateMap[string, int]
	Leader magic.Memo[string]
}

func init() {
	magic.Annotate[Tally](
		magic.IsStateCollection("Votes"),
		magic.IsMemo("Leader", magic.Always()),
	)
}

// NewTally returns a tally with the given options at zero votes.
func NewTally(options ...string) *Tally {
	t := &Tally{}
	for _, o := range options {
		t.Votes.Set(o, 0)
	}
	t.Leader = magic.MemoOf(t.leader)
	return t
}

// Vote adds one vote for option.
func (t *Tally) Vote(option string) {
	n, _ := t.Votes.Get(option)
	t.Votes.Set(option, n+1)
}

// Options returns the options in name order.
func (t *Tally) Options() []string {
	var out []string
	t.Votes.Range(func(k string, _ int) bool {
		out = append(out, k)
		return true
	})
	slices.Sort(out)
	return out
}

// leader returns the option with the most votes, ties going to the first
// name, or "" before any vote.
func (t *Tally) leader() string {
	best, most := "", 0
	for _, o := range t.Options() {
		if n, _ := t.Votes.Get(o); n > most {
			best, most = o, n
		}
	}
	return best
}
