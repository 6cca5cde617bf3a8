package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/interval"
)

func counter(set *func(any)) hooks.Component {
	return hooks.Component{Name: "Counter", Render: func(h *hooks.Hooks) []hooks.Node {
		v, setter := h.UseState(0)
		*set = setter
		return []hooks.Node{hooks.Text(fmt.Sprintf("count: %d", v))}
	}}
}

func TestTesterMountAndPump(t *testing.T) {
	tester := NewTesterWithT(t)
	var set func(any)
	require.NoError(t, tester.Mount(counter(&set)))
	assert.Equal(t, []string{"count: 0"}, tester.Texts())

	set(3)
	require.NoError(t, tester.Pump())
	assert.True(t, tester.Find(ByText("count: 3")).Exists())
	assert.False(t, tester.Find(ByText("count: 0")).Exists())
}

func TestTesterDispatchWaitsForPump(t *testing.T) {
	tester := NewTesterWithT(t)
	var set func(any)
	require.NoError(t, tester.Mount(counter(&set)))

	called := false
	tester.Dispatch(func() {
		called = true
		set(1)
	})
	assert.False(t, called, "dispatch should not run until Pump")

	require.NoError(t, tester.Pump())
	assert.True(t, called)
	assert.Equal(t, []string{"count: 1"}, tester.Texts())
}

func TestPumpAndSettleIdle(t *testing.T) {
	tester := NewTesterWithT(t)
	var set func(any)
	require.NoError(t, tester.Mount(counter(&set)))
	start := tester.Clock().Now()

	require.NoError(t, tester.PumpAndSettle(time.Second))
	assert.Equal(t, start, tester.Clock().Now(), "an idle tree settles on the first frame")
}

func TestPumpAndSettleTimeout(t *testing.T) {
	tester := NewTesterWithT(t)
	var requeue func()
	requeue = func() { tester.Dispatch(requeue) }
	require.NoError(t, tester.Mount(hooks.Text("idle")))
	tester.Dispatch(requeue)

	err := tester.PumpAndSettle(100 * time.Millisecond)
	assert.ErrorIs(t, err, ErrSettleTimeout)
	assert.Equal(t, 112*time.Millisecond, tester.Clock().Now().Sub(NewFakeClock().Now()))
}

func TestCleanupRunsEffectCleanups(t *testing.T) {
	tester := NewTester()
	cleaned := false
	require.NoError(t, tester.Mount(hooks.Component{Name: "Fx", Render: func(h *hooks.Hooks) []hooks.Node {
		h.UseEffect(func() func() { return func() { cleaned = true } }, []any{})
		return nil
	}}))
	tester.Cleanup()
	assert.True(t, cleaned)
}

func TestFinders(t *testing.T) {
	tester := NewTesterWithT(t)
	item := func(key string) hooks.Node {
		return hooks.Component{Name: "Item", Key: key, Render: func(h *hooks.Hooks) []hooks.Node {
			return []hooks.Node{hooks.Text("item " + key)}
		}}
	}
	require.NoError(t, tester.Mount(hooks.Component{Name: "List", Render: func(h *hooks.Hooks) []hooks.Node {
		return []hooks.Node{item("a"), item("b")}
	}}))

	assert.Equal(t, 1, tester.Find(ByName("List")).Count())
	assert.Equal(t, 2, tester.Find(ByName("Item")).Count())
	assert.Equal(t, "Item", tester.Find(ByKey("b")).First().Name)
	assert.Equal(t, 2, tester.Find(ByTextContaining("item")).Count())
	assert.Equal(t, 2, tester.Find(ByPredicate(func(n hooks.NodeInfo) bool { return n.Depth == 1 })).Count())
	assert.Panics(t, func() { tester.Find(ByName("Missing")).First() })
}

func TestFakeClock(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()
	clk.Advance(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, clk.Now().Sub(start))

	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk.Set(target)
	assert.True(t, clk.Now().Equal(target))
}

func TestTesterStepsIntervals(t *testing.T) {
	tester := NewTesterWithT(t)
	var set func(any)
	require.NoError(t, tester.Mount(counter(&set)))

	ticks := 0
	iv := interval.New(time.Second, func() {
		ticks++
		set(ticks)
	})
	iv.Start()

	require.NoError(t, tester.Advance(500*time.Millisecond))
	assert.Equal(t, []string{"count: 0"}, tester.Texts())
	require.NoError(t, tester.Advance(500*time.Millisecond))
	assert.Equal(t, []string{"count: 1"}, tester.Texts())

	tester.Cleanup()
	assert.False(t, iv.IsActive(), "cleanup stops running intervals")
}
