// Package testing provides test hosts for code built on hooks and magic
// objects.
//
// # Recorder
//
// [Recorder] is a stateless [hooks.Host] that records every hook call, for
// asserting exactly which hooks a binding issues:
//
//	rec := magictest.NewRecorder().Provide(UserContext, user)
//	c := magic.Use(rec, magic.Class(NewPostList))
//	assert.Equal(t, 2, rec.Count(magictest.HookState))
//	rec.RunEffects()
//
// # Tester
//
// [Tester] mounts real components on a [hooks.Root] and drives it frame by
// frame:
//
//	func TestCounter(t *testing.T) {
//	    tester := magictest.NewTesterWithT(t)
//	    tester.Mount(CounterView())
//
//	    counter.Count.Set(5)
//	    tester.Pump()
//
//	    if !tester.Find(magictest.ByText("count: 5")).Exists() {
//	        t.Error("expected updated count")
//	    }
//	}
//
// PumpAndSettle pumps until nothing is pending and advances [FakeClock] by
// [FrameDuration] per frame.
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import magictest "github.com/go-drift/magic/pkg/testing"
package testing
