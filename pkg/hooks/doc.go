// Package hooks provides the primitive reactive hooks that magic objects are
// bound against, together with a small single-threaded runtime that hosts
// them.
//
// # Host Contract
//
// [Host] is the whole surface the binding engine depends on:
//
//	UseState(initial) (value, set)    // state cell; set schedules a re-render
//	UseMemo(compute, deps) value      // recompute only when deps change
//	UseContext(handle) value          // nearest provided ambient value
//	UseEffect(body, deps)             // run after commit, cleanup before rerun
//	UseLayoutEffect(body, deps)       // like UseEffect, but runs first
//
// Dependency lists are compared element by element by identity (see [Same]).
// A nil list means "every render"; an empty, non-nil list means "first render
// only".
//
// # Runtime
//
// [Root] tracks a tree of [Component] and provider nodes. Components render by
// calling hooks on the [*Hooks] handle they receive, and return their children:
//
//	counter := hooks.Component{
//	    Name: "Counter",
//	    Render: func(h *hooks.Hooks) []hooks.Node {
//	        count, setCount := h.UseState(0)
//	        h.UseEffect(func() func() {
//	            fmt.Println("count is", count)
//	            return nil
//	        }, []any{count})
//	        _ = setCount
//	        return nil
//	    },
//	}
//
//	root := hooks.NewRoot()
//	root.Mount(counter)
//
// Calling a state setter marks the component dirty. [Root.Flush] re-renders
// dirty components in depth order, then runs layout effects, then effects, and
// repeats until nothing is dirty.
//
// # Threading
//
// The runtime is NOT thread-safe. Components, setters and effects run on the
// goroutine that calls [Root.Flush] or [Root.Run]. Background goroutines hand
// work back with [Root.Dispatch]:
//
//	go func() {
//	    result := fetch()
//	    root.Dispatch(func() { setResult(result) })
//	}()
package hooks
