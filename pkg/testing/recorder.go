package testing

import (
	"slices"

	"github.com/go-drift/magic/pkg/hooks"
)

// Hook names recorded by [Recorder].
const (
	HookState        = "UseState"
	HookMemo         = "UseMemo"
	HookContext      = "UseContext"
	HookEffect       = "UseEffect"
	HookLayoutEffect = "UseLayoutEffect"
)

// Call is one recorded hook call.
type Call struct {
	Hook string
	// Deps is a copy of the dependency list passed to UseMemo, UseEffect or
	// UseLayoutEffect.
	Deps []any
	// Initial is the value passed to UseState.
	Initial any
	// Handle is the handle passed to UseContext.
	Handle hooks.ContextHandle
	// Result is what the hook returned: the memo value, the context value
	// or the state's initial value.
	Result any
}

// Recorder is a [hooks.Host] that records every call and keeps no state
// between calls: UseMemo computes on every call, UseState returns its
// initial value, and effects are collected until RunEffects. It is meant for
// checking exactly which hook calls a piece of code issues.
//
//	rec := magictest.NewRecorder()
//	magic.Use(rec, magic.Class(NewCounter))
//	assert.Equal(t, 1, rec.Count(magictest.HookState))
type Recorder struct {
	Calls []Call
	// Sets holds every value passed to a state setter, in order.
	Sets []any

	contexts map[hooks.ContextHandle]any
	effects  []pendingBody
	cleanups []func()
}

type pendingBody struct {
	layout bool
	body   func() func()
}

var _ hooks.Host = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{contexts: make(map[hooks.ContextHandle]any)}
}

// Provide sets the value UseContext(handle) returns. Unprovided handles
// return their default value.
func (r *Recorder) Provide(handle hooks.ContextHandle, value any) *Recorder {
	r.contexts[handle] = value
	return r
}

// UseState implements hooks.Host.
func (r *Recorder) UseState(initial any) (any, func(any)) {
	r.Calls = append(r.Calls, Call{Hook: HookState, Initial: initial, Result: initial})
	return initial, func(v any) { r.Sets = append(r.Sets, v) }
}

// UseMemo implements hooks.Host.
func (r *Recorder) UseMemo(compute func() any, deps []any) any {
	v := compute()
	r.Calls = append(r.Calls, Call{Hook: HookMemo, Deps: slices.Clone(deps), Result: v})
	return v
}

// UseContext implements hooks.Host.
func (r *Recorder) UseContext(handle hooks.ContextHandle) any {
	v, ok := r.contexts[handle]
	if !ok {
		v = handle.DefaultValue()
	}
	r.Calls = append(r.Calls, Call{Hook: HookContext, Handle: handle, Result: v})
	return v
}

// UseEffect implements hooks.Host.
func (r *Recorder) UseEffect(body func() func(), deps []any) {
	r.Calls = append(r.Calls, Call{Hook: HookEffect, Deps: slices.Clone(deps)})
	r.effects = append(r.effects, pendingBody{body: body})
}

// UseLayoutEffect implements hooks.Host.
func (r *Recorder) UseLayoutEffect(body func() func(), deps []any) {
	r.Calls = append(r.Calls, Call{Hook: HookLayoutEffect, Deps: slices.Clone(deps)})
	r.effects = append(r.effects, pendingBody{layout: true, body: body})
}

// Count returns the number of recorded calls to hook.
func (r *Recorder) Count(hook string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Hook == hook {
			n++
		}
	}
	return n
}

// CallsTo returns the recorded calls to hook, in order.
func (r *Recorder) CallsTo(hook string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Hook == hook {
			out = append(out, c)
		}
	}
	return out
}

// Hooks returns the sequence of hook names called.
func (r *Recorder) Hooks() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Hook
	}
	return out
}

// RunEffects runs the collected effect bodies, layout effects first, and
// keeps their cleanups for Unmount.
func (r *Recorder) RunEffects() {
	pending := r.effects
	r.effects = nil
	for _, layout := range []bool{true, false} {
		for _, e := range pending {
			if e.layout != layout {
				continue
			}
			if cleanup := e.body(); cleanup != nil {
				r.cleanups = append(r.cleanups, cleanup)
			}
		}
	}
}

// Unmount runs the cleanups returned by RunEffects in the order they were
// collected.
func (r *Recorder) Unmount() {
	cleanups := r.cleanups
	r.cleanups = nil
	for _, c := range cleanups {
		c()
	}
}

// Reset forgets recorded calls and sets. Pending effects and cleanups are
// kept.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Sets = nil
}
