package hooks

import "reflect"

// Host is the primitive hook contract a render environment supplies.
// Implementations must be called in the same order on every render of the
// same call site.
type Host interface {
	// UseState returns the current value of a state cell, initialized to
	// initial on first use, and a setter that stores a new value and
	// schedules a re-render.
	UseState(initial any) (any, func(any))
	// UseMemo returns compute() from the first render, recomputing only when
	// deps changed. Nil deps recompute on every render.
	UseMemo(compute func() any, deps []any) any
	// UseContext returns the nearest value provided for handle above the
	// call site, or the handle's default value.
	UseContext(handle ContextHandle) any
	// UseEffect schedules body to run after the render commits, under the
	// same change rule as UseMemo. A non-nil return from body is kept as the
	// cleanup and runs before the next body and on teardown.
	UseEffect(body func() func(), deps []any)
	// UseLayoutEffect is UseEffect, but all layout effects of a commit run
	// before any effects.
	UseLayoutEffect(body func() func(), deps []any)
}

// ContextHandle identifies an ambient value source.
type ContextHandle interface {
	// DefaultValue is returned when no provider is found.
	DefaultValue() any
}

// Same reports whether a and b are the same value for dependency
// comparison: == for comparable values, pointer and length identity for
// slices, pointer identity for maps and funcs.
func Same(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		// Structs holding uncomparable interface values panic on ==.
		defer func() {
			if recover() != nil {
				same = false
			}
		}()
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return false
}

// DepsChanged reports whether a hook with previous deps prev must run again
// for next. Nil next always changes.
func DepsChanged(prev, next []any) bool {
	if next == nil || prev == nil {
		return true
	}
	if len(prev) != len(next) {
		return true
	}
	for i := range next {
		if !Same(prev[i], next[i]) {
			return true
		}
	}
	return false
}
