package testing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/go-drift/magic/pkg/hooks"
)

func TestRecorderRecordsCalls(t *testing.T) {
	theme := hooks.NewContext("light")
	user := hooks.NewContext(nil)
	rec := NewRecorder().Provide(user, "ada")

	v, set := rec.UseState(1)
	memo := rec.UseMemo(func() any { return 2 }, []any{"dep"})
	got := rec.UseContext(user)
	fallback := rec.UseContext(theme)
	rec.UseEffect(func() func() { return nil }, nil)
	rec.UseLayoutEffect(func() func() { return nil }, []any{})
	set(5)

	assert.Equal(t, 1, v)
	assert.Equal(t, 2, memo)
	assert.Equal(t, "ada", got)
	assert.Equal(t, "light", fallback)
	assert.Equal(t, []any{5}, rec.Sets)
	assert.Equal(t, []string{HookState, HookMemo, HookContext, HookContext, HookEffect, HookLayoutEffect}, rec.Hooks())
	assert.Equal(t, 2, rec.Count(HookContext))
	assert.Equal(t, []any{"dep"}, rec.CallsTo(HookMemo)[0].Deps)
	assert.Nil(t, rec.CallsTo(HookEffect)[0].Deps)
	assert.Equal(t, []any{}, rec.CallsTo(HookLayoutEffect)[0].Deps)
}

func TestRecorderRunsLayoutEffectsFirst(t *testing.T) {
	rec := NewRecorder()
	var log []string
	rec.UseEffect(func() func() {
		log = append(log, "effect")
		return func() { log = append(log, "effect cleanup") }
	}, nil)
	rec.UseLayoutEffect(func() func() {
		log = append(log, "layout")
		return func() { log = append(log, "layout cleanup") }
	}, nil)

	rec.RunEffects()
	rec.Unmount()

	want := []string{"layout", "effect", "layout cleanup", "effect cleanup"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("effect log mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorderReset(t *testing.T) {
	rec := NewRecorder()
	_, set := rec.UseState(0)
	set(1)
	rec.Reset()
	assert.Empty(t, rec.Calls)
	assert.Empty(t, rec.Sets)
}
