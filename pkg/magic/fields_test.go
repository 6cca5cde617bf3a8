package magic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnboundFieldsActAsPlainValues(t *testing.T) {
	s := StateOf(3)
	s.Set(4)
	s.Update(func(v int) int { return v + 1 })
	assert.Equal(t, 5, s.Get())

	calls := 0
	m := MemoOf(func() int { calls++; return calls })
	assert.Equal(t, 1, m.Get())
	assert.Equal(t, 2, m.Get(), "an unbound memo computes on every call")

	var empty Memo[string]
	assert.Equal(t, "", empty.Get())

	sm := MapOf(map[string]int{"a": 1})
	sm.Set("b", 2)
	sm.Delete("a")
	v, ok := sm.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, sm.Len())
}

func TestMapOfCopiesInput(t *testing.T) {
	src := map[string]int{"a": 1}
	sm := MapOf(src)
	src["b"] = 2
	assert.Equal(t, 1, sm.Len())

	var zero StateMap[int, string]
	zero.Set(1, "one")
	assert.Equal(t, 1, zero.Len())
}

func TestStateMapRangeStops(t *testing.T) {
	sm := MapOf(map[int]int{1: 1, 2: 2, 3: 3})
	seen := 0
	sm.Range(func(k, v int) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)
}

func TestMemoComputesOncePerPhase(t *testing.T) {
	c := newCounter()
	o := &c.Object
	c.Count.installState(o, "Count")
	c.Double.installMemo(o, "Double")

	o.enterMemo()
	c.Count.Set(2)
	assert.Equal(t, 4, c.Double.refresh())
	assert.Equal(t, 4, c.Double.Get())
	assert.Equal(t, 1, c.computes, "reads after the armed read use the cache")
	o.leaveMemo()

	c.Count.Set(3)
	assert.Equal(t, 4, c.Double.Get(), "outside the phase the memo is not recomputed")

	o.enterMemo()
	assert.Equal(t, 4, c.Double.Get(), "an unarmed memo keeps its value")
	o.leaveMemo()
	assert.Equal(t, 1, c.computes)
}

func TestSnapshotOfNonMagicValue(t *testing.T) {
	assert.Nil(t, Snapshot(42))
	assert.Nil(t, Snapshot((*counter)(nil)))
}
