package magic

import "github.com/go-drift/magic/pkg/hooks"

// State is a reactive field. Before its object is bound it behaves like a
// plain value; once bound, Get reads the object's store and Set writes the
// store and re-renders every binding of the object.
type State[T any] struct {
	obj   *Object
	key   string
	value T
}

// StateOf returns a State holding initial.
func StateOf[T any](initial T) State[T] {
	return State[T]{value: initial}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	if s.obj == nil {
		return s.value
	}
	v, _ := s.obj.store.At(s.key).(T)
	return v
}

// Set replaces the value. The write is visible to Get immediately.
func (s *State[T]) Set(v T) {
	if s.obj == nil {
		s.value = v
		return
	}
	s.obj.write(s.key, v)
}

// Update sets the value to fn(current).
func (s *State[T]) Update(fn func(T) T) {
	s.Set(fn(s.Get()))
}

type stateField interface {
	installState(o *Object, key string)
}

func (s *State[T]) installState(o *Object, key string) {
	if _, ok := o.store.AtTry(key); !ok {
		o.store.Set(key, s.value)
	}
	s.obj, s.key = o, key
}

// Memo is a derived field. Its compute function runs during the binding's
// memo phase, and only when the member's dependencies changed. Outside that
// window Get returns the cached result.
//
// A memo read by another memo earlier in the same phase computes on that
// first read, so memos may depend on each other in any declaration order.
type Memo[T any] struct {
	obj     *Object
	key     string
	compute func() T

	// deps resolves the member's dependencies; last holds them as of the
	// last compute.
	deps     func() []any
	last     []any
	computed bool

	armed uint64
	done  uint64
}

// MemoOf returns a Memo computed by compute. compute usually closes over the
// owning instance, so memos are created in constructors:
//
//	func NewFilter() *Filter {
//	    f := &Filter{}
//	    f.Visible = magic.MemoOf(func() []Post { return f.apply() })
//	    return f
//	}
func MemoOf[T any](compute func() T) Memo[T] {
	return Memo[T]{compute: compute}
}

// Get returns the memo's value. An unbound memo computes on every call.
func (m *Memo[T]) Get() T {
	if m.obj == nil {
		if m.compute == nil {
			var zero T
			return zero
		}
		return m.compute()
	}
	o := m.obj
	if o.inMemo && m.done != o.token && (m.armed == o.token || m.stale()) {
		m.done = o.token
		if m.deps != nil {
			m.last = m.deps()
		}
		m.computed = true
		v := m.compute()
		o.store.Set(m.key, v)
		return v
	}
	v, _ := o.store.At(m.key).(T)
	return v
}

// stale reports whether the dependencies changed since the last compute.
func (m *Memo[T]) stale() bool {
	if m.deps == nil {
		return false
	}
	return !m.computed || hooks.DepsChanged(m.last, m.deps())
}

type memoField interface {
	installMemo(o *Object, key string)
	track(deps func() []any)
	hasCompute() bool
	refresh() any
}

func (m *Memo[T]) installMemo(o *Object, key string) {
	m.obj, m.key = o, key
}

func (m *Memo[T]) track(deps func() []any) {
	m.deps = deps
}

func (m *Memo[T]) hasCompute() bool {
	return m.compute != nil
}

// refresh arms the memo for the current phase and evaluates it.
func (m *Memo[T]) refresh() any {
	m.armed = m.obj.token
	return m.Get()
}

// StateMap is a reactive keyed collection. Every mutation re-renders the
// bindings of its object.
type StateMap[K comparable, V any] struct {
	obj     *Object
	key     string
	items   map[K]V
	version int
}

// MapOf returns a StateMap holding a copy of items.
func MapOf[K comparable, V any](items map[K]V) StateMap[K, V] {
	return StateMap[K, V]{items: cloneMap(items)}
}

// Get returns the value stored under k.
func (m *StateMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.items[k]
	return v, ok
}

// Len returns the number of entries.
func (m *StateMap[K, V]) Len() int {
	return len(m.items)
}

// Range calls fn for each entry until fn returns false. Iteration order is
// unspecified.
func (m *StateMap[K, V]) Range(fn func(K, V) bool) {
	for k, v := range m.items {
		if !fn(k, v) {
			return
		}
	}
}

// Set stores v under k.
func (m *StateMap[K, V]) Set(k K, v V) {
	if m.items == nil {
		m.items = make(map[K]V)
	}
	m.items[k] = v
	m.changed()
}

// Delete removes k. Deleting a missing key does not notify.
func (m *StateMap[K, V]) Delete(k K) {
	if _, ok := m.items[k]; !ok {
		return
	}
	delete(m.items, k)
	m.changed()
}

// Replace swaps the whole content for a copy of items.
func (m *StateMap[K, V]) Replace(items map[K]V) {
	m.items = cloneMap(items)
	m.changed()
}

func (m *StateMap[K, V]) changed() {
	m.version++
	if m.obj != nil {
		m.obj.touch(m.key, m.version)
	}
}

func (m *StateMap[K, V]) snapshot() any {
	return cloneMap(m.items)
}

type collectionField interface {
	installCollection(o *Object, key string)
	currentVersion() int
}

func (m *StateMap[K, V]) installCollection(o *Object, key string) {
	if m.items == nil {
		m.items = make(map[K]V)
	}
	m.obj, m.key = o, key
	o.store.Set(key, m)
}

func (m *StateMap[K, V]) currentVersion() int {
	return m.version
}
