package magic

import (
	"maps"
	"reflect"
	"slices"

	"cogentcore.org/core/base/keylist"
)

var objectType = reflect.TypeFor[Object]()

// Object is embedded by every magic struct. It holds the per-instance store
// that bound fields read and write, and the sinks through which writes reach
// each binding's host state cells.
//
// Example:
//
//	type Counter struct {
//	    magic.Object
//	    Count magic.State[int]
//	}
type Object struct {
	store keylist.List[string, any]
	sinks []*sink

	// memo phase token; see Memo.Get
	token  uint64
	inMemo bool

	members   *Members
	installed bool
}

// objecter is satisfied by any struct embedding Object.
type objecter interface {
	magicObject() *Object
}

func (o *Object) magicObject() *Object { return o }

// sink forwards store writes to one binding's host state cells.
type sink struct {
	id          string
	setters     map[string]func(any)
	collections map[string]func(any)
}

func newSink(id string) *sink {
	return &sink{
		id:          id,
		setters:     make(map[string]func(any)),
		collections: make(map[string]func(any)),
	}
}

// objectOf returns the Object embedded (by value) in the struct v points to.
func objectOf(v any) (*Object, bool) {
	o, ok := v.(objecter)
	if !ok {
		return nil, false
	}
	if rv := reflect.ValueOf(v); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}
	obj := o.magicObject()
	return obj, obj != nil
}

func (o *Object) attach(s *sink) {
	o.sinks = append(o.sinks, s)
}

func (o *Object) detach(s *sink) {
	o.sinks = slices.DeleteFunc(o.sinks, func(x *sink) bool { return x == s })
}

// write stores v and notifies every attached binding.
func (o *Object) write(key string, v any) {
	o.store.Set(key, v)
	for _, s := range slices.Clone(o.sinks) {
		if set := s.setters[key]; set != nil {
			set(v)
		}
	}
}

// touch notifies bindings that the collection at key changed.
func (o *Object) touch(key string, version int) {
	for _, s := range slices.Clone(o.sinks) {
		if set := s.collections[key]; set != nil {
			set(version)
		}
	}
}

func (o *Object) enterMemo() {
	o.token++
	o.inMemo = true
}

func (o *Object) leaveMemo() {
	o.inMemo = false
}

// Bindings returns the number of live bindings of the object.
func (o *Object) Bindings() int {
	return len(o.sinks)
}

// Snapshot returns a copy of the store of a magic object: the current value
// of every state, memo, collection and nested member, keyed by member name.
// It returns nil when v is not a magic object.
func Snapshot(v any) map[string]any {
	o, ok := objectOf(v)
	if !ok {
		return nil
	}
	out := make(map[string]any, o.store.Len())
	for i, k := range o.store.Keys {
		val := o.store.Values[i]
		if m, ok := val.(interface{ snapshot() any }); ok {
			val = m.snapshot()
		}
		out[k] = val
	}
	return out
}

// cloneMap copies a collection for snapshots.
func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return maps.Clone(m)
}
