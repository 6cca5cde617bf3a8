package magic

import (
	"fmt"
	"reflect"
	"sync"

	"cogentcore.org/core/base/reflectx"

	"github.com/go-drift/magic/pkg/errors"
	"github.com/go-drift/magic/pkg/hooks"
)

// Category is the behavior an annotation gives a member.
type Category int

const (
	// CategoryState marks a State field: writes re-render every binding.
	CategoryState Category = iota
	// CategoryStateCollection marks a StateMap field: mutations re-render.
	CategoryStateCollection
	// CategoryMemo marks a Memo field: recomputed only when its deps change.
	CategoryMemo
	// CategoryEffect marks a method run after commit.
	CategoryEffect
	// CategoryLayoutEffect marks a method run after commit, before effects.
	CategoryLayoutEffect
	// CategoryContext marks a field assigned from an ambient context.
	CategoryContext
	// CategoryNestedMagic marks a pointer field holding another magic object.
	CategoryNestedMagic

	numCategories
)

// Categories lists every category in wiring order.
var Categories = []Category{
	CategoryNestedMagic,
	CategoryState,
	CategoryStateCollection,
	CategoryContext,
	CategoryMemo,
	CategoryEffect,
	CategoryLayoutEffect,
}

func (c Category) String() string {
	switch c {
	case CategoryState:
		return "state"
	case CategoryStateCollection:
		return "state-collection"
	case CategoryMemo:
		return "memo"
	case CategoryEffect:
		return "effect"
	case CategoryLayoutEffect:
		return "layout-effect"
	case CategoryContext:
		return "context"
	case CategoryNestedMagic:
		return "magic"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Deps decides when a memo or effect runs again. The zero value runs on
// every render.
type Deps struct {
	values []any
	fn     func(instance any) []any
}

// Always returns deps that rerun on every render.
func Always() Deps {
	return Deps{}
}

// Fixed returns a fixed dependency list. With no values the member runs on
// the first render only.
func Fixed(values ...any) Deps {
	if values == nil {
		values = []any{}
	}
	return Deps{values: values}
}

// DepsFunc returns deps computed from the instance on every render. A nil
// result reruns on every render. When the annotation is inherited, fn
// receives the embedded T of the derived instance.
func DepsFunc[T any](fn func(*T) []any) Deps {
	return Deps{fn: func(instance any) []any {
		if v, ok := instance.(*T); ok {
			return fn(v)
		}
		if v, ok := embedded[T](instance); ok {
			return fn(v)
		}
		return nil
	}}
}

// embedded finds the T embedded by value, at any depth, in the struct
// instance points to.
func embedded[T any](instance any) (*T, bool) {
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	want := reflect.TypeFor[T]()
	queue := []reflect.Value{rv.Elem()}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for i := range v.NumField() {
			sf := v.Type().Field(i)
			if !sf.Anonymous || sf.Type.Kind() != reflect.Struct {
				continue
			}
			if sf.Type == want {
				// Interface would panic for an unexported embedded type.
				return (*T)(v.Field(i).Addr().UnsafePointer()), true
			}
			queue = append(queue, v.Field(i))
		}
	}
	return nil, false
}

// Resolve returns the dependency list for instance, or nil for "every render".
func (d Deps) Resolve(instance any) []any {
	if d.fn != nil {
		return d.fn(instance)
	}
	return d.values
}

// IsFunc reports whether the deps are computed from the instance.
func (d Deps) IsFunc() bool {
	return d.fn != nil
}

// Annotation associates a category and its payload with a member.
type Annotation struct {
	Member   string
	Category Category
	// Deps applies to memos, effects and layout effects.
	Deps Deps
	// Context and Transform apply to context members.
	Context   hooks.ContextHandle
	Transform func(any) any
}

// IsState marks a State field.
func IsState(member string) Annotation {
	return Annotation{Member: member, Category: CategoryState}
}

// IsStateCollection marks a StateMap field.
func IsStateCollection(member string) Annotation {
	return Annotation{Member: member, Category: CategoryStateCollection}
}

// IsMemo marks a Memo field recomputed when deps change.
func IsMemo(member string, deps Deps) Annotation {
	return Annotation{Member: member, Category: CategoryMemo, Deps: deps}
}

// IsEffect marks a method of signature func() or func() func() to run after
// commit. A returned func is the cleanup.
func IsEffect(member string, deps Deps) Annotation {
	return Annotation{Member: member, Category: CategoryEffect, Deps: deps}
}

// IsLayoutEffect is IsEffect using the host's layout-effect primitive.
func IsLayoutEffect(member string, deps Deps) Annotation {
	return Annotation{Member: member, Category: CategoryLayoutEffect, Deps: deps}
}

// IsContext marks a field assigned from the nearest value of handle.
func IsContext(member string, handle hooks.ContextHandle) Annotation {
	return Annotation{Member: member, Category: CategoryContext, Context: handle}
}

// IsContextVia is IsContext with a transform applied to the ambient value.
func IsContextVia(member string, handle hooks.ContextHandle, transform func(any) any) Annotation {
	return Annotation{Member: member, Category: CategoryContext, Context: handle, Transform: transform}
}

// IsContextOf is IsContextVia with a typed transform. A nil or mistyped
// ambient value reaches transform as the zero T.
func IsContextOf[T, U any](member string, handle hooks.ContextHandle, transform func(T) U) Annotation {
	return IsContextVia(member, handle, func(v any) any {
		t, _ := v.(T)
		return transform(t)
	})
}

// IsMagic marks a pointer field holding a nested magic object.
func IsMagic(member string) Annotation {
	return Annotation{Member: member, Category: CategoryNestedMagic}
}

// ConflictPolicy decides what happens when one member of one type is
// annotated twice with the same category.
type ConflictPolicy int

const (
	// ConflictReject fails classification with a KindConflict error.
	ConflictReject ConflictPolicy = iota
	// ConflictLastWins keeps the last registration.
	ConflictLastWins
)

func (p ConflictPolicy) String() string {
	if p == ConflictLastWins {
		return "last-wins"
	}
	return "reject"
}

// ParseConflictPolicy parses "reject" or "last-wins".
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "", "reject":
		return ConflictReject, nil
	case "last-wins":
		return ConflictLastWins, nil
	}
	return ConflictReject, fmt.Errorf("unknown conflict policy %q (use reject or last-wins)", s)
}

// typeAnnotations holds every registration for one struct type, per member
// and category, in registration order.
type typeAnnotations map[string]*[numCategories][]Annotation

// Registry stores annotations per struct type. Registrations normally happen
// at package init; lookups happen when instances are first bound.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	policy   ConflictPolicy
	types    map[reflect.Type]typeAnnotations
	order    []reflect.Type
	lineages map[reflect.Type][]reflect.Type
}

// DefaultRegistry is the process-wide registry written by [Annotate].
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry with the ConflictReject policy.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[reflect.Type]typeAnnotations),
		lineages: make(map[reflect.Type][]reflect.Type),
	}
}

// SetConflictPolicy sets how duplicate same-category annotations resolve.
func (r *Registry) SetConflictPolicy(p ConflictPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = p
}

// ConflictPolicy returns the current policy.
func (r *Registry) ConflictPolicy() ConflictPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policy
}

// Annotate records a for the struct type typ (or the struct a pointer type
// points to). The member must be an exported field or a method of *typ.
func (r *Registry) Annotate(typ reflect.Type, a Annotation) error {
	typ = reflectx.NonPointerType(typ)
	if err := checkAnnotation(typ, a); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.types[typ]
	if !ok {
		members = make(typeAnnotations)
		r.types[typ] = members
		r.order = append(r.order, typ)
	}
	slots := members[a.Member]
	if slots == nil {
		slots = new([numCategories][]Annotation)
		members[a.Member] = slots
	}
	slots[a.Category] = append(slots[a.Category], a)
	return nil
}

func checkAnnotation(typ reflect.Type, a Annotation) error {
	fail := func(format string, args ...any) error {
		return &errors.MagicError{
			Op:     "magic.Annotate",
			Kind:   errors.KindConfig,
			Type:   typ.String(),
			Member: a.Member,
			Err:    fmt.Errorf(format, args...),
		}
	}
	if typ.Kind() != reflect.Struct {
		return fail("annotated type must be a struct, got %s", typ.Kind())
	}
	if a.Member == "" {
		return fail("empty member name")
	}
	if a.Category < 0 || a.Category >= numCategories {
		return fail("unknown category %d", int(a.Category))
	}
	if a.Category == CategoryContext && a.Context == nil {
		return fail("context annotation without a context handle")
	}

	switch a.Category {
	case CategoryEffect, CategoryLayoutEffect:
		if _, ok := reflect.PointerTo(typ).MethodByName(a.Member); !ok {
			return fail("no method %s on *%s", a.Member, typ.Name())
		}
	default:
		f, ok := typ.FieldByName(a.Member)
		if !ok {
			return fail("no field %s", a.Member)
		}
		if !f.IsExported() {
			return fail("field must be exported")
		}
	}
	return nil
}

// Lookup returns the annotation of category cat for member as seen from
// instance: the instance's own type first, then its embedded structs,
// shallowest first. Duplicate registrations at one type follow the
// registry's ConflictPolicy.
func (r *Registry) Lookup(cat Category, instance any, member string) (Annotation, bool, error) {
	t := reflect.TypeOf(instance)
	if t == nil {
		return Annotation{}, false, nil
	}
	return r.lookup(reflectx.NonPointerType(t), member, cat)
}

func (r *Registry) lookup(typ reflect.Type, member string, cat Category) (Annotation, bool, error) {
	lineage := r.lineage(typ)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range lineage {
		slots := r.types[t][member]
		if slots == nil || len(slots[cat]) == 0 {
			continue
		}
		found := slots[cat]
		if len(found) > 1 && r.policy == ConflictReject {
			return Annotation{}, false, &errors.MagicError{
				Op:     "magic.Lookup",
				Kind:   errors.KindConflict,
				Type:   t.String(),
				Member: member,
				Err:    fmt.Errorf("%s annotated %d times", cat, len(found)),
			}
		}
		return found[len(found)-1], true, nil
	}
	return Annotation{}, false, nil
}

// lineage returns typ followed by its embedded struct types, breadth first.
func (r *Registry) lineage(typ reflect.Type) []reflect.Type {
	r.mu.RLock()
	cached, ok := r.lineages[typ]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	var out []reflect.Type
	seen := map[reflect.Type]bool{}
	queue := []reflect.Type{typ}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Type != objectType {
				queue = append(queue, f.Type)
			}
		}
	}

	r.mu.Lock()
	r.lineages[typ] = out
	r.mu.Unlock()
	return out
}

// Types returns the annotated types in registration order.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reflect.Type(nil), r.order...)
}

// Annotate registers annotations for T in DefaultRegistry and returns T's
// type. It is meant for package-level var blocks and panics on invalid
// annotations:
//
//	var _ = magic.Annotate[Counter](
//	    magic.IsState("Count"),
//	    magic.IsEffect("Log", magic.DepsFunc(func(c *Counter) []any {
//	        return []any{c.Count.Get()}
//	    })),
//	)
func Annotate[T any](annotations ...Annotation) reflect.Type {
	typ := reflect.TypeFor[T]()
	for _, a := range annotations {
		if err := DefaultRegistry.Annotate(typ, a); err != nil {
			panic(err)
		}
	}
	return typ
}
