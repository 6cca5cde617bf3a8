package magic

import (
	"fmt"
	"reflect"

	"cogentcore.org/core/base/keylist"
	"cogentcore.org/core/base/reflectx"

	"github.com/go-drift/magic/pkg/errors"
)

// Member is one visible field or method of a magic struct together with
// its resolved annotations.
type Member struct {
	Name string
	// Owner is the struct type declaring a field. Methods report the
	// instance type.
	Owner reflect.Type
	// Depth is 0 for the instance's own fields and grows by one per level
	// of embedding.
	Depth int
	// Index is the field index path for reflect.Value.FieldByIndex.
	Index  []int
	Method bool

	annotations [numCategories]*Annotation
}

// Has reports whether the member carries an annotation of category cat.
func (m *Member) Has(cat Category) bool {
	return m.annotations[cat] != nil
}

// Annotation returns the member's annotation of category cat.
func (m *Member) Annotation(cat Category) (Annotation, bool) {
	if a := m.annotations[cat]; a != nil {
		return *a, true
	}
	return Annotation{}, false
}

// Categories returns the member's annotation categories in declaration order.
func (m *Member) Categories() []Category {
	var out []Category
	for c := Category(0); c < numCategories; c++ {
		if m.annotations[c] != nil {
			out = append(out, c)
		}
	}
	return out
}

// Members is the classified member set of a magic struct type.
type Members struct {
	Type reflect.Type
	list keylist.List[string, *Member]
}

// Len returns the number of visible members.
func (ms *Members) Len() int {
	return ms.list.Len()
}

// All returns the members in discovery order.
func (ms *Members) All() []*Member {
	return ms.list.Values
}

// Get returns the member named name, or nil.
func (ms *Members) Get(name string) *Member {
	return ms.list.At(name)
}

// ByCategory returns the members annotated with cat, in discovery order.
func (ms *Members) ByCategory(cat Category) []*Member {
	var out []*Member
	for _, m := range ms.list.Values {
		if m.Has(cat) {
			out = append(out, m)
		}
	}
	return out
}

type walkItem struct {
	typ   reflect.Type
	index []int
	depth int
}

// Discover enumerates the visible members of instance, which must be a
// pointer to a struct embedding [Object], and classifies each against reg.
//
// Fields are visited breadth first: the instance's own fields, then those of
// each embedded struct, shallowest first. The first member seen under a name
// wins, so an outer field hides an embedded one. Unexported fields are
// skipped. Exported methods of the pointer type follow the fields.
func Discover(reg *Registry, instance any) (*Members, error) {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, &errors.MagicError{
			Op:   "magic.Discover",
			Kind: errors.KindConfig,
			Type: fmt.Sprintf("%T", instance),
			Err:  fmt.Errorf("%w: want a non-nil pointer to a struct", errors.ErrNotMagic),
		}
	}
	if _, ok := objectOf(instance); !ok {
		return nil, &errors.MagicError{
			Op:   "magic.Discover",
			Kind: errors.KindConfig,
			Type: v.Type().String(),
			Err:  fmt.Errorf("%w: struct does not embed magic.Object", errors.ErrNotMagic),
		}
	}

	typ := reflectx.NonPointerType(v.Type())
	ms := &Members{Type: typ}

	queue := []walkItem{{typ: typ}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		for i := 0; i < item.typ.NumField(); i++ {
			f := item.typ.Field(i)
			index := append(append([]int(nil), item.index...), i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				if f.Type != objectType {
					queue = append(queue, walkItem{typ: f.Type, index: index, depth: item.depth + 1})
				}
				continue
			}
			if !f.IsExported() {
				continue
			}
			if _, seen := ms.list.AtTry(f.Name); seen {
				continue
			}
			ms.list.Set(f.Name, &Member{Name: f.Name, Owner: item.typ, Depth: item.depth, Index: index})
		}
	}

	pt := v.Type()
	for i := 0; i < pt.NumMethod(); i++ {
		meth := pt.Method(i)
		if _, seen := ms.list.AtTry(meth.Name); seen || isObjectMethod(meth.Name) {
			continue
		}
		ms.list.Set(meth.Name, &Member{Name: meth.Name, Owner: typ, Method: true})
	}

	for _, m := range ms.list.Values {
		for c := Category(0); c < numCategories; c++ {
			a, ok, err := reg.lookup(typ, m.Name, c)
			if err != nil {
				return nil, err
			}
			if ok {
				m.annotations[c] = &a
			}
		}
		if err := validate(v, m); err != nil {
			return nil, err
		}
	}
	return ms, nil
}

var objectMethods = func() map[string]bool {
	out := map[string]bool{}
	pt := reflect.PointerTo(objectType)
	for i := 0; i < pt.NumMethod(); i++ {
		out[pt.Method(i).Name] = true
	}
	return out
}()

func isObjectMethod(name string) bool {
	return objectMethods[name]
}

var (
	stateFieldType      = reflect.TypeFor[stateField]()
	memoFieldType       = reflect.TypeFor[memoField]()
	collectionFieldType = reflect.TypeFor[collectionField]()
)

// validate checks that each annotation fits the member it names.
func validate(instance reflect.Value, m *Member) error {
	fail := func(cat Category, format string, args ...any) error {
		return &errors.MagicError{
			Op:     "magic.Discover",
			Kind:   errors.KindConfig,
			Type:   instance.Type().Elem().String(),
			Member: m.Name,
			Err:    fmt.Errorf("%s: %s", cat, fmt.Sprintf(format, args...)),
		}
	}

	for _, cat := range m.Categories() {
		if m.Method != (cat == CategoryEffect || cat == CategoryLayoutEffect) {
			if m.Method {
				return fail(cat, "annotation needs a field, found a method")
			}
			return fail(cat, "annotation needs a method, found a field")
		}

		if m.Method {
			mt := instance.MethodByName(m.Name).Type()
			if !isEffectSignature(mt) {
				return fail(cat, "method must be func() or func() func(), got %s", mt)
			}
			continue
		}

		field := instance.Elem().FieldByIndex(m.Index)
		ft := field.Type()
		switch cat {
		case CategoryState:
			if !reflect.PointerTo(ft).Implements(stateFieldType) {
				return fail(cat, "field must be a magic.State, got %s", ft)
			}
		case CategoryStateCollection:
			if !reflect.PointerTo(ft).Implements(collectionFieldType) {
				return fail(cat, "field must be a magic.StateMap, got %s", ft)
			}
		case CategoryMemo:
			if !reflect.PointerTo(ft).Implements(memoFieldType) {
				return fail(cat, "field must be a magic.Memo, got %s", ft)
			}
			if !field.Addr().Interface().(memoField).hasCompute() {
				return fail(cat, "memo has no compute function; build it with magic.MemoOf")
			}
		case CategoryNestedMagic:
			if ft.Kind() != reflect.Pointer || !ft.Implements(reflect.TypeFor[objecter]()) {
				return fail(cat, "field must be a pointer to a magic struct, got %s", ft)
			}
		case CategoryContext:
			if !field.CanSet() {
				return fail(cat, "field is not settable")
			}
		}
	}
	return nil
}

var funcType = reflect.TypeFor[func()]()

func isEffectSignature(t reflect.Type) bool {
	if t.Kind() != reflect.Func || t.NumIn() != 0 {
		return false
	}
	switch t.NumOut() {
	case 0:
		return true
	case 1:
		return t.Out(0) == funcType
	}
	return false
}
