package magic

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/go-drift/magic/pkg/errors"
	"github.com/go-drift/magic/pkg/hooks"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger for binding lifecycle events. Pass nil to use
// slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Phase is the step a binding is in.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseClassifying
	PhaseInstalling
	PhaseMemo
	PhaseEffect
	PhaseIdle
	PhaseDisposing
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseClassifying:
		return "classifying"
	case PhaseInstalling:
		return "installing"
	case PhaseMemo:
		return "memo"
	case PhaseEffect:
		return "effect"
	case PhaseIdle:
		return "idle"
	case PhaseDisposing:
		return "disposing"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Binding is the per-call-site state that connects one magic object to one
// component's hooks.
type Binding struct {
	id        string
	phase     Phase
	lifecycle Lifecycle
	obj       *Object
	sink      *sink
	members   *Members
	bound     bool
}

// ID returns the binding's unique id.
func (b *Binding) ID() string { return b.id }

// Phase returns the current phase.
func (b *Binding) Phase() Phase { return b.phase }

type target struct {
	key       any
	construct func() (any, error)
}

// Use binds src to the component rendering with h and returns the instance.
// It must be called unconditionally on every render, like any hook. The
// instance is created on the first render and kept until the component
// unmounts or the source's identity key changes.
//
// Use panics with a *errors.MagicError when the source cannot be built or
// its annotations do not fit its type; see [Bind] for the error-returning
// form.
//
//	func CounterView(h *hooks.Hooks) []hooks.Node {
//	    c := magic.Use(h, magic.Class(NewCounter))
//	    ...
//	}
func Use[T any](h hooks.Host, src Source[T]) *T {
	v, err := Bind(h, src)
	if err != nil {
		panic(err)
	}
	return v
}

// Bind is Use returning errors instead of panicking.
func Bind[T any](h hooks.Host, src Source[T]) (*T, error) {
	return BindWith(h, DefaultRegistry, src)
}

// BindWith is Bind against an explicit registry.
func BindWith[T any](h hooks.Host, reg *Registry, src Source[T]) (*T, error) {
	v, err := bind(h, reg, src.target())
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// bind issues the binding's hook calls. The number and order of calls
// depends only on the instance type, so it is stable across renders.
func bind(h hooks.Host, reg *Registry, tgt target) (any, error) {
	b := h.UseMemo(func() any {
		return &Binding{id: uuid.NewString()}
	}, []any{}).(*Binding)
	h.UseEffect(func() func() { return b.teardown }, []any{})

	instance, created, err := b.lifecycle.GetOrCreate(tgt.key, func() (any, error) {
		return b.create(reg, tgt)
	})
	if err != nil {
		return nil, err
	}
	// after an identity change the cells still hold the previous instance's
	// values and versions
	resync := created && b.bound
	b.bound = true
	o, ms := b.obj, b.members
	pv := reflect.ValueOf(instance)
	rv := pv.Elem()
	key := tgt.key

	for _, m := range ms.ByCategory(CategoryNestedMagic) {
		field := rv.FieldByIndex(m.Index)
		if field.IsNil() {
			nv := reflect.New(field.Type().Elem())
			if init, ok := nv.Interface().(Initializer); ok {
				init.Init()
			}
			field.Set(nv)
		}
		child := field.Interface()
		nested, err := bind(h, reg, target{key: child, construct: func() (any, error) { return child, nil }})
		if err != nil {
			return nil, err
		}
		name := m.Name
		h.UseMemo(func() any {
			o.store.Set(name, nested)
			return nested
		}, []any{nested})
	}

	for _, m := range ms.ByCategory(CategoryState) {
		_, set := h.UseState(o.store.At(m.Name))
		if resync {
			set(o.store.At(m.Name))
		}
		if b.sink != nil {
			b.sink.setters[m.Name] = set
		}
	}

	for _, m := range ms.ByCategory(CategoryStateCollection) {
		cf := rv.FieldByIndex(m.Index).Addr().Interface().(collectionField)
		_, set := h.UseState(cf.currentVersion())
		if resync {
			set(cf.currentVersion())
		}
		if b.sink != nil {
			b.sink.collections[m.Name] = set
		}
	}

	for _, m := range ms.ByCategory(CategoryContext) {
		a, _ := m.Annotation(CategoryContext)
		raw := h.UseContext(a.Context)
		val := h.UseMemo(func() any {
			if a.Transform != nil {
				return a.Transform(raw)
			}
			return raw
		}, []any{raw})
		if err := assign(rv.FieldByIndex(m.Index), val); err != nil {
			return nil, &errors.MagicError{
				Op:     "magic.Bind",
				Kind:   errors.KindConfig,
				Type:   ms.Type.String(),
				Member: m.Name,
				Err:    err,
			}
		}
	}

	h.UseMemo(func() any {
		b.phase = PhaseMemo
		o.enterMemo()
		return nil
	}, nil)
	memos := ms.ByCategory(CategoryMemo)
	refresh := make([]func() any, len(memos))
	deps := make([]func() []any, len(memos))
	// every memo resolves its deps before any computes, so one may read
	// another declared after it
	for i, m := range memos {
		a, _ := m.Annotation(CategoryMemo)
		mf := rv.FieldByIndex(m.Index).Addr().Interface().(memoField)
		deps[i] = func() []any { return withKey(a.Deps.Resolve(instance), key) }
		mf.track(deps[i])
		refresh[i] = mf.refresh
	}
	for i := range memos {
		h.UseMemo(refresh[i], deps[i]())
	}
	h.UseMemo(func() any {
		o.leaveMemo()
		b.phase = PhaseIdle
		return nil
	}, nil)

	h.UseEffect(func() func() {
		b.phase = PhaseEffect
		return nil
	}, nil)
	for _, m := range ms.ByCategory(CategoryEffect) {
		a, _ := m.Annotation(CategoryEffect)
		h.UseEffect(effectBody(pv, m.Name), withKey(a.Deps.Resolve(instance), key))
	}
	for _, m := range ms.ByCategory(CategoryLayoutEffect) {
		a, _ := m.Annotation(CategoryLayoutEffect)
		h.UseLayoutEffect(effectBody(pv, m.Name), withKey(a.Deps.Resolve(instance), key))
	}
	h.UseEffect(func() func() {
		b.phase = PhaseIdle
		return nil
	}, nil)

	return instance, nil
}

// create builds, classifies and installs the instance for tgt and attaches
// this binding's sink to it.
func (b *Binding) create(reg *Registry, tgt target) (any, error) {
	b.phase = PhaseInitializing
	instance, err := tgt.construct()
	if err != nil {
		return nil, err
	}
	o, ok := objectOf(instance)
	if !ok {
		return nil, &errors.MagicError{
			Op:   "magic.Bind",
			Kind: errors.KindConfig,
			Type: fmt.Sprintf("%T", instance),
			Err:  errors.ErrNotMagic,
		}
	}

	b.phase = PhaseClassifying
	if o.members == nil {
		ms, err := Discover(reg, instance)
		if err != nil {
			return nil, err
		}
		o.members = ms
	}

	b.phase = PhaseInstalling
	if !o.installed {
		install(reflect.ValueOf(instance), o)
		o.installed = true
	}

	s := newSink(b.id)
	o.attach(s)
	b.obj, b.sink, b.members = o, s, o.members
	typeName := o.members.Type.String()
	log().Debug("magic binding created", "binding", b.id, "type", typeName, "bindings", o.Bindings())

	b.lifecycle.OnDispose(func() {
		b.phase = PhaseDisposing
		o.detach(s)
		b.obj, b.sink, b.members = nil, nil, nil
		log().Debug("magic binding disposed", "binding", b.id, "type", typeName, "bindings", o.Bindings())
	})
	return instance, nil
}

func (b *Binding) teardown() {
	b.lifecycle.Dispose()
}

// install points the instance's reactive fields at the object's store.
func install(pv reflect.Value, o *Object) {
	rv := pv.Elem()
	for _, m := range o.members.All() {
		if m.Method {
			continue
		}
		field := rv.FieldByIndex(m.Index)
		switch {
		case m.Has(CategoryState):
			field.Addr().Interface().(stateField).installState(o, m.Name)
		case m.Has(CategoryStateCollection):
			field.Addr().Interface().(collectionField).installCollection(o, m.Name)
		case m.Has(CategoryMemo):
			field.Addr().Interface().(memoField).installMemo(o, m.Name)
		}
	}
}

func withKey(deps []any, key any) []any {
	if deps == nil {
		return nil
	}
	return append(slices.Clone(deps), key)
}

func effectBody(pv reflect.Value, name string) func() func() {
	switch fn := pv.MethodByName(name).Interface().(type) {
	case func():
		return func() func() {
			fn()
			return nil
		}
	case func() func():
		return fn
	}
	return func() func() { return nil }
}

// assign sets a context field, using the zero value for nil.
func assign(field reflect.Value, val any) error {
	if val == nil {
		field.SetZero()
		return nil
	}
	v := reflect.ValueOf(val)
	if !v.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("context value of type %s is not assignable to %s", v.Type(), field.Type())
	}
	field.Set(v)
	return nil
}
