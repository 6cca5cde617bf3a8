package magic

import (
	"fmt"
	"reflect"

	"github.com/go-drift/magic/pkg/errors"
)

// Initializer is implemented by magic structs that need setup after
// zero-value construction, typically to build their memos.
type Initializer interface {
	Init()
}

type sourceKind int

const (
	sourceClass sourceKind = iota
	sourceInstance
	sourceFactory
)

// Source names what a binding binds: a type constructed once per call site,
// a shared existing instance, or a keyed factory.
type Source[T any] struct {
	kind    sourceKind
	key     any
	ctor    func() *T
	factory func() (*T, error)
	inst    *T
}

// Class binds a fresh *T owned by the call site. The identity key is T's
// type, so the instance lives as long as the component. When ctor is nil
// the instance is new(T) followed by Init if *T implements [Initializer].
func Class[T any](ctor func() *T) Source[T] {
	return Source[T]{kind: sourceClass, key: reflect.TypeFor[T](), ctor: ctor}
}

// Instance binds an existing instance, possibly shared with other call
// sites. The identity key is the pointer, so binding a different pointer
// disposes the previous binding.
func Instance[T any](v *T) Source[T] {
	return Source[T]{kind: sourceInstance, key: v, inst: v}
}

// Factory binds the result of fn. fn runs again whenever key changes.
func Factory[T any](key any, fn func() (*T, error)) Source[T] {
	return Source[T]{kind: sourceFactory, key: key, factory: fn}
}

// Key returns the identity key of the source.
func (s Source[T]) Key() any {
	return s.key
}

func (s Source[T]) construct() (v *T, err error) {
	op := "magic.Class"
	switch s.kind {
	case sourceInstance:
		op = "magic.Instance"
	case sourceFactory:
		op = "magic.Factory"
	}

	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &errors.MagicError{
				Op:   op,
				Kind: errors.KindInstantiate,
				Type: reflect.TypeFor[T]().String(),
				Err:  fmt.Errorf("constructor panicked: %v", r),
			}
		}
	}()

	switch s.kind {
	case sourceInstance:
		v = s.inst
	case sourceFactory:
		if s.factory == nil {
			err = fmt.Errorf("nil factory")
			break
		}
		v, err = s.factory()
	default:
		if s.ctor != nil {
			v = s.ctor()
			break
		}
		v = new(T)
		if init, ok := any(v).(Initializer); ok {
			init.Init()
		}
	}

	if err == nil && v == nil {
		err = fmt.Errorf("no instance")
	}
	if err != nil {
		return nil, &errors.MagicError{
			Op:   op,
			Kind: errors.KindInstantiate,
			Type: reflect.TypeFor[T]().String(),
			Err:  err,
		}
	}
	return v, nil
}

func (s Source[T]) target() target {
	return target{
		key: s.key,
		construct: func() (any, error) {
			v, err := s.construct()
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}
