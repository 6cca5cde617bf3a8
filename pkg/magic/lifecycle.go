package magic

import (
	"github.com/go-drift/magic/pkg/errors"
	"github.com/go-drift/magic/pkg/hooks"
)

// Lifecycle keeps one value per identity key. Asking for a different key
// disposes the current value before creating the next.
type Lifecycle struct {
	key       any
	value     any
	live      bool
	disposers []func()
}

// GetOrCreate returns the live value when key matches the current key (see
// [hooks.Same]); otherwise it disposes the current value and calls create.
// created reports whether create ran successfully.
func (l *Lifecycle) GetOrCreate(key any, create func() (any, error)) (value any, created bool, err error) {
	if l.live && hooks.Same(l.key, key) {
		return l.value, false, nil
	}
	l.Dispose()
	v, err := create()
	if err != nil {
		return nil, false, err
	}
	l.key, l.value, l.live = key, v, true
	return v, true, nil
}

// OnDispose registers fn to run when the current value is disposed.
// Disposers run in reverse registration order.
func (l *Lifecycle) OnDispose(fn func()) {
	if fn != nil {
		l.disposers = append(l.disposers, fn)
	}
}

// Dispose runs the registered disposers and forgets the current value. A
// panicking disposer is reported and does not stop the others.
func (l *Lifecycle) Dispose() {
	disposers := l.disposers
	l.disposers = nil
	for i := len(disposers) - 1; i >= 0; i-- {
		func() {
			defer errors.Recover("magic.Lifecycle.Dispose")
			disposers[i]()
		}()
	}
	l.key, l.value, l.live = nil, nil, false
}

// Live reports whether the lifecycle holds a value.
func (l *Lifecycle) Live() bool {
	return l.live
}

// Key returns the identity key of the current value.
func (l *Lifecycle) Key() any {
	return l.key
}
