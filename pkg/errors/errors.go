// Package errors provides structured error handling for magic objects and
// the hooks runtime that hosts them.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates an invalid annotation or member declaration.
	KindConfig
	// KindConflict indicates the same category was annotated twice on one member.
	KindConflict
	// KindInstantiate indicates a magic object could not be constructed.
	KindInstantiate
	// KindHookOrder indicates hooks were called in a different order or
	// number than on the previous render of the same component.
	KindHookOrder
	// KindRender indicates a failure while rendering or committing effects.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindFetch indicates a failed data request.
	KindFetch
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConflict:
		return "conflict"
	case KindInstantiate:
		return "instantiate"
	case KindHookOrder:
		return "hook-order"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	case KindFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

var (
	// ErrUnsettled is returned when a flush keeps scheduling renders past its
	// pass limit.
	ErrUnsettled = errors.New("render did not settle")
	// ErrNotMagic is returned when a bound value does not embed magic.Object.
	ErrNotMagic = errors.New("type does not embed magic.Object")
)

// MagicError represents a structured error raised by the binding engine or
// the hooks runtime.
type MagicError struct {
	// Op is the operation that failed (e.g., "magic.Discover").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Type is the Go type involved, if any.
	Type string
	// Member is the annotated member involved, if any.
	Member string
	// Err is the underlying error.
	Err error
}

func (e *MagicError) Error() string {
	switch {
	case e.Type != "" && e.Member != "":
		return fmt.Sprintf("%s [%s] %s.%s: %v", e.Op, e.Kind, e.Type, e.Member, e.Err)
	case e.Type != "":
		return fmt.Sprintf("%s [%s] %s: %v", e.Op, e.Kind, e.Type, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *MagicError) Unwrap() error {
	return e.Err
}

// New returns a MagicError with a formatted underlying error.
func New(op string, kind ErrorKind, format string, args ...any) *MagicError {
	return &MagicError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first MagicError in err's chain,
// or KindUnknown.
func KindOf(err error) ErrorKind {
	var me *MagicError
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUnknown
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "hooks.Root.Dispatch").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// RenderError represents a failure while rendering a component or running
// one of its effects.
type RenderError struct {
	// Component is the name of the component that failed.
	Component string
	// Phase is "render", "layout-effect", "effect" or "cleanup".
	Phase string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error. When the recovered value is an error it is
	// stored here as well.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error in %s (%s): %v", e.Component, e.Phase, e.Err)
	}
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s (%s): %v", e.Component, e.Phase, e.Recovered)
	}
	return fmt.Sprintf("unknown error in %s (%s)", e.Component, e.Phase)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by magic and the hooks runtime.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *MagicError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleRenderError is called when a component render or effect fails.
	HandleRenderError(err *RenderError)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
