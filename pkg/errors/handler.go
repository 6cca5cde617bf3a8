package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// handlerSlot boxes the handler so atomic.Pointer can hold an interface.
type handlerSlot struct{ h ErrorHandler }

var current atomic.Pointer[handlerSlot]

// SetHandler installs the process-wide error handler. Pass nil to restore
// a LogHandler writing to slog.Default().
func SetHandler(h ErrorHandler) {
	if h == nil {
		current.Store(nil)
		return
	}
	current.Store(&handlerSlot{h})
}

// Handler returns the installed error handler.
func Handler() ErrorHandler {
	if s := current.Load(); s != nil {
		return s.h
	}
	return &LogHandler{}
}

// Report sends err to the installed handler.
func Report(err *MagicError) {
	if err != nil {
		Handler().HandleError(err)
	}
}

// ReportPanic sends err to the installed handler, stamping it if needed.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	Handler().HandlePanic(err)
}

// ReportRenderError sends err to the installed handler, stamping it if
// needed.
func ReportRenderError(err *RenderError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	Handler().HandleRenderError(err)
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// Recover reports a panic of the calling function as a PanicError. It must
// be deferred directly:
//
//	defer errors.Recover("hooks.Root.Dispatch")
func Recover(op string) {
	r := recover()
	if r == nil {
		return
	}
	ReportPanic(&PanicError{Op: op, Value: r, StackTrace: CaptureStack()})
}

// CaptureStack formats the caller's stack, one "function\n\tfile:line" entry
// per frame, omitting CaptureStack and its caller's runtime frames.
func CaptureStack() string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for n > 0 {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}
