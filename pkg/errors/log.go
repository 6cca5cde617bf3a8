package errors

import (
	"log/slog"
)

// LogHandler is an ErrorHandler that logs errors through slog.
type LogHandler struct {
	// Logger receives the records. Nil means slog.Default().
	Logger *slog.Logger
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

func (h *LogHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// HandleError logs a MagicError.
func (h *LogHandler) HandleError(err *MagicError) {
	if err == nil {
		return
	}
	attrs := []any{"op", err.Op, "kind", err.Kind.String(), "err", err.Err}
	if err.Type != "" {
		attrs = append(attrs, "type", err.Type)
	}
	if err.Member != "" {
		attrs = append(attrs, "member", err.Member)
	}
	h.logger().Error("magic error", attrs...)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	attrs := []any{"value", err.Value}
	if err.Op != "" {
		attrs = append(attrs, "op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		attrs = append(attrs, "stack", err.StackTrace)
	}
	h.logger().Error("magic panic", attrs...)
}

// HandleRenderError logs a RenderError.
func (h *LogHandler) HandleRenderError(err *RenderError) {
	if err == nil {
		return
	}
	attrs := []any{"component", err.Component, "phase", err.Phase, "err", err.Error()}
	if h.Verbose && err.StackTrace != "" {
		attrs = append(attrs, "stack", err.StackTrace)
	}
	h.logger().Error("render error", attrs...)
}
