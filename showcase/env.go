// Package showcase holds the demo magic classes exercised by the magic CLI
// and the tests: a counter, a login form and post list backed by an HTTP
// API, and an island simulation driven by intervals.
package showcase

import (
	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/request"
)

// Env carries the services data-loading classes need. It is read through
// [EnvContext].
type Env struct {
	Fetcher request.Fetcher
	// Go runs a blocking call off the render goroutine.
	Go func(func())
	// Dispatch runs a callback on the render goroutine. Results of Go calls
	// are applied through it.
	Dispatch func(func())
}

// EnvContext provides the *Env to magic classes. Its default is nil, and
// classes reading it must cope with a missing environment.
var EnvContext = hooks.NewNamedContext("env", (*Env)(nil))

// NewEnv returns an environment that fetches with f and dispatches onto root.
func NewEnv(f request.Fetcher, root *hooks.Root) *Env {
	return &Env{
		Fetcher:  f,
		Go:       func(fn func()) { go fn() },
		Dispatch: root.Dispatch,
	}
}

func (e *Env) run(fn func()) {
	if e.Go == nil {
		fn()
		return
	}
	e.Go(fn)
}

func (e *Env) dispatch(fn func()) {
	if e.Dispatch == nil {
		fn()
		return
	}
	e.Dispatch(fn)
}
