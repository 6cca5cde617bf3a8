package showcase

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-drift/magic/pkg/errors"
	"github.com/go-drift/magic/pkg/magic"
	"github.com/go-drift/magic/pkg/request"
)

// RequestData is the base of classes whose state is loaded from the API.
// Payload is nil until a request succeeds; Err holds the status of the last
// failed request and ErrMessage its user-facing message.
type RequestData[P any] struct {
	magic.Object

	Env        *Env
	Payload    magic.State[P]
	Err        magic.State[string]
	Loading    magic.State[bool]
	ErrMessage magic.Memo[string]

	messages map[string]string
}

// annotateRequest registers the RequestData members for one payload type.
func annotateRequest[P any]() {
	magic.Annotate[RequestData[P]](
		magic.IsContext("Env", EnvContext),
		magic.IsState("Payload"),
		magic.IsState("Err"),
		magic.IsState("Loading"),
		magic.IsMemo("ErrMessage", magic.DepsFunc(func(r *RequestData[P]) []any {
			return []any{r.Err.Get()}
		})),
	)
}

// initRequest sets the message table. Keys are whole statuses ("404") or
// status classes ("5").
func (r *RequestData[P]) initRequest(messages map[string]string) {
	r.messages = messages
	r.ErrMessage = magic.MemoOf(func() string {
		return request.Message(r.messages, r.Err.Get())
	})
}

// Fetch requests path and stores the outcome: the decoded payload and an
// empty Err on success, a nil payload and the status otherwise. done runs
// after a successful outcome is stored. The returned function abandons the
// request, dropping its outcome.
func (r *RequestData[P]) Fetch(path string, opts request.Options, done func(P)) (cancel func()) {
	env := r.Env
	if env == nil || env.Fetcher == nil {
		r.store(path, request.Outcome{Status: request.StatusUnavailable, Err: fmt.Errorf("no fetcher")}, nil)
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.Loading.Set(true)
	env.run(func() {
		out := env.Fetcher.Fetch(ctx, path, opts)
		env.dispatch(func() {
			if ctx.Err() != nil {
				return
			}
			r.store(path, out, done)
		})
	})
	return cancel
}

// store applies out. Transport, decode and server (5xx) failures are also
// reported to the error handler; other statuses are expected outcomes.
func (r *RequestData[P]) store(path string, out request.Outcome, done func(P)) {
	r.Loading.Set(false)
	var payload P
	if out.OK() && len(out.Body) > 0 {
		if err := out.Decode(&payload); err != nil {
			out = request.Outcome{Status: request.StatusBadResponse, Code: out.Code, Err: err}
		}
	}
	if !out.OK() {
		if err := serverFault(out); err != nil {
			errors.Report(&errors.MagicError{
				Op:   "showcase.Fetch",
				Kind: errors.KindFetch,
				Err:  fmt.Errorf("%s: %w", path, err),
			})
		}
		var zero P
		r.Payload.Set(zero)
		r.Err.Set(out.Status)
		return
	}
	r.Payload.Set(payload)
	r.Err.Set("")
	if done != nil {
		done(payload)
	}
}

func serverFault(out request.Outcome) error {
	switch {
	case out.Err != nil:
		return out.Err
	case strings.HasPrefix(out.Status, "5"):
		return fmt.Errorf("server responded %s", out.Status)
	}
	return nil
}
