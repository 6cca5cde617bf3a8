package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-drift/magic/pkg/errors"
)

// DefaultMaxPasses is the render/commit pass limit used when Root.MaxPasses
// is zero.
const DefaultMaxPasses = 100

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used by the runtime. Pass nil to use slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Root owns a component tree and tracks the components that need to
// re-render.
type Root struct {
	// MaxPasses bounds the render/commit passes of one Flush. A flush that is
	// still dirty after MaxPasses passes returns [errors.ErrUnsettled].
	MaxPasses int

	// OnNeedsFrame is called when a component is newly scheduled for
	// re-render, so an embedding loop can request a flush.
	OnNeedsFrame func()

	fiber   *fiber
	dirty   []*fiber
	layout  []pendingEffect
	effects []pendingEffect

	mu         sync.Mutex
	dispatches []func()
	wakeCh     chan struct{}
}

// NewRoot creates an empty Root.
func NewRoot() *Root {
	r := &Root{wakeCh: make(chan struct{}, 1)}
	r.fiber = &fiber{root: r, mounted: true, rendered: true}
	return r
}

// Mount renders nodes as the root's children and flushes. Calling Mount
// again reconciles the new nodes against the mounted tree.
func (r *Root) Mount(nodes ...Node) error {
	err := r.reconcile(r.fiber, nodes)
	return errors.Join(err, r.Flush())
}

// Unmount tears down the whole tree, running every effect cleanup.
func (r *Root) Unmount() {
	for _, child := range r.fiber.children {
		r.unmount(child)
	}
	r.fiber.children = nil
	r.dirty = nil
	r.layout = nil
	r.effects = nil
}

// NeedsWork reports whether a flush has anything to do.
func (r *Root) NeedsWork() bool {
	r.mu.Lock()
	pending := len(r.dispatches) > 0
	r.mu.Unlock()
	return pending || len(r.dirty) > 0 || len(r.layout) > 0 || len(r.effects) > 0
}

// Dispatch queues fn to run on the render goroutine at the start of the next
// flush. It is safe to call from any goroutine.
func (r *Root) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.dispatches = append(r.dispatches, fn)
	r.mu.Unlock()
	r.wake()
}

// Flush drains dispatched callbacks, re-renders dirty components in depth
// order, then runs layout effects followed by effects, repeating until no
// component is dirty. Render and effect failures are reported to the error
// handler and returned joined.
func (r *Root) Flush() error {
	var errs []error
	limit := r.MaxPasses
	if limit <= 0 {
		limit = DefaultMaxPasses
	}
	for pass := 0; ; pass++ {
		r.drain()
		errs = append(errs, r.commit())
		if len(r.dirty) == 0 {
			break
		}
		if pass >= limit {
			errs = append(errs, &errors.MagicError{
				Op:   "hooks.Root.Flush",
				Kind: errors.KindRender,
				Err:  fmt.Errorf("%w after %d passes", errors.ErrUnsettled, limit),
			})
			break
		}

		dirty := r.dirty
		r.dirty = nil
		slices.SortStableFunc(dirty, func(a, b *fiber) int {
			return a.depth - b.depth
		})
		for _, f := range dirty {
			if !f.mounted || !f.dirty {
				continue
			}
			errs = append(errs, r.render(f))
		}
	}
	return errors.Join(errs...)
}

// NodeInfo describes a mounted node.
type NodeInfo struct {
	// Kind is "component", "provider" or "text".
	Kind  string
	Name  string
	Key   any
	Text  string
	Depth int
	// Hooks is the number of hook slots of a component.
	Hooks int
}

// Walk visits the mounted nodes depth first in pre-order until visit
// returns false.
func (r *Root) Walk(visit func(NodeInfo) bool) {
	var walk func(f *fiber) bool
	walk = func(f *fiber) bool {
		info := NodeInfo{Name: f.name(), Depth: f.depth - 1, Hooks: len(f.hooks)}
		switch n := f.node.(type) {
		case Component:
			info.Kind, info.Key = "component", n.Key
		case providerNode:
			info.Kind = "provider"
		case Text:
			info.Kind, info.Text = "text", string(n)
		}
		if !visit(info) {
			return false
		}
		for _, child := range f.children {
			if !walk(child) {
				return false
			}
		}
		return true
	}
	for _, child := range r.fiber.children {
		if !walk(child) {
			return
		}
	}
}

// Run flushes whenever work is dispatched or scheduled until ctx is done.
// Failures are reported to the error handler and do not stop the loop.
func (r *Root) Run(ctx context.Context) error {
	for {
		if err := r.Flush(); err != nil {
			log().Debug("flush failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wakeCh:
		}
	}
}

func (r *Root) wake() {
	select {
	case r.wakeCh <- struct{}{}:
	default:
	}
}

func (r *Root) drain() {
	r.mu.Lock()
	fns := r.dispatches
	r.dispatches = nil
	r.mu.Unlock()
	for _, fn := range fns {
		func() {
			defer errors.Recover("hooks.Root.Dispatch")
			fn()
		}()
	}
}

func (r *Root) schedule(f *fiber) {
	if f.dirty || !f.mounted {
		return
	}
	f.dirty = true
	r.dirty = append(r.dirty, f)
	if r.OnNeedsFrame != nil {
		r.OnNeedsFrame()
	}
	r.wake()
}

func (r *Root) render(f *fiber) error {
	f.dirty = false
	switch n := f.node.(type) {
	case Component:
		h := &Hooks{f: f}
		f.cursor = 0
		children, err := r.callRender(f, n, h)
		if err == nil && f.rendered && f.cursor != len(f.hooks) {
			err = r.fail(f, "render", &errors.MagicError{
				Op:   "hooks.Root.render",
				Kind: errors.KindHookOrder,
				Type: f.name(),
				Err:  fmt.Errorf("rendered %d hooks, previous render had %d", f.cursor, len(f.hooks)),
			})
		}
		if err != nil {
			if !f.rendered {
				f.hooks = nil
			}
			return err
		}
		if !f.rendered {
			log().Debug("component mounted", "component", f.name(), "hooks", len(f.hooks))
		}
		f.rendered = true
		r.layout = append(r.layout, h.layout...)
		r.effects = append(r.effects, h.effects...)
		return r.reconcile(f, children)
	case providerNode:
		return r.reconcile(f, n.children)
	}
	return nil
}

func (r *Root) callRender(f *fiber, c Component, h *Hooks) (children []Node, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.fail(f, "render", rec)
		}
	}()
	if c.Render == nil {
		return nil, nil
	}
	return c.Render(h), nil
}

func (r *Root) fail(f *fiber, phase string, rec any) error {
	re := &errors.RenderError{
		Component:  f.name(),
		Phase:      phase,
		Recovered:  rec,
		StackTrace: errors.CaptureStack(),
	}
	if err, ok := rec.(error); ok {
		re.Err = err
	}
	errors.ReportRenderError(re)
	return re
}

func (r *Root) guard(f *fiber, phase string, fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.fail(f, phase, rec)
		}
	}()
	fn()
	return nil
}

func (r *Root) reconcile(parent *fiber, nodes []Node) error {
	var errs []error
	next := make([]*fiber, 0, len(nodes))
	for i, n := range nodes {
		var existing *fiber
		if i < len(parent.children) {
			existing = parent.children[i]
		}
		if n == nil {
			if existing != nil {
				r.unmount(existing)
			}
			continue
		}
		if existing != nil && canUpdate(existing.node, n) {
			errs = append(errs, r.update(existing, n))
			next = append(next, existing)
			continue
		}
		if existing != nil {
			r.unmount(existing)
		}
		child := &fiber{root: r, parent: parent, depth: parent.depth + 1, node: n, mounted: true}
		errs = append(errs, r.render(child))
		next = append(next, child)
	}
	for i := len(nodes); i < len(parent.children); i++ {
		r.unmount(parent.children[i])
	}
	parent.children = next
	return errors.Join(errs...)
}

func canUpdate(old, next Node) bool {
	switch o := old.(type) {
	case Component:
		n, ok := next.(Component)
		return ok && o.Name == n.Name && Same(o.Key, n.Key)
	case providerNode:
		n, ok := next.(providerNode)
		return ok && o.handle == n.handle
	case Text:
		_, ok := next.(Text)
		return ok
	}
	return false
}

func (r *Root) update(f *fiber, n Node) error {
	if p, ok := n.(providerNode); ok {
		if old := f.node.(providerNode); !Same(old.value, p.value) {
			for dependent := range f.dependents {
				r.schedule(dependent)
			}
		}
	}
	f.node = n
	return r.render(f)
}

func (r *Root) unmount(f *fiber) {
	for _, child := range f.children {
		r.unmount(child)
	}
	f.children = nil
	if !f.mounted {
		return
	}
	f.mounted = false
	for _, kind := range []hookKind{hookLayoutEffect, hookEffect} {
		for _, s := range f.hooks {
			if s.kind != kind || s.cleanup == nil {
				continue
			}
			cleanup := s.cleanup
			s.cleanup = nil
			_ = r.guard(f, "cleanup", cleanup)
		}
	}
	for _, s := range f.hooks {
		if s.kind == hookContext && s.provider != nil {
			delete(s.provider.dependents, f)
			s.provider = nil
		}
	}
	f.dependents = nil
	if f.rendered {
		log().Debug("component unmounted", "component", f.name())
	}
}

// commit runs pending layout effects, then pending effects. Within each
// group every cleanup runs before any body.
func (r *Root) commit() error {
	layout, effects := r.layout, r.effects
	r.layout, r.effects = nil, nil
	return errors.Join(
		r.runEffects(layout, "layout-effect"),
		r.runEffects(effects, "effect"),
	)
}

func (r *Root) runEffects(list []pendingEffect, phase string) error {
	last := make(map[*hookSlot]int, len(list))
	for i, e := range list {
		last[e.slot] = i
	}
	var errs []error
	for i, e := range list {
		if last[e.slot] != i || !e.fiber.mounted || e.slot.cleanup == nil {
			continue
		}
		cleanup := e.slot.cleanup
		e.slot.cleanup = nil
		errs = append(errs, r.guard(e.fiber, "cleanup", cleanup))
	}
	for i, e := range list {
		if last[e.slot] != i || !e.fiber.mounted {
			continue
		}
		e.slot.deps = e.deps
		e.slot.ran = true
		var cleanup func()
		errs = append(errs, r.guard(e.fiber, phase, func() {
			cleanup = e.body()
		}))
		e.slot.cleanup = cleanup
	}
	return errors.Join(errs...)
}
