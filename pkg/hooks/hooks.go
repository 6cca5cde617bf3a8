package hooks

import (
	"fmt"
	"slices"

	"github.com/go-drift/magic/pkg/errors"
)

// Node is an element of the component tree: a [Component] or a node
// returned by [Provide].
type Node interface {
	node()
}

// Component is a node rendered by a function of hooks.
type Component struct {
	// Name identifies the component in logs and errors. Together with Key it
	// decides whether a re-render updates the existing component or replaces it.
	Name string
	// Key distinguishes siblings that share a Name.
	Key any
	// Render calls hooks on h and returns the component's children.
	Render func(h *Hooks) []Node
}

func (Component) node() {}

// Text is a leaf node carrying rendered output. It is what finders in tests
// and the CLI's tree dump read.
type Text string

func (Text) node() {}

type hookKind int

const (
	hookState hookKind = iota
	hookMemo
	hookContext
	hookEffect
	hookLayoutEffect
)

func (k hookKind) String() string {
	switch k {
	case hookState:
		return "UseState"
	case hookMemo:
		return "UseMemo"
	case hookContext:
		return "UseContext"
	case hookEffect:
		return "UseEffect"
	case hookLayoutEffect:
		return "UseLayoutEffect"
	}
	return "unknown"
}

type hookSlot struct {
	kind     hookKind
	value    any
	deps     []any
	ran      bool
	cleanup  func()
	setter   func(any)
	provider *fiber
}

// fiber is a mounted node.
type fiber struct {
	root       *Root
	parent     *fiber
	depth      int
	node       Node
	children   []*fiber
	hooks      []*hookSlot
	cursor     int
	rendered   bool
	dirty      bool
	mounted    bool
	dependents map[*fiber]struct{}
}

func (f *fiber) name() string {
	switch n := f.node.(type) {
	case Component:
		if n.Name != "" {
			return n.Name
		}
		return "component"
	case providerNode:
		if named, ok := n.handle.(interface{ Name() string }); ok {
			return "Provider(" + named.Name() + ")"
		}
		return "Provider"
	case Text:
		return "Text"
	}
	return "root"
}

// findProvider walks up the tree to the nearest provider of handle.
func (f *fiber) findProvider(handle ContextHandle) *fiber {
	for current := f.parent; current != nil; current = current.parent {
		if p, ok := current.node.(providerNode); ok && p.handle == handle {
			return current
		}
	}
	return nil
}

type pendingEffect struct {
	fiber *fiber
	slot  *hookSlot
	body  func() func()
	deps  []any
}

// Hooks is the handle a component receives while rendering. It implements
// [Host] for that component and is only valid during the Render call.
type Hooks struct {
	f       *fiber
	layout  []pendingEffect
	effects []pendingEffect
}

var _ Host = (*Hooks)(nil)

// Name returns the name of the rendering component.
func (h *Hooks) Name() string {
	return h.f.name()
}

// Dispatch queues fn on the component's root. Safe from any goroutine.
func (h *Hooks) Dispatch(fn func()) {
	h.f.root.Dispatch(fn)
}

func (h *Hooks) next(kind hookKind) (*hookSlot, bool) {
	f := h.f
	idx := f.cursor
	f.cursor++
	if !f.rendered {
		s := &hookSlot{kind: kind}
		f.hooks = append(f.hooks, s)
		return s, true
	}
	if idx >= len(f.hooks) {
		panic(&errors.MagicError{
			Op:   "hooks." + kind.String(),
			Kind: errors.KindHookOrder,
			Type: f.name(),
			Err:  fmt.Errorf("rendered more hooks than during the previous render (%d)", len(f.hooks)),
		})
	}
	s := f.hooks[idx]
	if s.kind != kind {
		panic(&errors.MagicError{
			Op:   "hooks." + kind.String(),
			Kind: errors.KindHookOrder,
			Type: f.name(),
			Err:  fmt.Errorf("hook %d changed from %s to %s", idx, s.kind, kind),
		})
	}
	return s, false
}

// UseState implements Host.
func (h *Hooks) UseState(initial any) (any, func(any)) {
	s, first := h.next(hookState)
	if first {
		s.value = initial
		f := h.f
		s.setter = func(v any) {
			if !f.mounted || Same(s.value, v) {
				return
			}
			s.value = v
			f.root.schedule(f)
		}
	}
	return s.value, s.setter
}

// UseMemo implements Host.
func (h *Hooks) UseMemo(compute func() any, deps []any) any {
	s, first := h.next(hookMemo)
	if first || DepsChanged(s.deps, deps) {
		s.value = compute()
		s.deps = slices.Clone(deps)
	}
	return s.value
}

// UseContext implements Host.
func (h *Hooks) UseContext(handle ContextHandle) any {
	s, _ := h.next(hookContext)
	p := h.f.findProvider(handle)
	if s.provider != p {
		if s.provider != nil {
			delete(s.provider.dependents, h.f)
		}
		if p != nil {
			if p.dependents == nil {
				p.dependents = make(map[*fiber]struct{})
			}
			p.dependents[h.f] = struct{}{}
		}
		s.provider = p
	}
	if p == nil {
		return handle.DefaultValue()
	}
	return p.node.(providerNode).value
}

// UseEffect implements Host.
func (h *Hooks) UseEffect(body func() func(), deps []any) {
	h.useEffect(hookEffect, body, deps)
}

// UseLayoutEffect implements Host.
func (h *Hooks) UseLayoutEffect(body func() func(), deps []any) {
	h.useEffect(hookLayoutEffect, body, deps)
}

func (h *Hooks) useEffect(kind hookKind, body func() func(), deps []any) {
	s, _ := h.next(kind)
	if s.ran && !DepsChanged(s.deps, deps) {
		return
	}
	e := pendingEffect{fiber: h.f, slot: s, body: body, deps: slices.Clone(deps)}
	if kind == hookLayoutEffect {
		h.layout = append(h.layout, e)
	} else {
		h.effects = append(h.effects, e)
	}
}
