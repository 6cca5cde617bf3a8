package hooks

// Context is an ambient value source. Values are made available to a subtree
// with [Provide] and read with [Hooks.UseContext].
//
// Example:
//
//	var UserContext = hooks.NewContext(nil)
//
//	root.Mount(hooks.Provide(UserContext, user, postList))
type Context struct {
	name         string
	defaultValue any
}

// NewContext creates a context whose readers see defaultValue when no
// provider is mounted above them.
func NewContext(defaultValue any) *Context {
	return &Context{defaultValue: defaultValue}
}

// NewNamedContext is NewContext with a name used in logs and errors.
func NewNamedContext(name string, defaultValue any) *Context {
	return &Context{name: name, defaultValue: defaultValue}
}

// DefaultValue implements ContextHandle.
func (c *Context) DefaultValue() any {
	return c.defaultValue
}

// Name returns the context name, or "context" when unnamed.
func (c *Context) Name() string {
	if c.name == "" {
		return "context"
	}
	return c.name
}

// providerNode makes a value available to its children.
type providerNode struct {
	handle   ContextHandle
	value    any
	children []Node
}

func (providerNode) node() {}

// Provide returns a node that makes value available to every UseContext(handle)
// call beneath it. When a re-render provides a different value (see [Same]),
// every component that read the handle is scheduled for re-render.
func Provide(handle ContextHandle, value any, children ...Node) Node {
	return providerNode{handle: handle, value: value, children: children}
}
