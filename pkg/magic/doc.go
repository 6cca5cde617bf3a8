// Package magic binds plain Go structs to component hooks.
//
// A magic struct embeds [Object] and declares reactive fields with the types
// in this package. Annotations registered once per type say how each member
// is wired:
//
//	type Counter struct {
//	    magic.Object
//	    Count  magic.State[int]
//	    Double magic.Memo[int]
//	}
//
//	func NewCounter() *Counter {
//	    c := &Counter{}
//	    c.Double = magic.MemoOf(func() int { return c.Count.Get() * 2 })
//	    return c
//	}
//
//	func (c *Counter) Report() { fmt.Println(c.Count.Get()) }
//
//	var _ = magic.Annotate[Counter](
//	    magic.IsState("Count"),
//	    magic.IsMemo("Double", magic.DepsFunc(func(c *Counter) []any {
//	        return []any{c.Count.Get()}
//	    })),
//	    magic.IsEffect("Report", magic.Fixed()),
//	)
//
// A component then calls [Use] on every render:
//
//	c := magic.Use(h, magic.Class(NewCounter))
//	c.Count.Set(c.Count.Get() + 1) // re-renders the component
//
// # Members
//
// Members are the exported fields of the struct and of its embedded structs,
// plus the exported methods of its pointer type. An outer member hides an
// embedded one of the same name. Annotations are looked up on the instance
// type first and then on each embedded type, shallowest first, so a struct
// embedding an annotated base inherits the base's annotations. Redeclaring a
// field without annotating it keeps the embedded annotation.
//
// # Hook order
//
// Each Use issues, in order: the binding holder memo, the teardown effect,
// then for nested magic members a recursive binding and a memo, one state
// cell per State and StateMap member, a context read and a transform memo
// per context member, the memo phase (enter marker, one memo per Memo
// member, leave marker), and the effect phase (enter marker, effects,
// layout effects, leave marker). The count depends only on the type.
//
// Every non-nil dependency list gets the source's identity key appended, so
// switching instances reruns memos and effects.
//
// # Sharing
//
// An instance bound through [Instance] at several call sites is shared:
// every write notifies every live binding.
package magic
