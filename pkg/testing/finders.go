package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/magic/pkg/hooks"
)

// Finder locates nodes in a mounted tree.
type Finder interface {
	// Evaluate returns all matching nodes in depth-first pre-order.
	Evaluate(root *hooks.Root) []hooks.NodeInfo
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []hooks.NodeInfo
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() hooks.NodeInfo {
	if len(r.nodes) == 0 {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder found no nodes: %s", desc))
	}
	return r.nodes[0]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []hooks.NodeInfo {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

type predicateFinder struct {
	fn   func(hooks.NodeInfo) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *hooks.Root) []hooks.NodeInfo {
	var out []hooks.NodeInfo
	root.Walk(func(n hooks.NodeInfo) bool {
		if f.fn(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByName matches components named name.
func ByName(name string) Finder {
	return &predicateFinder{
		fn:   func(n hooks.NodeInfo) bool { return n.Kind == "component" && n.Name == name },
		desc: fmt.Sprintf("ByName(%q)", name),
	}
}

// ByKey matches components whose key is key (see [hooks.Same]).
func ByKey(key any) Finder {
	return &predicateFinder{
		fn:   func(n hooks.NodeInfo) bool { return n.Kind == "component" && hooks.Same(n.Key, key) },
		desc: fmt.Sprintf("ByKey(%v)", key),
	}
}

// ByText matches text nodes with exactly text.
func ByText(text string) Finder {
	return &predicateFinder{
		fn:   func(n hooks.NodeInfo) bool { return n.Kind == "text" && n.Text == text },
		desc: fmt.Sprintf("ByText(%q)", text),
	}
}

// ByTextContaining matches text nodes containing substring.
func ByTextContaining(substring string) Finder {
	return &predicateFinder{
		fn:   func(n hooks.NodeInfo) bool { return n.Kind == "text" && strings.Contains(n.Text, substring) },
		desc: fmt.Sprintf("ByTextContaining(%q)", substring),
	}
}

// ByPredicate matches nodes satisfying fn.
func ByPredicate(fn func(hooks.NodeInfo) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}
