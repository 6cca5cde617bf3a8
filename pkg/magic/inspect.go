package magic

import (
	"fmt"
	"strings"
)

// MemberInfo describes one member of a magic struct.
type MemberInfo struct {
	Name       string   `yaml:"name"`
	Owner      string   `yaml:"owner"`
	Depth      int      `yaml:"depth,omitempty"`
	Method     bool     `yaml:"method,omitempty"`
	Categories []string `yaml:"categories,omitempty"`
	Deps       string   `yaml:"deps,omitempty"`
}

// TypeInfo describes how a magic struct type is classified.
type TypeInfo struct {
	Type    string       `yaml:"type"`
	Members []MemberInfo `yaml:"members"`
}

// Annotated returns the members carrying at least one annotation.
func (t *TypeInfo) Annotated() []MemberInfo {
	var out []MemberInfo
	for _, m := range t.Members {
		if len(m.Categories) > 0 {
			out = append(out, m)
		}
	}
	return out
}

// Inspect classifies instance against reg without binding it.
func Inspect(reg *Registry, instance any) (*TypeInfo, error) {
	ms, err := Discover(reg, instance)
	if err != nil {
		return nil, err
	}
	info := &TypeInfo{Type: ms.Type.String()}
	for _, m := range ms.All() {
		mi := MemberInfo{
			Name:   m.Name,
			Owner:  m.Owner.String(),
			Depth:  m.Depth,
			Method: m.Method,
		}
		for _, c := range m.Categories() {
			mi.Categories = append(mi.Categories, c.String())
			switch c {
			case CategoryMemo, CategoryEffect, CategoryLayoutEffect:
				a, _ := m.Annotation(c)
				mi.Deps = a.Deps.String()
			}
		}
		info.Members = append(info.Members, mi)
	}
	return info, nil
}

// String describes when the deps rerun: "always", "once", "fixed(n)" or
// "computed".
func (d Deps) String() string {
	switch {
	case d.fn != nil:
		return "computed"
	case d.values == nil:
		return "always"
	case len(d.values) == 0:
		return "once"
	}
	return fmt.Sprintf("fixed(%d)", len(d.values))
}

// String renders the type as one line per annotated member.
func (t *TypeInfo) String() string {
	var sb strings.Builder
	sb.WriteString(t.Type)
	sb.WriteString("\n")
	for _, m := range t.Annotated() {
		fmt.Fprintf(&sb, "  %-16s %s", m.Name, strings.Join(m.Categories, ","))
		if m.Deps != "" {
			fmt.Fprintf(&sb, " deps=%s", m.Deps)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
