package cmd

import (
	"fmt"
	"strings"

	"github.com/go-drift/magic/pkg/hooks"
)

// dumpTree renders the mounted tree, one node per line, indented by depth.
// Providers are omitted; their children are indented as if they were not
// there.
func dumpTree(root *hooks.Root) string {
	var sb strings.Builder
	var providers []int
	root.Walk(func(n hooks.NodeInfo) bool {
		for len(providers) > 0 && providers[len(providers)-1] >= n.Depth {
			providers = providers[:len(providers)-1]
		}
		if n.Kind == "provider" {
			providers = append(providers, n.Depth)
			return true
		}
		sb.WriteString(strings.Repeat("  ", n.Depth-len(providers)))
		switch n.Kind {
		case "text":
			fmt.Fprintf(&sb, "%q\n", n.Text)
		default:
			sb.WriteString(n.Name)
			if n.Key != nil {
				fmt.Fprintf(&sb, " key=%v", n.Key)
			}
			sb.WriteString("\n")
		}
		return true
	})
	return sb.String()
}
