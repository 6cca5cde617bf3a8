package cmd

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/magic/pkg/magic"
	"github.com/go-drift/magic/showcase"
)

func init() {
	RegisterCommand(&Command{
		Name:  "inspect",
		Short: "Show how showcase types are classified",
		Long: `Classify the showcase types against the annotation registry and print
their members: the categories each member carries and, for memos and
effects, its dependency policy.

With a name, only types whose name ends with it are shown.

Flags:
  --format FORMAT    Output format: text or yaml (default: text)
  --all              Include members without annotations (yaml only)`,
		Usage: "magic inspect [name] [--format text|yaml] [--all]",
		Run:   runInspect,
	})
}

func runInspect(args []string) error {
	format := "text"
	all := false
	var names []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--format":
			if i+1 >= len(args) {
				return fmt.Errorf("--format requires a value")
			}
			i++
			format = args[i]
		case strings.HasPrefix(arg, "--format="):
			format = strings.TrimPrefix(arg, "--format=")
		case arg == "--all":
			all = true
		default:
			names = append(names, arg)
		}
	}
	if format != "text" && format != "yaml" {
		return fmt.Errorf("unknown format %q (use text or yaml)", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	apply(cfg)

	infos, err := inspectSamples(names)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return fmt.Errorf("no showcase type matches %q", strings.Join(names, " "))
	}
	if !all {
		for _, info := range infos {
			info.Members = info.Annotated()
		}
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(infos)
	}
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprint(stdout, info.String())
	}
	return nil
}

// inspectSamples classifies each showcase sample whose type name ends with
// one of names, or every sample when names is empty.
func inspectSamples(names []string) ([]*magic.TypeInfo, error) {
	var out []*magic.TypeInfo
	seen := make(map[string]bool)
	for _, s := range showcase.Samples() {
		info, err := magic.Inspect(magic.DefaultRegistry, s)
		if err != nil {
			return nil, err
		}
		if seen[info.Type] || !matchesAny(info.Type, names) {
			continue
		}
		seen[info.Type] = true
		out = append(out, info)
	}
	return out, nil
}

func matchesAny(typ string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if strings.HasSuffix(typ, n) {
			return true
		}
	}
	return false
}
