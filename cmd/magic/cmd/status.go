package cmd

import (
	"fmt"

	"github.com/go-drift/magic/pkg/magic"
	"github.com/go-drift/magic/showcase"
)

func init() {
	RegisterCommand(&Command{
		Name:  "status",
		Short: "Show the resolved configuration",
		Long: `Show the configuration resolved from magic.yaml, go.mod and the
MAGIC_* environment, and the types annotated in the default registry.`,
		Usage: "magic status",
		Run:   runStatus,
	})
}

func runStatus(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := stdout
	fmt.Fprintf(w, "Project: %s (%s)\n", cfg.AppName, cfg.Root)
	if cfg.ModulePath != "" {
		fmt.Fprintf(w, "Module:  %s\n", cfg.ModulePath)
	}
	fmt.Fprintf(w, "Config:  %s\n", cfg.Version)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Engine:")
	fmt.Fprintf(w, "  conflicts:   %s\n", cfg.Conflicts)
	fmt.Fprintf(w, "  max passes:  %d\n", cfg.MaxPasses)
	fmt.Fprintf(w, "  log level:   %s\n", cfg.LogLevel)
	fmt.Fprintf(w, "  debug:       %t\n", cfg.Debug)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Demo:")
	addr := cfg.DemoAddr
	if addr == "" {
		addr = "in-process"
	}
	fmt.Fprintf(w, "  api:         %s\n", addr)
	fmt.Fprintf(w, "  step:        %s\n", cfg.DemoStep)
	fmt.Fprintf(w, "  demos:       %d\n", len(showcase.Demos()))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Annotated types:")
	for _, t := range magic.DefaultRegistry.Types() {
		fmt.Fprintf(w, "  %s\n", t)
	}
	return nil
}
