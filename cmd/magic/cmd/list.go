package cmd

import (
	"fmt"

	"github.com/go-drift/magic/showcase"
)

func init() {
	RegisterCommand(&Command{
		Name:  "list",
		Short: "List the showcase demos",
		Long: `List the showcase demos by category.

Each demo is identified by its route, which "magic run" accepts.`,
		Usage: "magic list",
		Run:   runList,
	})
}

func runList(args []string) error {
	var category string
	for _, d := range showcase.Demos() {
		if d.Category != category {
			if category != "" {
				fmt.Fprintln(stdout)
			}
			category = d.Category
			fmt.Fprintf(stdout, "%s:\n", category)
		}
		fmt.Fprintf(stdout, "  %-10s %-16s %s\n", d.Route, d.Title, d.Subtitle)
	}
	return nil
}
