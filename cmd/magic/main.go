// Command magic runs and inspects the magic showcase.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/magic/cmd/magic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
