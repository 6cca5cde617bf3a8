// Package cmd implements the magic CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (list, run, inspect, status).
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "magic",
	Short: "magic - reactive objects over hooks",
	Long: `magic binds plain Go structs to a hooks runtime: annotated fields become
state, memos, context reads and nested objects, and annotated methods become
effects.

This CLI plays the showcase demos headlessly and reports how types are
classified.

Use "magic <command> --help" for more information about a command.`,
	Usage: "magic <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// projectDir overrides the project root found from the working directory.
var projectDir string

// stdout receives command output. Tests replace it.
var stdout io.Writer = os.Stdout

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return execute(os.Args[1:])
}

func execute(args []string) error {
	projectDir = ""

	// Handle no arguments
	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Handle global flags and extract --dir
	var filteredArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help", "help":
			if len(filteredArgs) == 0 {
				printHelp(rootCmd)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "-v", "--version", "version":
			if len(filteredArgs) == 0 {
				fmt.Fprintf(stdout, "magic CLI version %s (built %s)\n", Version, BuildTime)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "--dir":
			if i+1 < len(args) {
				projectDir = args[i+1]
				i++
			} else {
				return fmt.Errorf("--dir requires a directory path")
			}
		default:
			if strings.HasPrefix(arg, "--dir=") {
				projectDir = strings.TrimPrefix(arg, "--dir=")
				continue
			}
			filteredArgs = append(filteredArgs, arg)
		}
	}
	args = filteredArgs

	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Find and execute the command
	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	// Check for help flag on subcommand
	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	return cmd.Run(cmdArgs)
}

func printHelp(cmd *Command) {
	w := stdout
	fmt.Fprintln(w, cmd.Long)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s\n", cmd.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Fprintf(w, "  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -h, --help           Show help for a command")
	fmt.Fprintln(w, "  -v, --version        Show version information")
	fmt.Fprintln(w, "  --dir DIR            Project directory holding magic.yaml (default: found from cwd)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MAGIC_LOG_LEVEL      Log level (debug, info, warn, error)")
	fmt.Fprintln(w, "  MAGIC_DEBUG          Enable debug logging of bindings and renders")
	fmt.Fprintln(w, "  MAGIC_MAX_PASSES     Render passes per flush before giving up")
	fmt.Fprintln(w, "  MAGIC_CONFLICTS      Annotation conflict policy (reject, last-wins)")
	fmt.Fprintln(w, "  MAGIC_DEMO_ADDR      Serve the demo API on this address")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  magic list                 List the demos")
	fmt.Fprintln(w, "  magic run /posts           Play the posts demo")
	fmt.Fprintln(w, "  magic inspect PostList     Show how PostList is classified")
}

func printCommandHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
}
