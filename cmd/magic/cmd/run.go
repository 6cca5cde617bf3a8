package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-drift/magic/cmd/magic/internal/config"
	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/interval"
	"github.com/go-drift/magic/pkg/request"
	"github.com/go-drift/magic/showcase"
)

// frameInterval paces the render loop.
const frameInterval = 16 * time.Millisecond

// seedPosts is the number of posts the demo API serves.
const seedPosts = 100

func init() {
	RegisterCommand(&Command{
		Name:  "run",
		Short: "Play a showcase demo headlessly",
		Long: `Mount a showcase demo, play its script and print the tree after every
frame that changed it.

The demo API is served in-process unless demo.addr (or MAGIC_DEMO_ADDR) is
set, in which case it listens on that address and the demo fetches over HTTP.

Flags:
  --for DURATION     Keep running after the script ends (default: stop when it ends)
  --step DURATION    Delay between script steps (default: demo.step or 500ms)
  --quiet            Only print the final tree`,
		Usage: "magic run <route> [--for DURATION] [--step DURATION] [--quiet]",
		Run:   runRun,
	})
}

type runOptions struct {
	linger time.Duration
	step   time.Duration
	quiet  bool
}

func parseRunArgs(args []string) ([]string, runOptions, error) {
	var opts runOptions
	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "--for", "--step":
			if !hasValue {
				if i+1 >= len(args) {
					return nil, opts, fmt.Errorf("%s requires a duration", name)
				}
				i++
				value = args[i]
			}
			d, err := time.ParseDuration(value)
			if err != nil || d < 0 {
				return nil, opts, fmt.Errorf("invalid %s duration %q", name, value)
			}
			if name == "--for" {
				opts.linger = d
			} else {
				opts.step = d
			}
		case "--quiet":
			opts.quiet = true
		default:
			filtered = append(filtered, arg)
		}
	}
	return filtered, opts, nil
}

func runRun(args []string) error {
	routes, opts, err := parseRunArgs(args)
	if err != nil {
		return err
	}
	if len(routes) == 0 {
		return fmt.Errorf("route is required\n\nUsage: magic run <route>")
	}
	route := routes[0]
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	demo, ok := showcase.Lookup(route)
	if !ok {
		return fmt.Errorf("unknown demo %q (see magic list)", route)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := apply(cfg)
	if opts.step == 0 {
		opts.step = cfg.DemoStep
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, shutdown, err := demoFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	root := hooks.NewRoot()
	root.MaxPasses = cfg.MaxPasses
	scene := demo.Build(showcase.NewEnv(fetcher, root))

	logger.Info("running demo", "route", demo.Route, "steps", len(scene.Script))
	if err := root.Mount(scene.Root); err != nil {
		return err
	}
	defer root.Unmount()

	done := playScript(ctx, root, scene.Script, opts.step, logger)
	frameLoop(ctx, root, done, opts, logger)
	return nil
}

// demoFetcher returns the fetcher the demo talks to and a function releasing
// whatever it started.
func demoFetcher(cfg *config.Resolved, logger *slog.Logger) (request.Fetcher, func(), error) {
	api := showcase.NewServer(showcase.SeedPosts(seedPosts, showcase.IslandSeed), logger)
	if cfg.DemoAddr == "" {
		return request.Handler{Handler: api}, func() {}, nil
	}

	ln, err := net.Listen("tcp", cfg.DemoAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", cfg.DemoAddr, err)
	}
	srv := &http.Server{Handler: api, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("demo api stopped", "error", err)
		}
	}()
	logger.Info("serving demo api", "addr", ln.Addr().String())

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return request.NewClient("http://"+ln.Addr().String(), 10*time.Second), shutdown, nil
}

// playScript dispatches each step to the render goroutine, one every delay.
// The returned channel is closed after the last step.
func playScript(ctx context.Context, root *hooks.Root, script []showcase.Step, delay time.Duration, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, step := range script {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			logger.Info("step", "label", step.Label)
			root.Dispatch(step.Do)
		}
		// let the last step's fetch land before the script counts as done
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}()
	return done
}

// frameLoop steps intervals and flushes once per frame, printing the tree
// whenever it changed. It returns when ctx is canceled, or opts.linger after
// the script is done.
func frameLoop(ctx context.Context, root *hooks.Root, script <-chan struct{}, opts runOptions, logger *slog.Logger) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	last := ""
	frame := 0
	step := func() {
		interval.Step()
		// failures already went to the error handler
		if err := root.Flush(); err != nil {
			logger.Debug("frame failed", "frame", frame, "error", err)
		}
		frame++
		if tree := dumpTree(root); tree != last {
			last = tree
			if !opts.quiet {
				printFrame(frame, tree)
			}
		}
	}
	for {
		select {
		case <-ctx.Done():
			printFrame(frame, last)
			return
		case <-deadline:
			// apply whatever the last step dispatched
			step()
			printFrame(frame, last)
			return
		case <-script:
			script = nil
			deadline = time.After(opts.linger)
		case <-ticker.C:
			step()
		}
	}
}

func printFrame(frame int, tree string) {
	fmt.Fprintf(stdout, "--- frame %d\n%s", frame, tree)
}
