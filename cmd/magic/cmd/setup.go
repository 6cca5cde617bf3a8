package cmd

import (
	"log/slog"
	"os"

	"github.com/go-drift/magic/cmd/magic/internal/config"
	"github.com/go-drift/magic/pkg/errors"
	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/magic"
)

// loadConfig resolves the configuration of the project in --dir or the one
// containing the working directory.
func loadConfig() (*config.Resolved, error) {
	dir := projectDir
	if dir == "" {
		var err error
		dir, err = config.FindProjectRoot()
		if err != nil {
			return nil, err
		}
	}
	return config.Resolve(dir)
}

// apply installs the logger, error handler and conflict policy described by
// cfg, and returns the logger.
func apply(cfg *config.Resolved) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	magic.SetLogger(logger)
	hooks.SetLogger(logger)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: cfg.Debug})
	magic.DefaultRegistry.SetConflictPolicy(cfg.Conflicts)
	return logger
}
