// Package config loads the optional magic.yaml of a project and resolves
// it, with environment overrides, into the settings the CLI applies.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/magic/pkg/magic"
)

// FileName is the name of the configuration file.
const FileName = "magic.yaml"

// SchemaVersion is the newest configuration schema this CLI reads. Files
// with the same major version are accepted.
const SchemaVersion = "v1.0.0"

// Config represents the optional magic.yaml configuration.
type Config struct {
	Version string       `yaml:"version,omitempty"`
	App     AppConfig    `yaml:"app"`
	Engine  EngineConfig `yaml:"engine"`
	Log     LogConfig    `yaml:"log"`
	Demo    DemoConfig   `yaml:"demo"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// EngineConfig contains binding engine settings.
type EngineConfig struct {
	// Conflicts is "reject" or "last-wins".
	Conflicts string `yaml:"conflicts,omitempty"`
	MaxPasses int    `yaml:"max_passes,omitempty"`
	Debug     bool   `yaml:"debug,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// DemoConfig contains settings of `magic run`.
type DemoConfig struct {
	// Addr is where the demo API listens. Empty serves it in process.
	Addr string `yaml:"addr,omitempty"`
	// Step is the pause between scripted actions.
	Step string `yaml:"step,omitempty"`
}

// envOverrides are read from the environment and win over the file.
type envOverrides struct {
	LogLevel  string `env:"MAGIC_LOG_LEVEL"`
	Debug     string `env:"MAGIC_DEBUG"`
	MaxPasses int    `env:"MAGIC_MAX_PASSES"`
	Conflicts string `env:"MAGIC_CONFLICTS"`
	Addr      string `env:"MAGIC_DEMO_ADDR"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	AppName    string
	Version    string
	Conflicts  magic.ConflictPolicy
	MaxPasses  int
	Debug      bool
	LogLevel   slog.Level
	DemoAddr   string
	DemoStep   time.Duration
}

// DefaultDemoStep is the pause between scripted actions when unset.
const DefaultDemoStep = 500 * time.Millisecond

// LoadOptional reads magic.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads magic.yaml (if present), applies environment overrides and
// resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	var env envOverrides
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	version, err := checkVersion(cfg.Version)
	if err != nil {
		return nil, err
	}

	modulePath := modulePath(dir)
	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}

	conflicts, err := magic.ParseConflictPolicy(firstNonEmpty(env.Conflicts, cfg.Engine.Conflicts))
	if err != nil {
		return nil, fmt.Errorf("engine.conflicts: %w", err)
	}

	maxPasses := cfg.Engine.MaxPasses
	if env.MaxPasses != 0 {
		maxPasses = env.MaxPasses
	}
	if maxPasses < 0 {
		return nil, fmt.Errorf("engine.max_passes must not be negative (got %d)", maxPasses)
	}

	debug := cfg.Engine.Debug
	if env.Debug != "" {
		debug, err = strconv.ParseBool(env.Debug)
		if err != nil {
			return nil, fmt.Errorf("MAGIC_DEBUG: %w", err)
		}
	}

	level, err := parseLevel(firstNonEmpty(env.LogLevel, cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	if debug {
		level = min(level, slog.LevelDebug)
	}

	step := DefaultDemoStep
	if cfg.Demo.Step != "" {
		step, err = time.ParseDuration(cfg.Demo.Step)
		if err != nil {
			return nil, fmt.Errorf("demo.step: %w", err)
		}
	}

	return &Resolved{
		Root:       dir,
		ModulePath: modulePath,
		AppName:    appName,
		Version:    version,
		Conflicts:  conflicts,
		MaxPasses:  maxPasses,
		Debug:      debug,
		LogLevel:   level,
		DemoAddr:   firstNonEmpty(env.Addr, cfg.Demo.Addr),
		DemoStep:   step,
	}, nil
}

// FindProjectRoot walks up from the current directory to find go.mod or
// magic.yaml. Outside a project it returns the current directory.
func FindProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := wd; ; {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

// checkVersion validates the schema version and returns it in canonical
// form. An empty version means the current schema.
func checkVersion(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return SchemaVersion, nil
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("version %q is not a semantic version", v)
	}
	if semver.Major(v) != semver.Major(SchemaVersion) {
		return "", fmt.Errorf("unsupported config version %s (this CLI reads %s)", v, semver.Major(SchemaVersion))
	}
	if semver.Compare(v, SchemaVersion) > 0 {
		slog.Warn("config version is newer than this CLI; unknown settings are ignored", "version", v, "supported", SchemaVersion)
	}
	return semver.Canonical(v), nil
}

func modulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modName, _, ok := module.SplitPathVersion(modulePath); ok && modName != "" {
		parts := strings.Split(modName, "/")
		base = parts[len(parts)-1]
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "magic_app"
	}
	return base
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
