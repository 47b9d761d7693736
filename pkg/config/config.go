// Package config loads TLL configuration from YAML files and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/tll/pkg/evaluator"
)

const (
	// ProjectFile is looked up in the project directory.
	ProjectFile = ".tll.yaml"
	// EnvFile holds optional KEY=value overrides in the project directory.
	EnvFile = ".env"
)

// Environment variables that override file settings.
const (
	EnvMaxDepth      = "TLL_MAX_DEPTH"
	EnvMaxSteps      = "TLL_MAX_STEPS"
	EnvMaxIterations = "TLL_MAX_ITERATIONS"
	EnvTimeMs        = "TLL_TIME_MS"
	EnvMaxSlots      = "TLL_MAX_SLOTS"
	EnvLogLevel      = "TLL_LOG_LEVEL"
)

// Config is the effective configuration.
type Config struct {
	Budget BudgetConfig `yaml:"budget"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`

	// Source names where the file settings came from: a path or "default".
	Source string `yaml:"-"`
	// Overrides lists the environment variables that were applied.
	Overrides []string `yaml:"-"`
}

type BudgetConfig struct {
	MaxDepth      int   `yaml:"maxDepth"`
	MaxSteps      int64 `yaml:"maxSteps"`
	MaxIterations int64 `yaml:"maxIterations"`
	TimeMs        int64 `yaml:"timeMs"`
	MaxSlots      int   `yaml:"maxSlots"`
}

type OutputConfig struct {
	Pretty bool `yaml:"pretty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Budget: BudgetConfig{MaxDepth: evaluator.DefaultMaxDepth, MaxSlots: evaluator.DefaultMaxSlots},
		Log:    LogConfig{Level: "info"},
		Source: "default",
	}
}

// EvalBudget converts the budget section for the evaluator.
func (c *Config) EvalBudget() evaluator.Budget {
	return evaluator.Budget{
		MaxDepth:      c.Budget.MaxDepth,
		MaxSteps:      c.Budget.MaxSteps,
		MaxIterations: c.Budget.MaxIterations,
		TimeMs:        c.Budget.TimeMs,
		MaxSlots:      c.Budget.MaxSlots,
	}
}

// YAML renders the configuration in file form.
func (c *Config) YAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Load resolves configuration for projectDir.
// File precedence: project (.tll.yaml) → user (~/.tll/config.yaml) → defaults.
// Then .env in projectDir and the process environment are applied, the
// process environment winning. Missing files are skipped; malformed ones are
// errors.
func Load(projectDir string) (*Config, error) {
	cfg, err := loadFiles(projectDir)
	if err != nil {
		return nil, err
	}

	dotenv, err := godotenv.Read(filepath.Join(projectDir, EnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", EnvFile, err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFiles(projectDir string) (*Config, error) {
	projectPath := filepath.Join(projectDir, ProjectFile)
	cfg, err := loadFile(projectPath)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if homeDir, herr := os.UserHomeDir(); herr == nil {
		userPath := filepath.Join(homeDir, ".tll", "config.yaml")
		cfg, err := loadFile(userPath)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return Default(), nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int64
	}{
		{EnvMaxSteps, &c.Budget.MaxSteps},
		{EnvMaxIterations, &c.Budget.MaxIterations},
		{EnvTimeMs, &c.Budget.TimeMs},
	}
	for _, e := range ints {
		raw, ok := lookup(e.key)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
		c.Overrides = append(c.Overrides, e.key)
	}

	smallInts := []struct {
		key string
		dst *int
	}{
		{EnvMaxDepth, &c.Budget.MaxDepth},
		{EnvMaxSlots, &c.Budget.MaxSlots},
	}
	for _, e := range smallInts {
		raw, ok := lookup(e.key)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
		c.Overrides = append(c.Overrides, e.key)
	}
	if raw, ok := lookup(EnvLogLevel); ok && raw != "" {
		c.Log.Level = strings.ToLower(strings.TrimSpace(raw))
		c.Overrides = append(c.Overrides, EnvLogLevel)
	}
	return nil
}

// Validate rejects negative limits and unknown log levels.
func (c *Config) Validate() error {
	if c.Budget.MaxDepth < 0 || c.Budget.MaxSteps < 0 || c.Budget.MaxIterations < 0 || c.Budget.TimeMs < 0 || c.Budget.MaxSlots < 0 {
		return fmt.Errorf("budget limits must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (want debug, info, warn or error)", c.Log.Level)
	}
	return nil
}
