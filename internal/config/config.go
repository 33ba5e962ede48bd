// Package config loads plautoload settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/plautoload/internal/autoload"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = ".plautoload.yaml"

// Environment variables that override the file.
const (
	EnvLibraryPath = "PLAUTOLOAD_LIBRARY_PATH"
	EnvMaxPasses   = "PLAUTOLOAD_MAX_PASSES"
)

// Config holds all plautoload configuration.
type Config struct {
	// Directories searched for autoload libraries, in priority order.
	LibraryDirs []string `yaml:"library_dirs"`

	// Verbose enables the per-pass and summary reports.
	Verbose bool `yaml:"verbose"`

	// MaxPasses caps the fixpoint iteration.
	MaxPasses int `yaml:"max_passes"`

	// IndexCache is the library index cache file. Empty disables caching.
	IndexCache string `yaml:"index_cache"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	LogJSON  bool   `yaml:"log_json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Verbose:   true,
		MaxPasses: autoload.DefaultMaxPasses,
		LogLevel:  "info",
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvLibraryPath); v != "" {
		var dirs []string
		for _, d := range strings.Split(v, string(os.PathListSeparator)) {
			if d != "" {
				dirs = append(dirs, d)
			}
		}
		c.LibraryDirs = dirs
	}
	if v := os.Getenv(EnvMaxPasses); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxPasses, v, err)
		}
		c.MaxPasses = n
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.MaxPasses < 1 {
		return fmt.Errorf("max_passes must be at least 1, got %d", c.MaxPasses)
	}
	for _, d := range c.LibraryDirs {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("library_dirs contains an empty entry")
		}
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}
