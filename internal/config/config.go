package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/lumipallolabs/filegap/internal/match"
	"github.com/lumipallolabs/filegap/internal/scanner"
	"gopkg.in/yaml.v3"
)

// Color modes for console output
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents filegap configuration options
type Config struct {
	// Exclude lists folder terms skipped by every scan, in addition to -x
	Exclude []string `yaml:"exclude"`

	// Workers is the number of folders listed in parallel
	Workers int `yaml:"workers"`

	// FollowSymlinks descends into symlinked folders
	FollowSymlinks bool `yaml:"follow_symlinks"`

	// OneFileSystem stays on the root folder's device
	OneFileSystem bool `yaml:"one_file_system"`

	// Color controls colored output: auto, always or never
	Color string `yaml:"color"`

	// WatchDebounce is how long watch mode waits for changes to settle
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// DebugLog is a file receiving debug output (empty disables it)
	DebugLog string `yaml:"debug_log"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Exclude:       []string{},
		Workers:       8,
		Color:         ColorAuto,
		WatchDebounce: 500 * time.Millisecond,
	}
}

// DefaultPath returns the default config file path
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".filegap.yaml"
	}
	return filepath.Join(home, ".filegap", "config.yaml")
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are written as strings ("750ms")
	type yamlConfig struct {
		Exclude        []string `yaml:"exclude"`
		Workers        int      `yaml:"workers"`
		FollowSymlinks bool     `yaml:"follow_symlinks"`
		OneFileSystem  bool     `yaml:"one_file_system"`
		Color          string   `yaml:"color"`
		WatchDebounce  string   `yaml:"watch_debounce"`
		DebugLog       string   `yaml:"debug_log"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.Exclude != nil {
		cfg.Exclude = match.NormalizeExclusions(yamlCfg.Exclude)
	}
	if yamlCfg.Workers != 0 {
		cfg.Workers = yamlCfg.Workers
	}
	if yamlCfg.FollowSymlinks {
		cfg.FollowSymlinks = true
	}
	if yamlCfg.OneFileSystem {
		cfg.OneFileSystem = true
	}
	if yamlCfg.Color != "" {
		cfg.Color = yamlCfg.Color
	}
	if yamlCfg.WatchDebounce != "" {
		d, err := time.ParseDuration(yamlCfg.WatchDebounce)
		if err != nil {
			return nil, fmt.Errorf("invalid watch_debounce %q: %w", yamlCfg.WatchDebounce, err)
		}
		cfg.WatchDebounce = d
	}
	if yamlCfg.DebugLog != "" {
		cfg.DebugLog = yamlCfg.DebugLog
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be > 0, got %d", c.Workers)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color %q, must be one of: auto, always, never", c.Color)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must be >= 0, got %v", c.WatchDebounce)
	}
	return nil
}

// ApplyTo returns req with the configured exclusions added and the walk
// options taken from the config, which holds the effective settings once
// command line flags have been applied to it
func (c *Config) ApplyTo(req scanner.Request) scanner.Request {
	req.Exclusions = match.NormalizeExclusions(append(slices.Clone(req.Exclusions), c.Exclude...))
	req.FollowSymlinks = c.FollowSymlinks
	req.OneFileSystem = c.OneFileSystem
	return req
}

// Marshal encodes the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	out := struct {
		Exclude        []string `yaml:"exclude"`
		Workers        int      `yaml:"workers"`
		FollowSymlinks bool     `yaml:"follow_symlinks"`
		OneFileSystem  bool     `yaml:"one_file_system"`
		Color          string   `yaml:"color"`
		WatchDebounce  string   `yaml:"watch_debounce"`
		DebugLog       string   `yaml:"debug_log,omitempty"`
	}{
		Exclude:        c.Exclude,
		Workers:        c.Workers,
		FollowSymlinks: c.FollowSymlinks,
		OneFileSystem:  c.OneFileSystem,
		Color:          c.Color,
		WatchDebounce:  c.WatchDebounce.String(),
		DebugLog:       c.DebugLog,
	}
	return yaml.Marshal(out)
}

// Save writes the configuration as YAML, creating the directory if needed
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
