package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lotscan/lotscan"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked for in the working directory when no
// --config flag is given. A missing file is not an error.
const DefaultConfigFile = "lotscan.yaml"

// Config holds the service settings. Every field has a working default
// so the binary runs with no config file at all.
type Config struct {
	Addr     string `yaml:"addr"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`

	// GeminiAPIKey enables the vision tier. The GEMINI_API_KEY
	// environment variable takes precedence over this field.
	GeminiAPIKey string `yaml:"gemini_api_key"`

	SuccessAlpha   float64 `yaml:"success_alpha"`
	PruneThreshold float64 `yaml:"prune_threshold"`

	RequestsPerSecond float64 `yaml:"requests_per_second"`
	PageConcurrency   int     `yaml:"page_concurrency"`
	BrowserMaxPages   int64   `yaml:"browser_max_pages"`
}

// DefaultConfig returns the configuration used when no file overrides
// anything.
func DefaultConfig() *Config {
	return &Config{
		Addr:              ":8080",
		DBPath:            defaultDBPath(),
		LogLevel:          "info",
		SuccessAlpha:      lotscan.DefaultSuccessAlpha,
		PruneThreshold:    lotscan.DefaultPruneThreshold,
		RequestsPerSecond: 1.0,
		PageConcurrency:   3,
		BrowserMaxPages:   75,
	}
}

// LoadConfig reads a yaml config file over the defaults. When path is
// empty the default file is tried and a missing file is fine; an
// explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate returns an error if the config contains unusable values.
func (c *Config) Validate() error {
	if c.SuccessAlpha <= 0 || c.SuccessAlpha >= 1 {
		return fmt.Errorf("success_alpha %v outside (0,1)", c.SuccessAlpha)
	}
	if c.PruneThreshold < 0 || c.PruneThreshold > 1 {
		return fmt.Errorf("prune_threshold %v outside [0,1]", c.PruneThreshold)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.PageConcurrency <= 0 {
		return fmt.Errorf("page_concurrency must be positive")
	}
	if c.BrowserMaxPages <= 0 {
		return fmt.Errorf("browser_max_pages must be positive")
	}
	if _, err := c.slogLevel(); err != nil {
		return err
	}
	return nil
}

// APIKey resolves the Gemini API key, preferring the environment.
func (c *Config) APIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return c.GeminiAPIKey
}

func (c *Config) slogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
}
