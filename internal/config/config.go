// Package config provides unified configuration loading for ensim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config contains all ensim configuration settings.
type Config struct {
	// Sampling contains settings for the ensemble sampler.
	Sampling SamplingConfig `json:"sampling" yaml:"sampling"`

	// Storage contains settings for the result-table storage engine.
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SamplingConfig configures the multi-model aggregate sampler.
type SamplingConfig struct {
	// Workers is the number of goroutines drawing rows in parallel.
	// 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`

	// MaxRows caps the LIMIT of a single SIMULATE statement.
	// Requests above the cap are rejected before any sampling begins.
	MaxRows int `json:"max_rows" yaml:"max_rows"`
}

// StorageConfig configures where result tables are materialized.
type StorageConfig struct {
	// Path is the SQLite database file for result tables.
	// Relative paths are resolved against the .ensim directory.
	Path string `json:"path" yaml:"path"`
}

// LoggingConfig configures ensim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables draw tracing to .ensim/trace.jsonl.
	// "trace" additionally records per-view category choices.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Workers: runtime.GOMAXPROCS(0),
			MaxRows: 1_000_000,
		},
		Storage: StorageConfig{
			Path: "results.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from root/.ensim/config.yaml (if present) and
// environment variables. Order: defaults -> config file -> env overrides.
func Load(root string) (*Config, error) {
	config := Default()

	configPath := filepath.Join(root, ".ensim", "config.yaml")
	if _, statErr := os.Stat(configPath); statErr == nil {
		fileConfig, loadErr := LoadFromFile(configPath)
		if loadErr != nil {
			return nil, fmt.Errorf("loading config file: %w", loadErr)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Sampling.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Sampling.Workers)
	}

	if c.Sampling.MaxRows < 1 {
		return fmt.Errorf("max_rows must be at least 1, got %d", c.Sampling.MaxRows)
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path must not be empty")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("ENSIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Sampling.Workers = n
		}
	}

	if v := os.Getenv("ENSIM_MAX_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Sampling.MaxRows = n
		}
	}

	if v := os.Getenv("ENSIM_STORAGE_PATH"); v != "" {
		config.Storage.Path = v
	}

	if v := os.Getenv("ENSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
