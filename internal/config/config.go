// Package config loads the application configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings.
type Config struct {
	Feed struct {
		// Endpoint overrides the trade feed WebSocket URL.
		Endpoint string `yaml:"endpoint"`
	} `yaml:"feed"`

	API struct {
		// BaseURL overrides the REST base used for event history.
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`

	Pool struct {
		// ID selects the pool directly.
		ID int64 `yaml:"id"`

		// ConfigPath points at a page-embedded pool configuration JSON
		// dump, used when ID is unset.
		ConfigPath string `yaml:"config_path"`
	} `yaml:"pool"`

	Storage struct {
		// Path is the SQLite preference database location.
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		// Level is the zerolog level name ("debug", "info", ...).
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.Path = "photontools.db"
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty), then
// applies environment overrides: FEED_ENDPOINT, API_BASE_URL, POOL_ID,
// DB_PATH and LOG_LEVEL.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("FEED_ENDPOINT"); v != "" {
		cfg.Feed.Endpoint = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("POOL_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid POOL_ID %q: %w", v, err)
		}
		cfg.Pool.ID = id
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
