package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Fieldlink Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Tester   TesterConfig   `yaml:"tester"`
	TSDB     TSDBConfig     `yaml:"tsdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig contains instance identification.
type ServiceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// TesterConfig contains connection-test limits.
type TesterConfig struct {
	// TimeoutSeconds bounds a full test including cleanup.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// QuickTimeoutSeconds bounds a reachability-only quick test.
	QuickTimeoutSeconds int `yaml:"quick_timeout_seconds"`

	// BatchConcurrency is the window size for batch tests.
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// TSDBConfig contains InfluxDB connection settings for test telemetry.
type TSDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FIELDLINK_SECTION_KEY
// For example: FIELDLINK_DATABASE_PATH, FIELDLINK_TSDB_TOKEN
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ID:   "fieldlink-001",
			Name: "Fieldlink",
		},
		Database: DatabaseConfig{
			Path:        "./data/fieldlink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Tester: TesterConfig{
			TimeoutSeconds:      10,
			QuickTimeoutSeconds: 3,
			BatchConcurrency:    5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FIELDLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FIELDLINK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FIELDLINK_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("FIELDLINK_TSDB_URL"); v != "" {
		cfg.TSDB.URL = v
	}
	if v := os.Getenv("FIELDLINK_TSDB_TOKEN"); v != "" {
		cfg.TSDB.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Service.ID == "" {
		errs = append(errs, "service.id is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.Tester.TimeoutSeconds < 1 {
		errs = append(errs, "tester.timeout_seconds must be at least 1")
	}
	if c.Tester.QuickTimeoutSeconds < 1 {
		errs = append(errs, "tester.quick_timeout_seconds must be at least 1")
	}
	if c.Tester.QuickTimeoutSeconds > c.Tester.TimeoutSeconds {
		errs = append(errs, "tester.quick_timeout_seconds must not exceed tester.timeout_seconds")
	}
	if c.Tester.BatchConcurrency < 1 {
		errs = append(errs, "tester.batch_concurrency must be at least 1")
	}
	if c.TSDB.Enabled {
		if c.TSDB.URL == "" {
			errs = append(errs, "tsdb.url is required when tsdb is enabled")
		}
		if c.TSDB.Token == "" {
			errs = append(errs, "tsdb.token is required when tsdb is enabled (set FIELDLINK_TSDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTestTimeout returns the full-test timeout as a Duration.
func (c *Config) GetTestTimeout() time.Duration {
	return time.Duration(c.Tester.TimeoutSeconds) * time.Second
}

// GetQuickTestTimeout returns the quick-test timeout as a Duration.
func (c *Config) GetQuickTestTimeout() time.Duration {
	return time.Duration(c.Tester.QuickTimeoutSeconds) * time.Second
}
