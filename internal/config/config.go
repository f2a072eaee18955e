package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the tabvault service.
// Environment variables are automatically parsed from the TABVAULT_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage. DBDriver "auto" picks postgres when a DSN is set, sqlite
	// otherwise.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Browser bridge endpoint (the extension-side HTTP adapter).
	BridgeURL string `envconfig:"BRIDGE_URL" default:"http://localhost:9223"`

	// Restore rate limiting. The host throttles rapid tab creation; these
	// are empirical values, tune per deployment.
	RestoreBatchSize    int `envconfig:"RESTORE_BATCH_SIZE" default:"5"`
	RestoreBatchDelayMS int `envconfig:"RESTORE_BATCH_DELAY_MS" default:"200"`

	// Snooze wake sweep period in seconds. The sweep backstops the precise
	// in-process alarm across restarts.
	SnoozeCheckSeconds int `envconfig:"SNOOZE_CHECK_SECONDS" default:"60"`
}

// ResolveDefaults derives DBDriver when set to "auto" or empty and fills
// the sqlite path default.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		c.SQLitePath = "tabvault.db"
	}
	if c.RestoreBatchSize <= 0 {
		return fmt.Errorf("RESTORE_BATCH_SIZE must be positive")
	}
	if c.RestoreBatchDelayMS < 0 {
		return fmt.Errorf("RESTORE_BATCH_DELAY_MS must not be negative")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: TABVAULT_HTTP_PORT, TABVAULT_DB_DRIVER.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("TABVAULT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("bridge_url", cfg.BridgeURL).
		Int("restore_batch_size", cfg.RestoreBatchSize).
		Int("restore_batch_delay_ms", cfg.RestoreBatchDelayMS).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:         EnvTesting,
		HTTPPort:            8080,
		DBDriver:            "auto",
		BridgeURL:           "http://localhost:9223",
		RestoreBatchSize:    5,
		RestoreBatchDelayMS: 0,
		SnoozeCheckSeconds:  1,
	}
	if err := cfg.ResolveDefaults(); err != nil {
		panic(err)
	}
	return cfg
}
