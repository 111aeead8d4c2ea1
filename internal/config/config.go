// Package config loads champtrack configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/champtrack/champtrack/internal/oauth"
)

// Config is the full champtrack configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	Detector  DetectorConfig  `yaml:"detector"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Providers oauth.Config    `yaml:"providers"`
	Verbose   bool            `yaml:"-"` // set via CLI flag
}

// DatabaseConfig contains store settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"CHAMPTRACK_DB_PATH"`
}

// APIConfig contains HTTP API settings.
type APIConfig struct {
	Address      string `yaml:"address"`
	JWTSecret    string `yaml:"jwt_secret" env:"CHAMPTRACK_JWT_SECRET"`
	WebhookToken string `yaml:"webhook_token" env:"CHAMPTRACK_WEBHOOK_TOKEN"`
}

// DetectorConfig contains move-detection settings.
type DetectorConfig struct {
	Window time.Duration `yaml:"window"` // lookback for new positions (default: 24h)
}

// DispatchConfig contains alert-dispatch settings.
type DispatchConfig struct {
	BatchSize     int `yaml:"batch_size"`      // pending alerts per run (default: 50)
	RatePerMinute int `yaml:"rate_per_minute"` // outbound webhook deliveries per minute, 0 = unlimited
}

// RefreshConfig contains credential-refresh settings.
type RefreshConfig struct {
	Workers int `yaml:"workers"` // concurrent refresh exchanges (default: 4)
}

// SchedulerConfig contains intervals for the in-process run mode.
type SchedulerConfig struct {
	DetectInterval   time.Duration `yaml:"detect_interval"`
	DispatchInterval time.Duration `yaml:"dispatch_interval"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
}

// Load reads configuration from a YAML file, applies environment
// overrides, and fills defaults. An empty path yields the default
// configuration with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Secrets come from the environment in deployment.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with default values.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "champtrack.db"
	}
	if c.API.Address == "" {
		c.API.Address = ":8080"
	}
	if c.Detector.Window <= 0 {
		c.Detector.Window = 24 * time.Hour
	}
	if c.Dispatch.BatchSize <= 0 {
		c.Dispatch.BatchSize = 50
	}
	if c.Refresh.Workers <= 0 {
		c.Refresh.Workers = 4
	}
	if c.Scheduler.DetectInterval <= 0 {
		c.Scheduler.DetectInterval = time.Hour
	}
	if c.Scheduler.DispatchInterval <= 0 {
		c.Scheduler.DispatchInterval = 5 * time.Minute
	}
	if c.Scheduler.RefreshInterval <= 0 {
		c.Scheduler.RefreshInterval = 30 * time.Minute
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Dispatch.RatePerMinute < 0 {
		return fmt.Errorf("dispatch.rate_per_minute must not be negative")
	}
	return nil
}
