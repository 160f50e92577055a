package config

import (
	"time"

	"github.com/providerkit/providerkit/internal/llm"
)

// Config represents the complete application configuration.
// Layers, lowest precedence first: SetDefaults, the YAML config file,
// then PROVIDERKIT_* environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       llm.Config      `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AdminToken enables the bearer-token protected signal endpoint when set.
	AdminToken string `mapstructure:"admin_token"`
}

// RateLimitConfig controls model cooldown tracking.
type RateLimitConfig struct {
	// Cooldown is how long a model stays unavailable after a rate limit response.
	Cooldown time.Duration `mapstructure:"cooldown"`

	// CleanupInterval is how often expired cooldown entries are dropped.
	// Zero disables the background cleanup.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: simple, structured
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus exporter port.
	// Metrics are also proxied on the main HTTP port at /metrics.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
