package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Profiles  ProfileConfig
	Surface   SurfaceConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// ProfileConfig holds mini-app profile store configuration.
type ProfileConfig struct {
	// Dir is scanned at startup for profile files (.yaml, .toml, .json,
	// .json.gz). Empty disables the on-disk store; built-ins still load.
	Dir          string `envconfig:"PROFILE_DIR" default:""`
	SeedBuiltins bool   `envconfig:"PROFILE_SEED_BUILTINS" default:"true"`
}

// SurfaceConfig holds content-surface configuration.
type SurfaceConfig struct {
	ProbeTimeout  time.Duration `envconfig:"SURFACE_PROBE_TIMEOUT" default:"10s"`
	ScriptTimeout time.Duration `envconfig:"SURFACE_SCRIPT_TIMEOUT" default:"2s"`
	UserAgent     string        `envconfig:"SURFACE_USER_AGENT" default:"Hearth-Shell/1.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"200"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"400"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8600",
			Host: "127.0.0.1",
		},
		Profiles: ProfileConfig{
			SeedBuiltins: true,
		},
		Surface: SurfaceConfig{
			ProbeTimeout:  10 * time.Second,
			ScriptTimeout: 2 * time.Second,
			UserAgent:     "Hearth-Shell/1.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 200,
			Burst:             400,
			Enabled:           true,
		},
	}
}
