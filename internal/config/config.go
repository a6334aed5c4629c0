// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all dashboard configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// LeadReach backend API
	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:4000"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`

	// Cache (Redis). Required in production; an in-process store is used otherwise.
	RedisURL string `env:"REDIS_URL"`

	// Activity log (PostgreSQL). Optional.
	DatabaseURL string `env:"DATABASE_URL"`

	// Sessions
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"leadreach_session"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Dashboard behaviour
	GroupsStaleTime      time.Duration `env:"GROUPS_STALE_TIME" envDefault:"30s"`
	DefaultDiscoverLimit int           `env:"DEFAULT_DISCOVER_LIMIT" envDefault:"50"`

	// Login rate limiting per client IP. Zero disables it.
	LoginRateLimitPerMinute int  `env:"LOGIN_RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	LoginRateLimitBurst     int  `env:"LOGIN_RATE_LIMIT_BURST" envDefault:"5"`
	TrustProxy              bool `env:"TRUST_PROXY" envDefault:"false"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. Writes cover a full backend round trip.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProduction() && c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required in production"))
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL))
	}

	if c.DefaultDiscoverLimit < 1 {
		errs = append(errs, fmt.Errorf("DEFAULT_DISCOVER_LIMIT must be at least 1, got %d", c.DefaultDiscoverLimit))
	}
	if c.LoginRateLimitPerMinute < 0 || c.LoginRateLimitBurst < 0 {
		errs = append(errs, errors.New("login rate limit values must not be negative"))
	}
	if c.LoginRateLimitPerMinute > 0 && c.LoginRateLimitBurst < 1 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
