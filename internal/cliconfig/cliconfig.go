// Package cliconfig loads the CLI's config.yaml and resolves the backend URL.
package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/leadreach/leadreach/internal/backend"
)

// Names of the config file and the environment override.
const (
	FileName  = "config.yaml"
	EnvAPIURL = "LEADREACH_API_URL"
	EnvDir    = "LEADREACH_CONFIG_DIR"
)

// Config is the contents of config.yaml.
type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	// DefaultLimit pre-fills discover --limit when set.
	DefaultLimit int `yaml:"default_limit,omitempty"`
}

// Dir returns the CLI config directory: $LEADREACH_CONFIG_DIR, else
// ~/.config/leadreach.
func Dir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "leadreach"), nil
}

// Load reads dir/config.yaml. A missing file yields an empty Config.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Save writes cfg to dir/config.yaml.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// APIURL picks the backend URL: flag, then $LEADREACH_API_URL, then the
// config file, then the default.
func (c *Config) APIURL(flagValue string) string {
	switch {
	case flagValue != "":
		return flagValue
	case os.Getenv(EnvAPIURL) != "":
		return os.Getenv(EnvAPIURL)
	case c.APIBaseURL != "":
		return c.APIBaseURL
	default:
		return backend.DefaultBaseURL
	}
}
