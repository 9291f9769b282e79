// Package config loads the zkcert CLI configuration (YAML + env override).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	ArtifactsDir    string    `yaml:"artifacts_dir"`    // circuit, keys and verification_key.json
	VerificationKey string    `yaml:"verification_key"` // defaults to <artifacts_dir>/verification_key.json
	DefaultSalt     string    `yaml:"default_salt"`
	Log             LogConfig `yaml:"log"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ArtifactsDir: "artifacts",
		DefaultSalt:  "default_salt",
		Log:          LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies ZKCERT_
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config load: %w", err)
		default:
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("config unmarshal: %w", err)
			}
		}
	}
	applyEnvOverrides(c)
	if _, err := c.Level(); err != nil {
		return nil, err
	}
	return c, nil
}

// Level parses the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	if c.Log.Level == "" {
		return zerolog.InfoLevel, nil
	}
	l, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("config log.level: %w", err)
	}
	return l, nil
}

// VerificationKeyPath returns the configured key path or its default inside
// the artifacts directory.
func (c *Config) VerificationKeyPath() string {
	if c.VerificationKey != "" {
		return c.VerificationKey
	}
	return filepath.Join(c.ArtifactsDir, "verification_key.json")
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("ZKCERT_ARTIFACTS_DIR"); v != "" {
		c.ArtifactsDir = v
	}
	if v := os.Getenv("ZKCERT_VERIFICATION_KEY"); v != "" {
		c.VerificationKey = v
	}
	if v := os.Getenv("ZKCERT_DEFAULT_SALT"); v != "" {
		c.DefaultSalt = v
	}
	if v := os.Getenv("ZKCERT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ZKCERT_LOG_CONSOLE"); v != "" {
		c.Log.Console = strings.ToLower(v) == "true" || v == "1"
	}
}
