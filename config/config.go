// Package config provides shared configuration loading for services
// and CLI tools consuming the Bonsai clients: environment variable
// helpers, optional .env loading and a YAML profile file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for the CLI profile.
	DefaultConfigDir = ".bonsai"
	// DefaultConfigFile is the default profile file name.
	DefaultConfigFile = "config.yaml"
)

// Duration is a time.Duration that reads and writes YAML as a duration
// string like "5s".
type Duration time.Duration

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the endpoints and client knobs shared by consumers.
type Config struct {
	BonsaiURL       string `yaml:"bonsai_url,omitempty"`
	AuditLogURL     string `yaml:"audit_log_url,omitempty"`
	NotificationURL string `yaml:"notification_url,omitempty"`

	// Token is a bearer token stored by `bonsai login`.
	Token string `yaml:"token,omitempty"`

	Timeout Duration `yaml:"timeout,omitempty"`
	Retries int      `yaml:"retries,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		BonsaiURL:       "http://localhost:8000",
		AuditLogURL:     "http://localhost:8010",
		NotificationURL: "http://localhost:8020",
		Timeout:         Duration(5 * time.Second),
		Retries:         2,
		LogLevel:        "info",
	}
}

// DefaultPath returns the profile location: $BONSAI_CONFIG when set,
// otherwise ~/.bonsai/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("BONSAI_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DefaultConfigDir, DefaultConfigFile)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}

// Load reads the profile at path (DefaultPath when empty), merging a
// local .env file and environment variable overrides on top of the
// defaults. A missing profile file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the profile to path (DefaultPath when empty), creating
// the directory as needed. Used by the CLI to persist tokens.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	c.BonsaiURL = GetString("BONSAI_API_URL", c.BonsaiURL)
	c.AuditLogURL = GetString("BONSAI_AUDIT_LOG_URL", c.AuditLogURL)
	c.NotificationURL = GetString("BONSAI_NOTIFICATION_URL", c.NotificationURL)
	c.Token = GetString("BONSAI_TOKEN", c.Token)
	c.Timeout = Duration(GetDuration("BONSAI_TIMEOUT", time.Duration(c.Timeout)))
	c.Retries = GetInt("BONSAI_RETRIES", c.Retries)
	c.LogLevel = GetString("BONSAI_LOG_LEVEL", c.LogLevel)
}

// RequestTimeout returns the per-request timeout as a time.Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout)
}

// MaxRetries returns the retry budget as expected by the client core.
func (c *Config) MaxRetries() uint64 {
	if c.Retries < 0 {
		return 0
	}
	return uint64(c.Retries)
}
