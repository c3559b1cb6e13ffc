// Package config loads the SDK configuration from a YAML file and can
// watch it for changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes "30s" style YAML values.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RedisConfig points the cross-instance broadcaster at a redis server.
// An empty address disables it.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// RealtimeConfig points the status subscriber at the websocket endpoint.
type RealtimeConfig struct {
	URL string `yaml:"url"`
}

// Config is the full SDK configuration.
type Config struct {
	// BaseURL targets the REST backend, including any path prefix.
	BaseURL string `yaml:"baseUrl"`
	// AppID and AppVersion identify this client on every call.
	AppID      string `yaml:"appId"`
	AppVersion string `yaml:"appVersion"`
	// Timeout bounds each API call. Zero means the client default.
	Timeout Duration `yaml:"timeout"`
	// SnapshotDir hosts the session and filter snapshots. Empty disables
	// persistence.
	SnapshotDir string `yaml:"snapshotDir"`
	// LogLevel is a logrus level name; empty means "info".
	LogLevel string `yaml:"logLevel"`

	Redis    RedisConfig    `yaml:"redis"`
	Realtime RealtimeConfig `yaml:"realtime"`
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("config: baseUrl is required")
	}
	if strings.TrimSpace(c.AppID) == "" {
		return errors.New("config: appId is required")
	}
	return nil
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
