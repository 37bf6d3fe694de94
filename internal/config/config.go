// Package config loads the client configuration file: where the shared
// store lives, where the local mirror directory is, and how the client
// identifies and logs itself.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	// Database is the path to the shared SQLite store.
	Database string `yaml:"database"`

	// MirrorDir holds the locally persisted keys (users, templates,
	// theme). Empty disables the mirror.
	MirrorDir string `yaml:"mirror_dir"`

	// Origin labels this client in bus envelopes and logs.
	Origin string `yaml:"origin"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database:  "guardian.db",
		MirrorDir: ".guardian",
		Origin:    "guardian-cli",
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads a YAML configuration file. Unknown fields are rejected to
// catch typos, and omitted fields keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Origin == "" {
		return fmt.Errorf("origin is required")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel translates the configured level name for slog.
func (c Config) LogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.Log.Level)
	}
}
