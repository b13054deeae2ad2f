// Package config loads daemon and CLI settings from ~/.wtg/config.yaml with
// WTG_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/worldtime/internal/models"
)

// Ledger codecs.
const (
	LedgerText = "text"
	LedgerJSON = "json"
)

// DefaultListen is the daemon's default address.
const DefaultListen = "127.0.0.1:7467"

// Config holds worldtime configuration.
type Config struct {
	// Listen is the daemon's HTTP address.
	Listen string `yaml:"listen" env:"WTG_LISTEN"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path" env:"WTG_DB"`
	// Mode is the mode of sessions created without one.
	Mode models.Mode `yaml:"mode" env:"WTG_MODE"`
	// AllowModeToggle enables the [light] and [normal] commands.
	AllowModeToggle bool `yaml:"allow_mode_toggle" env:"WTG_ALLOW_MODE_TOGGLE"`
	// LedgerFormat selects how normal-mode ledger records are encoded.
	LedgerFormat string `yaml:"ledger_format" env:"WTG_LEDGER_FORMAT"`
	// Log configures the process logger.
	Log LogConfig `yaml:"log"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" env:"WTG_LOG_LEVEL"`
	Format string `yaml:"format" env:"WTG_LOG_FORMAT"`
}

// Dir returns ~/.wtg, or .wtg when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wtg"
	}
	return filepath.Join(home, ".wtg")
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          DefaultListen,
		DBPath:          filepath.Join(Dir(), "wtg.db"),
		Mode:            models.ModeLightweight,
		AllowModeToggle: true,
		LedgerFormat:    LedgerText,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every field holds a known value.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path cannot be empty")
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode %q (must be lightweight or normal)", c.Mode)
	}
	switch c.LedgerFormat {
	case LedgerText, LedgerJSON:
	default:
		return fmt.Errorf("invalid ledger_format %q (must be text or json)", c.LedgerFormat)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a YAML file, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
