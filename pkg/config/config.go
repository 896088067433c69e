// Package config holds the settings shared by all blepoll commands. Defaults come from struct
// tags, an optional YAML file overlays them and command-line flags overlay the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// LogLevel is one of debug, info, warn, error. Empty keeps the logger silent.
	LogLevel       string        `yaml:"log_level" json:"log_level"`
	ScanWindow     time.Duration `yaml:"scan_window" json:"scan_window" default:"5s"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout" default:"30s"`
	OutputFormat   string        `yaml:"output_format" json:"output_format" default:"text"`
	NoColor        bool          `yaml:"no_color" json:"no_color"`

	// Name watcher: connects to every device advertising this exact name.
	TargetName   string        `yaml:"target_name" json:"target_name" default:"ESP32"`
	NameInterval time.Duration `yaml:"name_interval" json:"name_interval" default:"0s"`

	// Address watcher: prints the details of the device with this exact address.
	TargetAddress   string        `yaml:"target_address" json:"target_address" default:"7C:DF:A1:E8:7B:CE"`
	AddressInterval time.Duration `yaml:"address_interval" json:"address_interval" default:"1s"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load returns the defaults overlaid with the YAML file at path. An empty path returns the
// defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.OutputFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format '%s': must be one of [text json]", c.OutputFormat)
	}
	if c.ScanWindow <= 0 {
		return fmt.Errorf("scan window must be positive, got %s", c.ScanWindow)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.NameInterval < 0 || c.AddressInterval < 0 {
		return fmt.Errorf("poll intervals must not be negative")
	}
	if strings.TrimSpace(c.TargetName) == "" {
		return fmt.Errorf("target name is empty")
	}
	if strings.TrimSpace(c.TargetAddress) == "" {
		return fmt.Errorf("target address is empty")
	}
	return nil
}

// ParseLevel maps a log level name to a logrus level. The empty string means silent.
func ParseLevel(level string) (logrus.Level, error) {
	switch level {
	case "":
		return logrus.PanicLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.PanicLevel, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
}

// NewLogger creates a configured logger instance writing to stderr
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger, nil
}
