// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads server settings from an optional YAML file and
// command-line flags. Flags set on the command line win over the file; the
// file wins over flag defaults.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Error codes for configuration failures.
const (
	CodeLoad    = "CONFIG_LOAD"
	CodeInvalid = "CONFIG_INVALID"
)

// Config holds the settings of the serve command.
type Config struct {
	LogFormat       string        `koanf:"log-format"`
	LogLevel        string        `koanf:"log-level"`
	LogFile         string        `koanf:"log-file"`
	MetricsAddr     string        `koanf:"metrics-addr"`
	TypesFile       string        `koanf:"types-file"`
	DatabaseURL     string        `koanf:"database-url"`
	Script          string        `koanf:"script"`
	NATSURL         string        `koanf:"nats-url"`
	NotifyPrefix    string        `koanf:"notify-prefix"`
	SaveInterval    time.Duration `koanf:"save-interval"`
	TickInterval    time.Duration `koanf:"tick-interval"`
	NotifyDepthWarn int           `koanf:"notify-depth-warn"`
	MaxTileItems    int           `koanf:"max-tile-items"`
	QueueSize       int           `koanf:"queue-size"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		LogFormat:       "json",
		LogLevel:        "info",
		MetricsAddr:     "127.0.0.1:9100",
		TypesFile:       "items.yaml",
		NotifyPrefix:    "itemcore.notify",
		SaveInterval:    5 * time.Minute,
		TickInterval:    time.Second,
		NotifyDepthWarn: 8,
		MaxTileItems:    1000,
		QueueSize:       1024,
	}
}

// RegisterFlags declares one flag per key on fs, defaulting to Defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("log-format", d.LogFormat, "log format (json or text)")
	fs.String("log-level", d.LogLevel, "minimum log level")
	fs.String("log-file", d.LogFile, "rotating log file (empty = stderr)")
	fs.String("metrics-addr", d.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("types-file", d.TypesFile, "item type table")
	fs.String("database-url", d.DatabaseURL, "PostgreSQL URL for belongings (empty = no persistence)")
	fs.String("script", d.Script, "Lua rules file (empty = none)")
	fs.String("nats-url", d.NATSURL, "NATS URL for notifications (empty = embedded broker)")
	fs.String("notify-prefix", d.NotifyPrefix, "subject prefix for notifications")
	fs.Duration("save-interval", d.SaveInterval, "how often belongings are saved")
	fs.Duration("tick-interval", d.TickInterval, "engine tick interval")
	fs.Int("notify-depth-warn", d.NotifyDepthWarn, "hook nesting depth that logs a warning (0 = off)")
	fs.Int("max-tile-items", d.MaxTileItems, "items a tile holds before refusing more")
	fs.Int("queue-size", d.QueueSize, "engine task queue capacity")
}

// Load reads path, if not empty, then applies fs.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeLoad).With("path", path).Hint("failed to read config file").Wrap(err)
		}
	}
	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code(CodeLoad).Hint("failed to read flags").Wrap(err)
		}
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeLoad).With("path", path).Wrap(err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string
	if c.LogFormat != "json" && c.LogFormat != "text" {
		problems = append(problems, "log-format must be 'json' or 'text'")
	}
	if c.TypesFile == "" {
		problems = append(problems, "types-file is required")
	}
	if c.SaveInterval < time.Second {
		problems = append(problems, "save-interval must be at least 1s")
	}
	if c.TickInterval <= 0 {
		problems = append(problems, "tick-interval must be positive")
	}
	if c.NotifyDepthWarn < 0 {
		problems = append(problems, "notify-depth-warn cannot be negative")
	}
	if c.MaxTileItems <= 0 {
		problems = append(problems, "max-tile-items must be positive")
	}
	if c.QueueSize <= 0 {
		problems = append(problems, "queue-size must be positive")
	}
	if c.NotifyPrefix == "" || strings.ContainsAny(c.NotifyPrefix, "*> ") {
		problems = append(problems, "notify-prefix must be a literal subject")
	}
	if len(problems) == 0 {
		return nil
	}
	return oops.Code(CodeInvalid).
		With("problems", problems).
		Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}
