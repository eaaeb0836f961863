// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

// Package config loads service configuration from file, environment, and
// command-line flags, in increasing order of precedence.
package config

import (
	"os"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the service configuration.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string. Falls back to the
	// DATABASE_URL environment variable when unset.
	DatabaseURL string `koanf:"database_url"`
	// MetricsAddr is the listen address of the metrics/health server.
	MetricsAddr string `koanf:"metrics_addr"`
	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`
	// AutoMigrate applies pending migrations on service start.
	AutoMigrate bool `koanf:"auto_migrate"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		MetricsAddr: "127.0.0.1:9100",
		LogFormat:   "json",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (when
// non-empty), then set flags. Flag names map to config keys with dashes
// replaced by underscores.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}
	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, oops.Code("CONFIG_INVALID").
			With("log_format", cfg.LogFormat).
			Errorf("log_format must be json or text")
	}
	return &cfg, nil
}
