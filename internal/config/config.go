// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

// Package config loads server configuration from defaults, an optional YAML
// file, and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/broadside/broadside/internal/logging"
)

// Default values.
const (
	DefaultListenAddr  = "127.0.0.1:10020"
	DefaultWSPath      = "/play"
	DefaultMetricsAddr = "127.0.0.1:10021"
	DefaultTokenIssuer = "urn:broadside:token-issuer"
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
	DefaultRecvTimeout = 250 * time.Millisecond
)

// Config holds the server configuration.
type Config struct {
	ListenAddr  string `koanf:"listen-addr"`
	WSPath      string `koanf:"ws-path"`
	MetricsAddr string `koanf:"metrics-addr"`

	AuthEnabled   bool   `koanf:"auth-enabled"`
	TokenIssuer   string `koanf:"token-issuer"`
	PublicKeyFile string `koanf:"public-key-file"`

	LogFormat   string        `koanf:"log-format"`
	LogLevel    string        `koanf:"log-level"`
	RecvTimeout time.Duration `koanf:"recv-timeout"`
}

// Flags returns the flag set corresponding to the configuration keys. Flag
// defaults are the configuration defaults; a file value overrides a default,
// and an explicitly set flag overrides both.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.String("listen-addr", DefaultListenAddr, "WebSocket listen address")
	fs.String("ws-path", DefaultWSPath, "WebSocket endpoint path")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.Bool("auth-enabled", false, "require a bearer token on every connection")
	fs.String("token-issuer", DefaultTokenIssuer, "expected token issuer")
	fs.String("public-key-file", "", "PEM file with the token signing public key")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "minimum log level (debug, info, warn, error)")
	fs.Duration("recv-timeout", DefaultRecvTimeout, "receive poll timeout per connection")
	return fs
}

// Load builds the configuration from the optional YAML file at path and the
// given flag set.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (cfg *Config) Validate() error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen-addr is required")
	}
	if !strings.HasPrefix(cfg.WSPath, "/") {
		return fmt.Errorf("ws-path must start with '/', got %q", cfg.WSPath)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log-level must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	if cfg.RecvTimeout <= 0 {
		return fmt.Errorf("recv-timeout must be positive, got %s", cfg.RecvTimeout)
	}
	if cfg.AuthEnabled {
		if cfg.PublicKeyFile == "" {
			return fmt.Errorf("public-key-file is required when auth is enabled")
		}
		if cfg.TokenIssuer == "" {
			return fmt.Errorf("token-issuer is required when auth is enabled")
		}
	}
	return nil
}
