// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

// Package config loads wepieces settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/wepieces/wepieces/internal/xdg"
)

// EnvPrefix is stripped from environment variables; WEPIECES_HTTP_ADDR sets
// http.addr.
const EnvPrefix = "WEPIECES_"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the fully resolved configuration.
type Config struct {
	Env      string         `koanf:"env"`
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type MetricsConfig struct {
	// Addr is empty to disable the observability server.
	Addr string `koanf:"addr"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type AuthConfig struct {
	Secret     string        `koanf:"secret"`
	SessionTTL time.Duration `koanf:"session_ttl"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

var defaults = map[string]any{
	"env":              EnvDevelopment,
	"http.addr":        "127.0.0.1:3000",
	"metrics.addr":     "127.0.0.1:9100",
	"auth.session_ttl": 24 * time.Hour,
	"log.format":       "json",
	"log.level":        "info",
}

// flagKeys maps command-line flag names to configuration keys. Flags not
// listed here are not configuration.
var flagKeys = map[string]string{
	"env":          "env",
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"database-url": "database.url",
	"log-format":   "log.format",
	"log-level":    "log.level",
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is an explicit config path. It must exist. When empty the XDG
	// default is used if present.
	File string
	// Flags are applied last; only flags the user set override other sources.
	Flags *pflag.FlagSet
	// Environ replaces os.Environ when non-nil.
	Environ []string
}

// Load resolves the configuration. Validation is left to the caller since
// commands need different subsets; see Validate and ValidateServe.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	path, explicit := opts.File, opts.File != ""
	if !explicit {
		path, _ = xdg.FindConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
			}
		}
	}

	if err := loadEnv(k, opts.Environ); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return &cfg, nil
}

func loadEnv(k *koanf.Koanf, environ []string) error {
	transform := func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		// WEPIECES_AUTH_SESSION_TTL -> auth.session_ttl: only the first
		// underscore separates sections.
		return strings.Replace(key, "_", ".", 1)
	}

	if environ == nil {
		if err := k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
			return oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
		}
		return nil
	}

	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		if err := k.Set(transform(name), value); err != nil {
			return oops.Code("CONFIG_LOAD_FAILED").With("source", "env").With("var", name).Wrap(err)
		}
	}
	return nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return invalid("env", "must be %q or %q", EnvDevelopment, EnvProduction)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "must be json or text")
	}
	return nil
}

// ValidateDatabase additionally requires a database URL.
func (c *Config) ValidateDatabase() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return invalid("database.url", "is required")
	}
	return nil
}

// ValidateServe checks everything the web server needs.
func (c *Config) ValidateServe() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.Auth.Secret == "" {
		return invalid("auth.secret", "is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return invalid("auth.session_ttl", "must be positive")
	}
	if _, _, err := net.SplitHostPort(c.HTTP.Addr); err != nil {
		return invalid("http.addr", "must be host:port")
	}
	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return invalid("metrics.addr", "must be host:port or empty")
		}
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(key+" "+format, args...)
}
