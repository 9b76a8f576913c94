package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix     = "MOCKMETRICS_"
	EnvConfigFile = "MOCKMETRICS_CONFIG"
	EnvPort       = "PORT"
	EnvDBURL      = "DATABASE_URL"
	EnvDBName     = "DATABASE_NAME"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MOCKMETRICS_CONFIG is set
//  3. PORT, DATABASE_URL, DATABASE_NAME
//  4. env (prefix MOCKMETRICS_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Well-known platform variables, unprefixed.
	var portErr error
	wellKnown := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		switch key {
		case EnvPort:
			if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
				portErr = fmt.Errorf("%w: PORT %q is not a number", ErrInvalidConfig, value)
				return "", nil
			}
			return "addr", ":" + strings.TrimSpace(value)
		case EnvDBURL:
			return "database_url", value
		case EnvDBName:
			return "database_name", value
		default:
			return "", nil
		}
	})
	if err := k.Load(wellKnown, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if portErr != nil {
		return nil, portErr
	}

	// Environment variables: MOCKMETRICS_ADDR, MOCKMETRICS_WIN_COUNT, ...
	// Map env keys like MOCKMETRICS_WIN_COUNT -> win_count (flat keys).
	prefixed := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		if s == "config" {
			return ""
		}
		return s
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// ZeroFields makes lists from file/env replace the defaults instead of
	// being merged element-wise into them.
	dc := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:           &cfg,
		TagName:          "koanf",
		WeaklyTypedInput: true,
		ZeroFields:       true,
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", DecoderConfig: dc}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks fields that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.Database.ProbeTimeout <= 0 {
		return fmt.Errorf("%w: database_probe_timeout must be positive", ErrInvalidConfig)
	}
	if _, err := c.Mock.Catalog(); err != nil {
		return err
	}
	return nil
}
