// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Unset mock-data fields keep the preset value; range bounds accept 0.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/mockmetrics/internal/domain/mockdata"
)

const (
	defaultAddr         = ":8000"
	defaultProbeTimeout = 2 * time.Second
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000". PORT overrides it.
	Addr string `koanf:"addr"`

	// CORSAllowedOrigins lists allowed origins; "*" allows every origin.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// GreetingRoot and GreetingHello are the static messages on / and /api/hello.
	GreetingRoot  string `koanf:"greeting_root"`
	GreetingHello string `koanf:"greeting_hello"`

	Mock     MockConfig     `koanf:",squash"`
	Database DatabaseConfig `koanf:",squash"`
}

// MockConfig tunes the mock-data generator on top of a preset.
type MockConfig struct {
	// Variant picks the preset: live (canonical) or catalog.
	Variant string `koanf:"variant"`

	// Seed makes payloads reproducible; 0 seeds from the clock.
	Seed int64 `koanf:"seed"`

	RevenueMin *float64 `koanf:"revenue_min"`
	RevenueMax *float64 `koanf:"revenue_max"`
	Brands     []string `koanf:"brands"`
	Markets    []string `koanf:"markets"`

	WinCount        int      `koanf:"win_count"`
	WinDeltaMin     *float64 `koanf:"win_delta_min"`
	WinDeltaMax     *float64 `koanf:"win_delta_max"`
	WinDeltaInteger *bool    `koanf:"win_delta_integer"`
	WinTimestamps   *bool    `koanf:"win_timestamps"`
	WinAgeMinSec    *int     `koanf:"win_age_min_seconds"`
	WinAgeMaxSec    *int     `koanf:"win_age_max_seconds"`

	BeforeAfterSample *int `koanf:"before_after_sample"`

	TrialCount      int `koanf:"trial_count"`
	TrialMaxMinutes int `koanf:"trial_max_minutes"`

	AnonIDFormat      string `koanf:"anon_id_format"`
	AnonIDPrefix      string `koanf:"anon_id_prefix"`
	AnonIDTokenLength int    `koanf:"anon_id_token_length"`
}

// DatabaseConfig addresses the optional diagnostic database.
type DatabaseConfig struct {
	// Enabled mirrors installing the database module.
	Enabled bool `koanf:"database_enabled"`

	// URL and Name come from DATABASE_URL and DATABASE_NAME. Only their
	// presence is ever reported back to clients.
	URL  string `koanf:"database_url"`
	Name string `koanf:"database_name"`

	// ProbeTimeout bounds the connectivity probe.
	ProbeTimeout time.Duration `koanf:"database_probe_timeout"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               defaultAddr,
		CORSAllowedOrigins: []string{"*"},
		GreetingRoot:       "Hello from the metrics backend!",
		GreetingHello:      "Hello from the backend API!",
		Mock: MockConfig{
			Variant: mockdata.PresetLive,
		},
		Database: DatabaseConfig{
			ProbeTimeout: defaultProbeTimeout,
		},
	}
}

// Catalog resolves the preset named by Variant and applies overrides.
func (m MockConfig) Catalog() (mockdata.Catalog, error) {
	c, err := mockdata.Preset(m.Variant)
	if err != nil {
		return mockdata.Catalog{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if m.RevenueMin != nil {
		c.RevenueMin = *m.RevenueMin
	}
	if m.RevenueMax != nil {
		c.RevenueMax = *m.RevenueMax
	}
	if brands := trimmed(m.Brands); len(brands) > 0 {
		c.Brands = brands
	}
	if markets := trimmed(m.Markets); len(markets) > 0 {
		c.Markets = markets
	}
	if m.WinCount != 0 {
		c.WinCount = m.WinCount
	}
	if m.WinDeltaMin != nil {
		c.WinDeltaMin = *m.WinDeltaMin
	}
	if m.WinDeltaMax != nil {
		c.WinDeltaMax = *m.WinDeltaMax
	}
	if m.WinDeltaInteger != nil {
		c.WinDeltaInteger = *m.WinDeltaInteger
	}
	if m.WinTimestamps != nil {
		c.WinTimestamps = *m.WinTimestamps
	}
	if m.WinAgeMinSec != nil {
		c.WinAgeMinSec = *m.WinAgeMinSec
	}
	if m.WinAgeMaxSec != nil {
		c.WinAgeMaxSec = *m.WinAgeMaxSec
	}
	if m.BeforeAfterSample != nil {
		c.BeforeAfterSample = *m.BeforeAfterSample
	}
	if m.TrialCount != 0 {
		c.TrialCount = m.TrialCount
	}
	if m.TrialMaxMinutes != 0 {
		c.TrialMaxMinutes = m.TrialMaxMinutes
	}
	if m.AnonIDFormat != "" {
		c.AnonIDFormat = mockdata.AnonIDFormat(strings.ToLower(m.AnonIDFormat))
	}
	if m.AnonIDPrefix != "" {
		c.AnonIDPrefix = m.AnonIDPrefix
	}
	if m.AnonIDTokenLength != 0 {
		c.AnonIDTokenLength = m.AnonIDTokenLength
	}

	if err := c.Validate(); err != nil {
		return mockdata.Catalog{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

func trimmed(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
