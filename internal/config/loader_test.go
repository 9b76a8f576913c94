package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/mockmetrics/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.Mock.Variant, convey.ShouldEqual, "live")
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
				convey.So(cfg.Database.ProbeTimeout, convey.ShouldEqual, 2*time.Second)
			})
		})

		convey.Convey("When PORT and the database variables are set", func() {
			_ = os.Setenv("PORT", "9100")
			_ = os.Setenv("DATABASE_URL", "sqlite:///tmp/x.db")
			_ = os.Setenv("DATABASE_NAME", "marketing")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they map onto the config", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9100")
				convey.So(cfg.Database.URL, convey.ShouldEqual, "sqlite:///tmp/x.db")
				convey.So(cfg.Database.Name, convey.ShouldEqual, "marketing")
			})
		})

		convey.Convey("When PORT is not a number", func() {
			_ = os.Setenv("PORT", "http")

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with prefixed environment variables", func() {
			_ = os.Setenv("PORT", "9100")
			_ = os.Setenv("MOCKMETRICS_ADDR", ":9200")
			_ = os.Setenv("MOCKMETRICS_VARIANT", "catalog")
			_ = os.Setenv("MOCKMETRICS_WIN_COUNT", "3")
			_ = os.Setenv("MOCKMETRICS_BRANDS", "Acme,Globex")
			_ = os.Setenv("MOCKMETRICS_WIN_TIMESTAMPS", "false")
			_ = os.Setenv("MOCKMETRICS_DATABASE_ENABLED", "true")
			_ = os.Setenv("MOCKMETRICS_DATABASE_PROBE_TIMEOUT", "500ms")
			_ = os.Setenv("MOCKMETRICS_REVENUE_MIN", "0")
			_ = os.Setenv("MOCKMETRICS_WIN_AGE_MIN_SECONDS", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they override defaults and PORT", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9200")
				convey.So(cfg.Mock.Variant, convey.ShouldEqual, "catalog")
				convey.So(cfg.Mock.WinCount, convey.ShouldEqual, 3)
				convey.So(cfg.Mock.Brands, convey.ShouldResemble, []string{"Acme", "Globex"})
				convey.So(cfg.Mock.WinTimestamps, convey.ShouldNotBeNil)
				convey.So(*cfg.Mock.WinTimestamps, convey.ShouldBeFalse)
				convey.So(cfg.Database.Enabled, convey.ShouldBeTrue)
				convey.So(cfg.Database.ProbeTimeout, convey.ShouldEqual, 500*time.Millisecond)
				convey.So(cfg.Mock.RevenueMin, convey.ShouldNotBeNil)
				convey.So(*cfg.Mock.RevenueMin, convey.ShouldEqual, 0.0)
				convey.So(cfg.Mock.WinAgeMinSec, convey.ShouldNotBeNil)
				convey.So(*cfg.Mock.WinAgeMinSec, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_format: json
cors_allowed_origins:
  - https://app.example.com
variant: live
seed: 42
trial_count: 5
markets: [IN, US]
database_enabled: true
database_probe_timeout: 3s
`
			_ = os.Setenv("MOCKMETRICS_CONFIG", createTempConfigFile(t, yamlContent))
			_ = os.Setenv("MOCKMETRICS_TRIAL_COUNT", "7")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML with env taking precedence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://app.example.com"})
				convey.So(cfg.Mock.Seed, convey.ShouldEqual, 42)
				convey.So(cfg.Mock.TrialCount, convey.ShouldEqual, 7)
				convey.So(cfg.Mock.Markets, convey.ShouldResemble, []string{"IN", "US"})
				convey.So(cfg.Database.Enabled, convey.ShouldBeTrue)
				convey.So(cfg.Database.ProbeTimeout, convey.ShouldEqual, 3*time.Second)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("MOCKMETRICS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the mock overrides are invalid", func() {
			_ = os.Setenv("MOCKMETRICS_VARIANT", "nope")

			_, err := config.Load(ctx)

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions
func clearConfigEnvVars() {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "DATABASE_NAME",
		"MOCKMETRICS_CONFIG", "MOCKMETRICS_ADDR", "MOCKMETRICS_VARIANT",
		"MOCKMETRICS_WIN_COUNT", "MOCKMETRICS_BRANDS", "MOCKMETRICS_WIN_TIMESTAMPS",
		"MOCKMETRICS_DATABASE_ENABLED", "MOCKMETRICS_DATABASE_PROBE_TIMEOUT",
		"MOCKMETRICS_TRIAL_COUNT", "MOCKMETRICS_REVENUE_MIN", "MOCKMETRICS_WIN_AGE_MIN_SECONDS",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
