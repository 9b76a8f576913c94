package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/mockmetrics/internal/config"
	"github.com/okian/mockmetrics/internal/domain/mockdata"
	"github.com/okian/mockmetrics/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestBuildApp(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.Mock.Seed = 99

		convey.Convey("When building the application", func() {
			handler, svc, err := buildApp(ctx, cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then every public route answers", func() {
				for _, path := range []string{"/", "/api/hello", "/api/metrics", "/api/trials", "/test", "/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
					w := httptest.NewRecorder()
					handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("And the metrics payload follows the live preset", func() {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", http.NoBody))
				var body mockdata.MetricsResponse
				convey.So(json.NewDecoder(w.Body).Decode(&body), convey.ShouldBeNil)
				convey.So(mockdata.ValidateMetrics(mockdata.LivePreset(), body), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the mock config is invalid", func() {
			cfg.Mock.Variant = "unknown"
			_, _, err := buildApp(ctx, cfg, logger.NewNop())

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestBuildAppWithDatabase(t *testing.T) {
	convey.Convey("Given a config pointing at a sqlite file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "app.db")
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		convey.So(err, convey.ShouldBeNil)
		convey.So(db.Exec("CREATE TABLE campaigns (id INTEGER PRIMARY KEY)").Error, convey.ShouldBeNil)
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()

		cfg := config.New()
		cfg.Database.Enabled = true
		cfg.Database.URL = "sqlite://" + path
		cfg.Database.ProbeTimeout = 5 * time.Second

		handler, svc, err := buildApp(ctx, cfg, logger.NewNop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When calling /test", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

			convey.Convey("Then the table is listed and only presence is reported", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				raw := w.Body.String()
				convey.So(raw, convey.ShouldNotContainSubstring, path)
				var body map[string]any
				convey.So(json.Unmarshal([]byte(raw), &body), convey.ShouldBeNil)
				convey.So(body["database_state"], convey.ShouldEqual, "connected")
				convey.So(body["collections"], convey.ShouldResemble, []any{"campaigns"})
				convey.So(body["database_url"], convey.ShouldEqual, "✅ Set")
				convey.So(body["database_name"], convey.ShouldEqual, "❌ Not Set")
			})
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop stops with its context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			cancel()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
