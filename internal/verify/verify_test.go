package verify_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/mockmetrics/internal/adapters/http/api"
	service "github.com/okian/mockmetrics/internal/app"
	"github.com/okian/mockmetrics/internal/domain/mockdata"
	"github.com/okian/mockmetrics/internal/verify"
	"github.com/okian/mockmetrics/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func startServer(t *testing.T, c mockdata.Catalog, opts ...mockdata.Option) *httptest.Server {
	t.Helper()
	g, err := mockdata.New(append([]mockdata.Option{mockdata.WithCatalog(c)}, opts...)...)
	if err != nil {
		t.Fatalf("generator: %v", err)
	}
	svc, err := service.New(service.WithLogger(logger.NewNop()), service.WithGenerator(g))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	srv := api.NewServer(svc, svc)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	ts := httptest.NewServer(srv.Handler(mux))
	t.Cleanup(ts.Close)
	return ts
}

func TestRun(t *testing.T) {
	Convey("Given a running server with the live preset", t, func() {
		ts := startServer(t, mockdata.LivePreset())
		ctx := context.Background()

		Convey("When verifying against the same preset", func() {
			rep, err := verify.Run(ctx, &verify.Config{
				BaseURL: ts.URL + "/",
				Rounds:  25,
				Workers: 4,
				Timeout: 5 * time.Second,
				Catalog: mockdata.LivePreset(),
			}, logger.NewNop())

			Convey("Then every check passes", func() {
				So(err, ShouldBeNil)
				So(rep.OK(), ShouldBeTrue)
				So(rep.MetricsChecked, ShouldEqual, 25)
				So(rep.TrialsChecked, ShouldEqual, 25)
				So(rep.DatabaseState, ShouldEqual, "module_missing")
			})
		})

		Convey("When verifying against the other preset", func() {
			rep, err := verify.Run(ctx, &verify.Config{
				BaseURL: ts.URL,
				Rounds:  3,
				Workers: 2,
				Timeout: 5 * time.Second,
				Catalog: mockdata.CatalogPreset(),
			}, logger.NewNop())

			Convey("Then the mismatches are reported", func() {
				So(errors.Is(err, verify.ErrVerificationFailed), ShouldBeTrue)
				So(rep.Failures, ShouldBeGreaterThan, 0)
				So(rep.Problems, ShouldNotBeEmpty)
			})
		})

		Convey("When the catalog is invalid", func() {
			_, err := verify.Run(ctx, &verify.Config{BaseURL: ts.URL, Rounds: 1}, logger.NewNop())

			Convey("Then the run is refused", func() {
				So(errors.Is(err, mockdata.ErrInvalidCatalog), ShouldBeTrue)
			})
		})
	})

	Convey("Given a server whose clock runs two hours behind", t, func() {
		behind := func() time.Time { return time.Now().Add(-2 * time.Hour) }
		ts := startServer(t, mockdata.LivePreset(), mockdata.WithClock(behind))

		rep, err := verify.Run(context.Background(), &verify.Config{
			BaseURL: ts.URL,
			Rounds:  2,
			Workers: 1,
			Timeout: 5 * time.Second,
			Catalog: mockdata.LivePreset(),
		}, logger.NewNop())

		Convey("Then the win timestamps are reported outside the age window", func() {
			So(errors.Is(err, verify.ErrVerificationFailed), ShouldBeTrue)
			So(rep.Failures, ShouldEqual, 2)
			So(rep.Problems[0], ShouldContainSubstring, "outside age window")
		})
	})

	Convey("Given a URL where nothing listens", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		rep, err := verify.Run(context.Background(), &verify.Config{
			BaseURL: url,
			Rounds:  2,
			Workers: 1,
			Timeout: time.Second,
			Catalog: mockdata.LivePreset(),
		}, logger.NewNop())

		Convey("Then every call is a failure", func() {
			So(errors.Is(err, verify.ErrVerificationFailed), ShouldBeTrue)
			So(rep.DatabaseState, ShouldBeEmpty)
			So(rep.Failures, ShouldBeGreaterThanOrEqualTo, 7)
		})
	})
}

func TestCommand(t *testing.T) {
	Convey("Given the verify-mocks command", t, func() {
		ts := startServer(t, mockdata.CatalogPreset())
		var out, errOut bytes.Buffer

		cmd := verify.NewCommand()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)

		Convey("When run with the matching variant flag", func() {
			cmd.SetArgs([]string{"--url", ts.URL, "--variant", "catalog", "--rounds", "5", "--workers", "2"})
			err := cmd.Execute()

			Convey("Then it succeeds and prints a summary", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "Metrics checked: 5")
				So(out.String(), ShouldContainSubstring, "Failures:        0")
			})
		})

		Convey("When run with an unknown variant", func() {
			cmd.SetArgs([]string{"--url", ts.URL, "--variant", "staging"})
			err := cmd.Execute()

			Convey("Then it fails before calling the server", func() {
				So(errors.Is(err, mockdata.ErrUnknownPreset), ShouldBeTrue)
				So(out.String(), ShouldBeEmpty)
			})
		})
	})
}
