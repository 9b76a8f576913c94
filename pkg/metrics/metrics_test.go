package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "mockmetrics")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordPayloadGenerated(PayloadTrials)

			Convey("Then the metric names and labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_payloads_generated_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording HTTP traffic", func() {
			m.RecordHTTPRequest("/api/metrics", "GET", "200")
			m.RecordHTTPRequest("/api/metrics", "GET", "200")
			m.RecordHTTPRequestDuration("/api/metrics", "GET", "200", 1.5)

			Convey("Then the counter reflects each request", func() {
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/metrics", "GET", "200")), ShouldEqual, 2.0)
			})
		})

		Convey("When recording payloads and probes", func() {
			m.RecordPayloadGenerated(PayloadMetrics)
			m.RecordDBProbe("connected", 3)
			m.RecordDBProbe("module_missing", 0)

			Convey("Then each label is counted separately", func() {
				So(testutil.ToFloat64(m.payloadsGenerated.WithLabelValues(PayloadMetrics)), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.dbProbes.WithLabelValues("connected")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.dbProbes.WithLabelValues("module_missing")), ShouldEqual, 1.0)
			})
		})

		Convey("When updating system gauges", func() {
			m.UpdateSystemMemoryUsage(2048)
			m.UpdateSystemGoroutineCount(12)

			Convey("Then the gauges hold the latest values", func() {
				So(testutil.ToFloat64(m.systemMemoryUsage), ShouldEqual, 2048.0)
				So(testutil.ToFloat64(m.systemGoroutineCount), ShouldEqual, 12.0)
			})
		})

		Convey("When recording endpoint errors", func() {
			m.RecordErrorByEndpoint("/nope", "GET", "not_found")

			Convey("Then the error is exposed in text format", func() {
				expected := `
# HELP mockmetrics_api_errors_by_endpoint_total Total number of errors by endpoint, method and type
# TYPE mockmetrics_api_errors_by_endpoint_total counter
mockmetrics_api_errors_by_endpoint_total{endpoint="/nope",error_type="not_found",method="GET"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "mockmetrics_api_errors_by_endpoint_total")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestDisabledManager(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

		Convey("When recording", func() {
			m.RecordPayloadGenerated(PayloadMetrics)
			m.RecordHTTPRequest("/", "GET", "200")

			Convey("Then nothing is counted", func() {
				So(testutil.ToFloat64(m.payloadsGenerated.WithLabelValues(PayloadMetrics)), ShouldEqual, 0.0)
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/", "GET", "200")), ShouldEqual, 0.0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package helpers do not panic", func() {
			So(func() {
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 0.2)
				RecordPayloadGenerated(PayloadMetrics)
				RecordDBProbe("connected", 1)
				RecordErrorByEndpoint("/x", "GET", "not_found")
				UpdateSystemMemoryUsage(1)
				UpdateSystemGoroutineCount(1)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
