package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test_namespace")
			subsystemOpt := WithSubsystem("test_subsystem")
			metricPrefixOpt := WithMetricPrefix("test_prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "smaile")
				So(manager.subsystem, ShouldEqual, "mirror")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names should carry the prefix", func() {
				So(manager, ShouldNotBeNil)
				manager.cyclesTotal.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_namespace_test_subsystem_test_prefix_cycles_total")
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should panic on duplicate registration", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording loop metrics", func() {
			before := testutil.ToFloat64(globalManager.cyclesTotal)
			RecordCycle()
			RecordCycle()

			Convey("Then the cycle counter should grow", func() {
				So(testutil.ToFloat64(globalManager.cyclesTotal), ShouldEqual, before+2)
			})
		})

		Convey("When recording frames by kind", func() {
			before := testutil.ToFloat64(globalManager.framesByKind.WithLabelValues("full_update"))
			RecordFrame("full_update")

			Convey("Then the labelled counter should grow", func() {
				So(testutil.ToFloat64(globalManager.framesByKind.WithLabelValues("full_update")), ShouldEqual, before+1)
			})
		})

		Convey("When recording detector metrics", func() {
			before := testutil.ToFloat64(globalManager.detectorErrors)

			Convey("Then nothing should panic", func() {
				So(func() {
					RecordDetection()
					RecordDetectorError()
					RecordDetectionLatency(42)
					UpdateFramesPerSecond(30)
				}, ShouldNotPanic)
				So(testutil.ToFloat64(globalManager.detectorErrors), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.framesPerSecond), ShouldEqual, 30)
			})
		})

		Convey("When recording buffer metrics", func() {
			UpdateBufferLength(12)
			before := testutil.ToFloat64(globalManager.bufferClears)
			RecordBufferClear()

			Convey("Then gauges and counters should reflect it", func() {
				So(testutil.ToFloat64(globalManager.bufferLength), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.bufferClears), ShouldEqual, before+1)
			})
		})

		Convey("When recording HTTP and error metrics", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordHTTPRequest("stats", "GET", "200")
					RecordHTTPRequestDuration("stats", "GET", "200", 3.0)
					RecordErrorByComponent("http", "client_error")
					RecordErrorByEndpoint("settings", "PUT", "client_error")
					RecordSettingChange("show_all_expressions")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording is disabled", func() {
			SetEnabled(false)
			defer SetEnabled(true)
			before := testutil.ToFloat64(globalManager.cyclesTotal)
			RecordCycle()

			Convey("Then counters should not move", func() {
				So(testutil.ToFloat64(globalManager.cyclesTotal), ShouldEqual, before)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordCycle()
		families, err := GetRegistry().Gather()

		Convey("Then it should expose the service metrics", func() {
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestRefreshInterval(t *testing.T) {
	Convey("Given managers with and without a refresh interval", t, func() {
		custom := NewManager(
			WithPrometheusRegistry(prometheus.NewRegistry()),
			WithRefreshInterval(3*time.Second),
		)
		defaults := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("Then the interval should be reported", func() {
			So(custom.RefreshInterval(), ShouldEqual, 3*time.Second)
			So(defaults.RefreshInterval(), ShouldEqual, 10*time.Second)
			So(RefreshInterval(), ShouldEqual, 10*time.Second)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a manager configured for a named kiosk", t, func() {
		prevManager, prevRegistry := globalManager, customRegistry
		defer func() { globalManager, customRegistry = prevManager, prevRegistry }()

		Configure(
			WithNamespace("booth"),
			WithMetricPrefix("kiosk"),
			WithCustomLabels(map[string]string{"site": "lobby"}),
			WithHistogramBuckets([]float64{1, 5, 25}),
			WithRefreshInterval(2*time.Second),
		)
		RecordCycle()
		RecordHTTPRequestDuration("/stats", "GET", "200", 3)

		Convey("Then the fresh registry should expose the renamed series", func() {
			So(GetRegistry(), ShouldNotEqual, prevRegistry)
			So(RefreshInterval(), ShouldEqual, 2*time.Second)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			byName := map[string]bool{}
			for _, f := range families {
				byName[f.GetName()] = true
				if f.GetName() == "booth_mirror_kiosk_cycles_total" {
					So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)
					So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "site")
					So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "lobby")
				}
				if f.GetName() == "booth_mirror_kiosk_http_request_duration_milliseconds" {
					So(len(f.GetMetric()[0].GetHistogram().GetBucket()), ShouldEqual, 3)
				}
			}
			So(byName["booth_mirror_kiosk_cycles_total"], ShouldBeTrue)
			So(byName["booth_mirror_kiosk_http_request_duration_milliseconds"], ShouldBeTrue)
		})
	})

	Convey("Given a manager configured with recording off", t, func() {
		prevManager, prevRegistry := globalManager, customRegistry
		defer func() { globalManager, customRegistry = prevManager, prevRegistry }()

		Configure(WithMetricsEnabled(false))
		RecordCycle()

		Convey("Then counters should stay at zero", func() {
			So(testutil.ToFloat64(globalManager.cyclesTotal), ShouldEqual, 0)
		})
	})
}
