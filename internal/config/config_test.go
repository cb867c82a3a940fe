package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/smaile/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.Profile, convey.ShouldEqual, config.ProfileDesktop)
			convey.So(cfg.SilenceTimeoutMS, convey.ShouldEqual, 1000)
			convey.So(cfg.ConfidenceThreshold, convey.ShouldEqual, 0.05)
			convey.So(cfg.ChangeThreshold, convey.ShouldEqual, 0.15)
			convey.So(cfg.ShowAllExpressions, convey.ShouldBeFalse)
			convey.So(cfg.TopK, convey.ShouldEqual, 3)
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Metrics.Enabled, convey.ShouldBeTrue)
			convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "smaile")
			convey.So(cfg.Metrics.RefreshInterval(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the desktop presets should apply", func() {
			convey.So(cfg.Window(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.SilenceTimeout(), convey.ShouldEqual, time.Second)
			convey.So(cfg.Hints(), convey.ShouldResemble, config.DetectorHints{InputSize: 416, ScoreThreshold: 0.5})
		})
	})

	convey.Convey("Given the mobile profile", t, func() {
		cfg := config.New()
		cfg.Profile = "Mobile"

		convey.Convey("Then the mobile presets should apply", func() {
			convey.So(cfg.Mobile(), convey.ShouldBeTrue)
			convey.So(cfg.Window(), convey.ShouldEqual, 300*time.Millisecond)
			convey.So(cfg.Hints(), convey.ShouldResemble, config.DetectorHints{InputSize: 128, ScoreThreshold: 0.7})
		})

		convey.Convey("And an explicit window should win over the preset", func() {
			cfg.WindowMS = 750
			convey.So(cfg.Window(), convey.ShouldEqual, 750*time.Millisecond)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":             func(c *config.Config) { c.Addr = "" },
			"unknown profile":        func(c *config.Config) { c.Profile = "tablet" },
			"negative window":        func(c *config.Config) { c.WindowMS = -1 },
			"zero silence timeout":   func(c *config.Config) { c.SilenceTimeoutMS = 0 },
			"threshold above one":    func(c *config.Config) { c.ConfidenceThreshold = 1.2 },
			"negative change delta":  func(c *config.Config) { c.ChangeThreshold = -0.1 },
			"zero top k":             func(c *config.Config) { c.TopK = 0 },
			"negative tick interval": func(c *config.Config) { c.TickIntervalMS = -5 },
			"overflowing window":     func(c *config.Config) { c.WindowMS = 18446744073710 },
			"window above a minute":  func(c *config.Config) { c.WindowMS = 60_001 },
			"overflowing timeout":    func(c *config.Config) { c.SilenceTimeoutMS = 18446744073710 },
			"unknown log format":     func(c *config.Config) { c.LogFormat = "xml" },
			"zero metrics refresh":   func(c *config.Config) { c.Metrics.RefreshIntervalMS = 0 },
			"unsorted http buckets":  func(c *config.Config) { c.Metrics.HTTPBuckets = []float64{5, 1} },
			"unknown source":         func(c *config.Config) { c.Source = "webcam" },
			"replay without trace":   func(c *config.Config) { c.Source = config.SourceReplay },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+name+" should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a replay source with a trace", t, func() {
		cfg := config.New()
		cfg.Source = config.SourceReplay
		cfg.TracePath = "trace.yaml"

		convey.Convey("Then it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
