// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional .env file, an optional YAML file and env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiles select device-dependent presets.
const (
	ProfileDesktop = "desktop"
	ProfileMobile  = "mobile"
)

// Detection sources understood by the run command.
const (
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
)

// Profile presets. Windows in milliseconds.
const (
	desktopWindowMS       = 500
	mobileWindowMS        = 300
	desktopInputSize      = 416
	mobileInputSize       = 128
	desktopScoreThreshold = 0.5
	mobileScoreThreshold  = 0.7

	// maxDurationMS bounds window_ms and silence_timeout_ms.
	maxDurationMS = 60_000
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the operational HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// Profile picks the desktop or mobile presets.
	Profile string `koanf:"profile"`

	// WindowMS is the smoothing window. Zero means "use the profile preset".
	WindowMS int `koanf:"window_ms"`

	// SilenceTimeoutMS is how long the face may be missing before the
	// smoothing window is dropped.
	SilenceTimeoutMS int `koanf:"silence_timeout_ms"`

	// ConfidenceThreshold is the display floor in [0,1].
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// ChangeThreshold is the hysteresis delta in [0,1].
	ChangeThreshold float64 `koanf:"change_threshold"`

	// ShowAllExpressions bypasses stabilization and shows every category.
	ShowAllExpressions bool `koanf:"show_all_expressions"`

	// ShowStats prints FPS and detection time alongside the display.
	ShowStats bool `koanf:"show_stats"`

	// TopK is how many categories the stabilized view shows.
	TopK int `koanf:"top_k"`

	// TickIntervalMS spaces detection cycles. Zero runs them back to back.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// Source selects where detections come from: synthetic or replay.
	Source string `koanf:"source"`

	// TracePath is the YAML trace read by the replay source.
	TracePath string `koanf:"trace_path"`

	// SyntheticSeed seeds the synthetic source.
	SyntheticSeed int64 `koanf:"synthetic_seed"`

	// Metrics configures the Prometheus series served on /healthz. Its keys
	// are flat (metrics_enabled, metrics_namespace, ...).
	Metrics MetricsConfig `koanf:",squash"`
}

// MetricsConfig names and labels the exported series.
type MetricsConfig struct {
	Enabled           bool              `koanf:"metrics_enabled"`
	Namespace         string            `koanf:"metrics_namespace"`
	Subsystem         string            `koanf:"metrics_subsystem"`
	Prefix            string            `koanf:"metrics_prefix"`
	Labels            map[string]string `koanf:"metrics_labels"`
	HTTPBuckets       []float64         `koanf:"metrics_http_buckets"`
	RefreshIntervalMS int               `koanf:"metrics_refresh_interval_ms"`
}

// RefreshInterval returns how often process gauges are refreshed.
func (m MetricsConfig) RefreshInterval() time.Duration {
	return time.Duration(m.RefreshIntervalMS) * time.Millisecond
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9090",
		Profile:             ProfileDesktop,
		WindowMS:            0,
		SilenceTimeoutMS:    1000,
		ConfidenceThreshold: 0.05,
		ChangeThreshold:     0.15,
		ShowAllExpressions:  false,
		ShowStats:           false,
		TopK:                3,
		TickIntervalMS:      33,
		Source:              SourceSynthetic,
		SyntheticSeed:       42,
		Metrics: MetricsConfig{
			Enabled:           true,
			Namespace:         "smaile",
			Subsystem:         "mirror",
			RefreshIntervalMS: 10_000,
		},
	}
}

// Mobile reports whether the mobile profile is active.
func (c *Config) Mobile() bool {
	return strings.EqualFold(c.Profile, ProfileMobile)
}

// Window returns the smoothing window, falling back to the profile preset.
func (c *Config) Window() time.Duration {
	if c.WindowMS > 0 {
		return time.Duration(c.WindowMS) * time.Millisecond
	}
	if c.Mobile() {
		return mobileWindowMS * time.Millisecond
	}
	return desktopWindowMS * time.Millisecond
}

// SilenceTimeout returns the buffer clear delay.
func (c *Config) SilenceTimeout() time.Duration {
	return time.Duration(c.SilenceTimeoutMS) * time.Millisecond
}

// TickInterval returns the spacing between detection cycles.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// DetectorHints are the model input settings suggested for the profile.
type DetectorHints struct {
	InputSize      int
	ScoreThreshold float64
}

// Hints returns the detector settings for the active profile. Smaller input
// on mobile is roughly ten times faster; the higher score threshold offsets
// the accuracy loss.
func (c *Config) Hints() DetectorHints {
	if c.Mobile() {
		return DetectorHints{InputSize: mobileInputSize, ScoreThreshold: mobileScoreThreshold}
	}
	return DetectorHints{InputSize: desktopInputSize, ScoreThreshold: desktopScoreThreshold}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !strings.EqualFold(c.Profile, ProfileDesktop) && !c.Mobile():
		return fmt.Errorf("%w: profile must be %q or %q, got %q", ErrInvalidConfig, ProfileDesktop, ProfileMobile, c.Profile)
	case c.WindowMS < 0 || c.WindowMS > maxDurationMS:
		return fmt.Errorf("%w: window_ms must be within [0,%d]", ErrInvalidConfig, maxDurationMS)
	case c.SilenceTimeoutMS <= 0 || c.SilenceTimeoutMS > maxDurationMS:
		return fmt.Errorf("%w: silence_timeout_ms must be within (0,%d]", ErrInvalidConfig, maxDurationMS)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("%w: confidence_threshold must be within [0,1]", ErrInvalidConfig)
	case c.ChangeThreshold < 0 || c.ChangeThreshold > 1:
		return fmt.Errorf("%w: change_threshold must be within [0,1]", ErrInvalidConfig)
	case c.TopK < 1:
		return fmt.Errorf("%w: top_k must be at least 1", ErrInvalidConfig)
	case c.TickIntervalMS < 0 || c.TickIntervalMS > maxDurationMS:
		return fmt.Errorf("%w: tick_interval_ms must be within [0,%d]", ErrInvalidConfig, maxDurationMS)
	case c.LogFormat != "" && !strings.EqualFold(c.LogFormat, "text") && !strings.EqualFold(c.LogFormat, "json"):
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.Metrics.RefreshIntervalMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_interval_ms must be positive", ErrInvalidConfig)
	}
	if !sort.Float64sAreSorted(c.Metrics.HTTPBuckets) {
		return fmt.Errorf("%w: metrics_http_buckets must be ascending", ErrInvalidConfig)
	}
	switch c.Source {
	case SourceSynthetic:
	case SourceReplay:
		if c.TracePath == "" {
			return fmt.Errorf("%w: trace_path is required for the replay source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	return nil
}
