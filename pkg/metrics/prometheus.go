// Package metrics provides Prometheus metrics for the smaile expression loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// detectionLatencyBuckets covers tiny mobile models up to slow desktop frames, in ms.
var detectionLatencyBuckets = []float64{5, 10, 20, 35, 50, 75, 100, 150, 250, 500, 1000} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Loop metrics
	cyclesTotal      prometheus.Counter
	framesByKind     *prometheus.CounterVec
	detectionsTotal  prometheus.Counter
	detectorErrors   prometheus.Counter
	detectionLatency prometheus.Histogram
	framesPerSecond  prometheus.Gauge

	// Buffer metrics
	bufferLength prometheus.Gauge
	bufferClears prometheus.Counter

	// Settings metrics
	settingsChanges *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "smaile",
		subsystem:        "mirror",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.cyclesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cycles_total"),
		Help:        "Total number of detection cycles run by the loop",
		ConstLabels: labels,
	})

	m.framesByKind = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("frames_total"),
			Help:        "Rendered frames by kind (full_update, values_update, no_face, ...)",
			ConstLabels: labels,
		},
		[]string{"kind"},
	)

	m.detectionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("detections_total"),
		Help:        "Cycles in which the detector reported a face",
		ConstLabels: labels,
	})

	m.detectorErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("detector_errors_total"),
		Help:        "Detector calls that returned an error",
		ConstLabels: labels,
	})

	m.detectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("detection_latency_milliseconds"),
		Help:        "Time spent waiting for the detector per cycle",
		Buckets:     detectionLatencyBuckets,
		ConstLabels: labels,
	})

	m.framesPerSecond = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("frames_per_second"),
		Help:        "Cycles completed during the last full second",
		ConstLabels: labels,
	})

	m.bufferLength = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("buffer_entries"),
		Help:        "Entries currently held in the smoothing window",
		ConstLabels: labels,
	})

	m.bufferClears = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("buffer_clears_total"),
		Help:        "Times the smoothing window was dropped after the face was lost",
		ConstLabels: labels,
	})

	m.settingsChanges = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("settings_changes_total"),
			Help:        "Settings changes applied between cycles",
			ConstLabels: labels,
		},
		[]string{"setting"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})
}

// RecordCycle increments the cycle counter.
func RecordCycle() {
	if !globalManager.enabled {
		return
	}
	globalManager.cyclesTotal.Inc()
}

// RecordFrame counts one rendered frame of the given kind.
func RecordFrame(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.framesByKind.WithLabelValues(kind).Inc()
}

// RecordDetection counts a cycle in which a face was found.
func RecordDetection() {
	if !globalManager.enabled {
		return
	}
	globalManager.detectionsTotal.Inc()
}

// RecordDetectorError counts a failed detector call.
func RecordDetectorError() {
	if !globalManager.enabled {
		return
	}
	globalManager.detectorErrors.Inc()
	globalManager.errorRateByComponent.WithLabelValues("detector", "detect_failed").Inc()
}

// RecordDetectionLatency records detector latency in milliseconds.
func RecordDetectionLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.detectionLatency.Observe(latencyMs)
}

// UpdateFramesPerSecond sets the measured loop rate.
func UpdateFramesPerSecond(fps int) {
	if !globalManager.enabled {
		return
	}
	globalManager.framesPerSecond.Set(float64(fps))
}

// UpdateBufferLength sets the number of buffered entries.
func UpdateBufferLength(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.bufferLength.Set(float64(n))
}

// RecordBufferClear counts a silence-timeout clear.
func RecordBufferClear() {
	if !globalManager.enabled {
		return
	}
	globalManager.bufferClears.Inc()
}

// RecordSettingChange counts an applied settings change.
func RecordSettingChange(setting string) {
	if !globalManager.enabled {
		return
	}
	globalManager.settingsChanges.WithLabelValues(setting).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// SetEnabled turns recording on the global manager on or off.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. It must run before recording starts and before any handler
// serves GetRegistry.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(reg))...)
	customRegistry = reg
}

// RefreshInterval returns how often gauge metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}
