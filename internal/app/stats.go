package app

import (
	"sync"
	"time"
)

// fpsWindow is the wall-clock span over which frames are counted.
const fpsWindow = time.Second

// Stats is a point-in-time view of a running loop. It carries counters and
// settings only, never expression values.
type Stats struct {
	SessionID       string            `json:"session_id"`
	StartedAt       time.Time         `json:"started_at"`
	Cycles          uint64            `json:"cycles"`
	Detections      uint64            `json:"detections"`
	DetectorErrors  uint64            `json:"detector_errors"`
	BufferClears    uint64            `json:"buffer_clears"`
	Frames          map[string]uint64 `json:"frames"`
	LastFrame       string            `json:"last_frame"`
	BufferLen       int               `json:"buffer_len"`
	FPS             int               `json:"fps"`
	LastDetectionMS float64           `json:"last_detection_ms"`
	Settings        Settings          `json:"settings"`
}

// StatsTracker aggregates per-cycle observations. The loop writes to it and
// HTTP handlers read snapshots concurrently.
type StatsTracker struct {
	mu         sync.RWMutex
	stats      Stats
	frameCount int
	fpsSince   time.Time
}

// NewStatsTracker creates a tracker for the given session.
func NewStatsTracker(sessionID string) *StatsTracker {
	return &StatsTracker{
		stats: Stats{
			SessionID: sessionID,
			Frames:    make(map[string]uint64),
		},
	}
}

// Start marks when the loop began.
func (t *StatsTracker) Start(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.StartedAt = now
	t.fpsSince = now
}

// Observe records one finished cycle. FPS is the number of cycles seen in
// the last complete one-second window.
func (t *StatsTracker) Observe(f Frame, detected bool, latency time.Duration, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Cycles++
	if detected {
		t.stats.Detections++
	}
	if f.Cleared {
		t.stats.BufferClears++
	}
	kind := f.Kind.String()
	t.stats.Frames[kind]++
	t.stats.LastFrame = kind
	t.stats.BufferLen = f.BufferLen
	t.stats.LastDetectionMS = float64(latency.Microseconds()) / 1000

	if t.fpsSince.IsZero() {
		t.fpsSince = now
	}
	t.frameCount++
	if now.Sub(t.fpsSince) >= fpsWindow {
		t.stats.FPS = t.frameCount
		t.frameCount = 0
		t.fpsSince = now
	}
}

// ObserveError counts a failed detector call.
func (t *StatsTracker) ObserveError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.DetectorErrors++
}

// SetSettings records the current settings.
func (t *StatsTracker) SetSettings(s Settings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Settings = s
}

// FPS returns the last computed frames-per-second value.
func (t *StatsTracker) FPS() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats.FPS
}

// Snapshot returns a copy safe to hand to other goroutines.
func (t *StatsTracker) Snapshot() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.stats
	out.Frames = make(map[string]uint64, len(t.stats.Frames))
	for k, v := range t.stats.Frames {
		out.Frames[k] = v
	}
	return out
}
