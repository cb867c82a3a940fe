// Package synthetic provides a seeded, simulated face detector that wanders
// between moods. It stands in for a camera when none is attached.
package synthetic

import "time"

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithSeed sets the random seed so runs are reproducible.
func WithSeed(seed int64) Option {
	return func(d *Detector) {
		d.seed = seed
	}
}

// WithLatencyRange sets the simulated inference latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(d *Detector) {
		if minLatency >= 0 && maxLatency >= minLatency {
			d.minLatency = minLatency
			d.maxLatency = maxLatency
		}
	}
}

// WithInputSize sets the simulated model input edge in pixels. The latency
// range is tuned for 416; inference cost grows with the pixel count, so 128
// runs roughly ten times faster.
func WithInputSize(size int) Option {
	return func(d *Detector) {
		if size > 0 {
			d.inputSize = size
		}
	}
}

// WithMoodDuration sets how many frames a mood lasts before a new one is drawn.
func WithMoodDuration(frames int) Option {
	return func(d *Detector) {
		if frames > 0 {
			d.moodFrames = frames
		}
	}
}

// WithNoise sets the amplitude of per-frame jitter added to each score.
func WithNoise(amplitude float64) Option {
	return func(d *Detector) {
		if amplitude >= 0 && amplitude <= 1 {
			d.noise = amplitude
		}
	}
}

// WithDropoutRate sets the probability that a frame has no face.
func WithDropoutRate(rate float64) Option {
	return func(d *Detector) {
		if rate >= 0 && rate <= 1 {
			d.dropout = rate
		}
	}
}

// WithScoreThreshold drops faces whose box score is below threshold.
func WithScoreThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold >= 0 && threshold <= 1 {
			d.scoreThreshold = threshold
		}
	}
}

// WithLandmarks attaches a jittered 68-point landmark set to every face.
func WithLandmarks(enabled bool) Option {
	return func(d *Detector) {
		d.landmarks = enabled
	}
}
