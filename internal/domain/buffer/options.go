// Package buffer keeps a sliding time window of timestamped expression vectors.
package buffer

import "time"

// Option applies a configuration option to the Buffer.
type Option func(*Buffer)

// WithWindow sets how long an entry is retained after it was ingested.
// Non-positive values are ignored.
func WithWindow(window time.Duration) Option {
	return func(b *Buffer) {
		if window > 0 {
			b.window = window
		}
	}
}

// WithSilenceTimeout sets how long the oldest entry may age without new
// detections before ClearIfStale drops the whole buffer.
func WithSilenceTimeout(timeout time.Duration) Option {
	return func(b *Buffer) {
		if timeout > 0 {
			b.silenceTimeout = timeout
		}
	}
}
