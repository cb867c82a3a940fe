// Package app runs the expression mirror: a Session turns detections into
// stable display frames and a Loop drives it from a Detector to a Renderer.
package app

import (
	"time"

	"github.com/okian/smaile/internal/domain/buffer"
	"github.com/okian/smaile/internal/domain/stabilizer"
	"github.com/okian/smaile/pkg/logger"
)

// SessionOption applies a configuration option to a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	id        string
	buffer    []buffer.Option
	stabilize []stabilizer.Option
	showStats bool
	logger    logger.Logger
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) SessionOption {
	return func(c *sessionConfig) {
		if id != "" {
			c.id = id
		}
	}
}

// WithWindow sets the smoothing window.
func WithWindow(window time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.buffer = append(c.buffer, buffer.WithWindow(window))
	}
}

// WithSilenceTimeout sets how long the buffer survives without detections.
func WithSilenceTimeout(timeout time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.buffer = append(c.buffer, buffer.WithSilenceTimeout(timeout))
	}
}

// WithConfidenceThreshold sets the display floor.
func WithConfidenceThreshold(threshold float64) SessionOption {
	return func(c *sessionConfig) {
		c.stabilize = append(c.stabilize, stabilizer.WithConfidenceThreshold(threshold))
	}
}

// WithChangeThreshold sets the hysteresis delta.
func WithChangeThreshold(threshold float64) SessionOption {
	return func(c *sessionConfig) {
		c.stabilize = append(c.stabilize, stabilizer.WithChangeThreshold(threshold))
	}
}

// WithShowAll starts the session in the all-expressions view.
func WithShowAll(enabled bool) SessionOption {
	return func(c *sessionConfig) {
		c.stabilize = append(c.stabilize, stabilizer.WithShowAll(enabled))
	}
}

// WithTopK sets how many categories the stabilized view shows.
func WithTopK(k int) SessionOption {
	return func(c *sessionConfig) {
		c.stabilize = append(c.stabilize, stabilizer.WithTopK(k))
	}
}

// WithShowStats turns the stats overlay on.
func WithShowStats(enabled bool) SessionOption {
	return func(c *sessionConfig) {
		c.showStats = enabled
	}
}

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) SessionOption {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// LoopOption applies a configuration option to a Loop.
type LoopOption func(*Loop)

// WithTickInterval sets the minimum time between cycle starts. Zero runs
// cycles back to back.
func WithTickInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d >= 0 {
			l.tick = d
		}
	}
}

// WithClock replaces time.Now as the cycle clock.
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLoopLogger sets a custom logger for the loop.
func WithLoopLogger(lg logger.Logger) LoopOption {
	return func(l *Loop) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// WithStats sets the tracker the loop reports cycles to.
func WithStats(t *StatsTracker) LoopOption {
	return func(l *Loop) {
		if t != nil {
			l.stats = t
		}
	}
}
