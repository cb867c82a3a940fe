// Package replay plays back recorded detector output from a YAML trace.
package replay

// Option applies a configuration option to the Player.
type Option func(*Player)

// WithPacing sleeps between frames so playback follows the recorded offsets.
func WithPacing(enabled bool) Option {
	return func(p *Player) {
		p.pace = enabled
	}
}

// WithRepeat restarts the trace after the last frame instead of ending.
func WithRepeat(enabled bool) Option {
	return func(p *Player) {
		p.repeat = enabled
	}
}

// WithScoreThreshold drops faces whose box score is below threshold.
// Frames without a recorded score always pass.
func WithScoreThreshold(threshold float64) Option {
	return func(p *Player) {
		if threshold >= 0 && threshold <= 1 {
			p.scoreThreshold = threshold
		}
	}
}
