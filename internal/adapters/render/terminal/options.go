// Package terminal renders display frames as text on a terminal.
package terminal

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithRedraw clears the screen before each frame so the output stays in
// place like an overlay.
func WithRedraw(enabled bool) Option {
	return func(r *Renderer) {
		r.redraw = enabled
	}
}

// WithBars adds a confidence bar column to the all-expressions table.
func WithBars(width int) Option {
	return func(r *Renderer) {
		if width >= 0 {
			r.barWidth = width
		}
	}
}
