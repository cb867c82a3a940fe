// Package stabilizer turns averaged expression vectors into a flicker-free
// ranked display using a hysteresis gate.
package stabilizer

// Option applies a configuration option to the Stabilizer.
type Option func(*Stabilizer)

// WithConfidenceThreshold sets the display floor. Categories at or below it
// are not ranked. Values outside [0,1] are ignored.
func WithConfidenceThreshold(threshold float64) Option {
	return func(s *Stabilizer) {
		if threshold >= 0 && threshold <= 1 {
			s.confidenceThreshold = threshold
		}
	}
}

// WithChangeThreshold sets the confidence delta a rank swap must exceed
// before the shown set is replaced. Values outside [0,1] are ignored.
func WithChangeThreshold(threshold float64) Option {
	return func(s *Stabilizer) {
		if threshold >= 0 && threshold <= 1 {
			s.changeThreshold = threshold
		}
	}
}

// WithShowAll enables the unstabilized all-categories view.
func WithShowAll(enabled bool) Option {
	return func(s *Stabilizer) {
		s.showAll = enabled
	}
}

// WithTopK sets how many categories the stabilized view shows.
func WithTopK(k int) Option {
	return func(s *Stabilizer) {
		if k > 0 {
			s.topK = k
		}
	}
}
