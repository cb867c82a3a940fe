// Package smoothing averages buffered expression vectors into one stable vector.
package smoothing

import (
	"math"

	"github.com/okian/smaile/internal/domain/buffer"
	"github.com/okian/smaile/internal/domain/expression"
)

// Source exposes the entries to average.
type Source interface {
	Entries() []buffer.Entry
}

// Average returns the per-category mean over entries. It reports ok=false
// for zero entries; callers should check the buffer before averaging.
// Non-finite scores contribute 0 so the result never carries NaN.
func Average(entries []buffer.Entry) (expression.Vector, bool) {
	var avg expression.Vector
	if len(entries) == 0 {
		return avg, false
	}

	var sums [expression.Count]float64
	for _, e := range entries {
		for i, score := range e.Vector {
			if math.IsNaN(score) || math.IsInf(score, 0) {
				continue
			}
			sums[i] += score
		}
	}

	n := float64(len(entries))
	for i := range sums {
		avg[i] = sums[i] / n
	}
	return avg, true
}

// AverageBuffer averages the current contents of src.
func AverageBuffer(src Source) (expression.Vector, bool) {
	return Average(src.Entries())
}
