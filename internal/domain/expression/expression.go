// Package expression defines the closed set of facial expression categories
// and the fixed-arity confidence vector produced by the detector each frame.
package expression

import (
	"math"
	"strings"
)

// Category is one facial-affect class. The set is closed: adding a category
// means changing this file.
type Category uint8

// Known categories, in enumeration order. The order doubles as the tie-break
// when two categories share the same confidence.
const (
	Neutral Category = iota
	Happy
	Sad
	Angry
	Fearful
	Disgusted
	Surprised
)

// Count is the number of known categories.
const Count = int(Surprised) + 1

var categoryNames = [Count]string{
	Neutral:   "neutral",
	Happy:     "happy",
	Sad:       "sad",
	Angry:     "angry",
	Fearful:   "fearful",
	Disgusted: "disgusted",
	Surprised: "surprised",
}

// String returns the lower-case detector name of the category.
func (c Category) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return int(c) < Count
}

// Categories returns all categories in enumeration order.
func Categories() []Category {
	out := make([]Category, Count)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory maps a detector name to a Category. Matching ignores case and
// surrounding whitespace; unknown names report ok=false.
func ParseCategory(name string) (Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

// Vector holds one confidence per category. The scores are not required to
// sum to 1. Vector is a value type, so a copy never aliases the original.
type Vector [Count]float64

// FromMap builds a Vector from the detector's name->confidence output.
// Unknown names are dropped and every score goes through Clamp.
func FromMap(m map[string]float64) Vector {
	var v Vector
	for name, score := range m {
		c, ok := ParseCategory(name)
		if !ok {
			continue
		}
		v[c] = Clamp(score)
	}
	return v
}

// Get returns the confidence for c, or 0 for an invalid category.
func (v Vector) Get(c Category) float64 {
	if !c.Valid() {
		return 0
	}
	return v[c]
}

// With returns a copy of v with c set to the clamped score.
func (v Vector) With(c Category, score float64) Vector {
	if c.Valid() {
		v[c] = Clamp(score)
	}
	return v
}

// Map returns the vector keyed by category name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Count)
	for i, score := range v {
		out[categoryNames[i]] = score
	}
	return out
}

// Clamp maps a raw detector score into [0,1]. NaN, infinities and negative
// values become 0.
func Clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), math.IsInf(score, 0), score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
