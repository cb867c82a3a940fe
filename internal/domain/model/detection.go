// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/smaile/internal/domain/expression"
)

// LandmarkCount is the size of the landmark set produced by the 68-point
// face model.
const LandmarkCount = 68

// Point is a landmark position in frame pixels.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Detection is what the detector reports for the single tracked face.
type Detection struct {
	Expressions expression.Vector // confidence per category
	Landmarks   []Point           // optional; only used for drawing
	Score       float64           // face box confidence
	Captured    time.Time         // when the source grabbed the frame
}

// HasLandmarks reports whether a full landmark set is attached.
func (d *Detection) HasLandmarks() bool {
	return d != nil && len(d.Landmarks) == LandmarkCount
}
