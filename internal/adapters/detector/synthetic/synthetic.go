package synthetic

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/smaile/internal/domain/expression"
	"github.com/okian/smaile/internal/domain/model"
)

// Default generator configuration constants.
const (
	defaultSeed           = 42
	defaultMinLatency     = 15 * time.Millisecond
	defaultMaxLatency     = 40 * time.Millisecond
	defaultMoodFrames     = 90
	defaultNoise          = 0.08
	defaultDropout        = 0.05
	defaultScoreThreshold = 0.5
	// referenceInputSize is the input edge the latency range is given for.
	referenceInputSize = 416

	// moodPeakMin and moodPeakRange bound the dominant score of a mood.
	moodPeakMin   = 0.55
	moodPeakRange = 0.4
	// easing is the share of the distance to the target covered per frame.
	easing = 0.2
	// faceScoreMin and faceScoreRange bound the simulated box confidence.
	faceScoreMin   = 0.45
	faceScoreRange = 0.55

	// landmark layout in frame pixels
	faceCenterX    = 320.0
	faceCenterY    = 240.0
	faceRadius     = 110.0
	landmarkJitter = 1.5
)

// Detector simulates a face detector. Scores ease toward a target mood that
// changes every few seconds, with jitter and occasional lost frames. It is
// safe for concurrent use, though a loop calls it from one goroutine.
type Detector struct {
	mu  sync.Mutex
	rng *rand.Rand

	seed           int64
	minLatency     time.Duration
	maxLatency     time.Duration
	moodFrames     int
	noise          float64
	dropout        float64
	scoreThreshold float64
	inputSize      int
	landmarks      bool

	frame   int
	target  expression.Vector
	current expression.Vector
}

// New creates a synthetic detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		seed:           defaultSeed,
		minLatency:     defaultMinLatency,
		maxLatency:     defaultMaxLatency,
		moodFrames:     defaultMoodFrames,
		noise:          defaultNoise,
		dropout:        defaultDropout,
		scoreThreshold: defaultScoreThreshold,
		inputSize:      referenceInputSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.minLatency = scaleLatency(d.minLatency, d.inputSize)
	d.maxLatency = scaleLatency(d.maxLatency, d.inputSize)
	d.rng = rand.New(rand.NewSource(d.seed)) //nolint:gosec // deterministic seed for reproducible runs
	d.target = d.drawMood()
	d.current = d.target
	return d
}

// Detect simulates one inference pass. It returns nil when the frame has no
// face or the face score is below the threshold.
func (d *Detector) Detect(ctx context.Context) (*model.Detection, error) {
	d.mu.Lock()
	latency := d.latency()
	d.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next(), nil
}

// scaleLatency scales a latency measured at referenceInputSize by the
// ratio of pixel counts.
func scaleLatency(latency time.Duration, size int) time.Duration {
	ratio := float64(size) / referenceInputSize
	return time.Duration(float64(latency) * ratio * ratio)
}

// LatencyRange returns the simulated latency bounds after input scaling.
func (d *Detector) LatencyRange() (time.Duration, time.Duration) {
	return d.minLatency, d.maxLatency
}

func (d *Detector) latency() time.Duration {
	span := d.maxLatency - d.minLatency
	if span <= 0 {
		return d.minLatency
	}
	return d.minLatency + time.Duration(d.rng.Int63n(int64(span)))
}

func (d *Detector) next() *model.Detection {
	d.frame++
	if d.frame%d.moodFrames == 0 {
		d.target = d.drawMood()
	}
	for i := range d.current {
		d.current[i] += (d.target[i] - d.current[i]) * easing
	}

	if d.rng.Float64() < d.dropout {
		return nil
	}
	score := faceScoreMin + d.rng.Float64()*faceScoreRange
	if score < d.scoreThreshold {
		return nil
	}

	var v expression.Vector
	for i := range d.current {
		v[i] = expression.Clamp(d.current[i] + (d.rng.Float64()*2-1)*d.noise)
	}
	det := &model.Detection{Expressions: normalize(v), Score: score}
	if d.landmarks {
		det.Landmarks = d.drawLandmarks()
	}
	return det
}

// drawMood picks a dominant category and spreads the rest of the mass over
// the others, the way a softmax output looks.
func (d *Detector) drawMood() expression.Vector {
	var v expression.Vector
	dominant := d.rng.Intn(expression.Count)
	peak := moodPeakMin + d.rng.Float64()*moodPeakRange
	v[dominant] = peak

	rest := make([]float64, expression.Count)
	var sum float64
	for i := range rest {
		if i == dominant {
			continue
		}
		rest[i] = d.rng.Float64()
		sum += rest[i]
	}
	for i := range rest {
		if i == dominant || sum == 0 {
			continue
		}
		v[i] = rest[i] / sum * (1 - peak)
	}
	return v
}

func (d *Detector) drawLandmarks() []model.Point {
	pts := make([]model.Point, model.LandmarkCount)
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / float64(model.LandmarkCount)
		pts[i] = model.Point{
			X: faceCenterX + faceRadius*math.Cos(angle) + (d.rng.Float64()*2-1)*landmarkJitter,
			Y: faceCenterY + faceRadius*math.Sin(angle) + (d.rng.Float64()*2-1)*landmarkJitter,
		}
	}
	return pts
}

// normalize scales v so that the scores sum to one.
func normalize(v expression.Vector) expression.Vector {
	var sum float64
	for _, s := range v {
		sum += s
	}
	if sum == 0 {
		return v
	}
	for i := range v {
		v[i] /= sum
	}
	return v
}
