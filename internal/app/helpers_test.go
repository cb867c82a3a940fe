package app_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/okian/smaile/internal/app"
	"github.com/okian/smaile/internal/domain/expression"
	"github.com/okian/smaile/internal/domain/model"
	"github.com/okian/smaile/internal/domain/stabilizer"
	"github.com/okian/smaile/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.InitWriter(io.Discard); err != nil {
		panic(err)
	}
}

func at(ms int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond)
}

func face(scores map[string]float64) *model.Detection {
	return &model.Detection{Expressions: expression.FromMap(scores), Score: 0.9}
}

// step is one scripted detector response.
type step struct {
	det *model.Detection
	err error
}

// scriptedDetector replays steps and then reports io.EOF.
type scriptedDetector struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (d *scriptedDetector) Detect(_ context.Context) (*model.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls >= len(d.steps) {
		return nil, io.EOF
	}
	s := d.steps[d.calls]
	d.calls++
	return s.det, s.err
}

// steadyDetector reports the same face forever.
type steadyDetector struct{ det *model.Detection }

func (d steadyDetector) Detect(ctx context.Context) (*model.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.det, nil
}

// recordingRenderer keeps the sequence of callbacks.
type recordingRenderer struct {
	mu    sync.Mutex
	calls []string
	last  []stabilizer.Display
	stats []app.Stats
}

func (r *recordingRenderer) add(name string, items []stabilizer.Display) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
	r.last = items
}

func (r *recordingRenderer) OnNoFace()              { r.add("no_face", nil) }
func (r *recordingRenderer) OnNoStrongExpression()  { r.add("no_strong_expression", nil) }
func (r *recordingRenderer) OnFullUpdate(items []stabilizer.Display) {
	r.add("full_update", items)
}
func (r *recordingRenderer) OnValuesUpdate(items []stabilizer.Display) {
	r.add("values_update", items)
}
func (r *recordingRenderer) OnAllExpressions(items []stabilizer.Display) {
	r.add("all_expressions", items)
}
func (r *recordingRenderer) OnStats(s app.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, s)
}

func (r *recordingRenderer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingRenderer) StatsCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stats)
}

// stepClock advances by a fixed step on every call.
func stepClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Unix(0, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}
