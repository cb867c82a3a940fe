package replay

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/smaile/internal/domain/model"
)

// Player serves trace frames one per Detect call. It implements the loop's
// detector contract and reports io.EOF after the last frame unless it
// repeats.
type Player struct {
	mu    sync.Mutex
	trace *Trace

	pace           bool
	repeat         bool
	scoreThreshold float64

	next    int
	rounds  int
	base    time.Time
	current time.Time
	started time.Time
}

// NewPlayer creates a player. Trace time starts at base.
func NewPlayer(t *Trace, base time.Time, opts ...Option) *Player {
	p := &Player{trace: t, base: base, current: base}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Detect returns the next frame's detection. With pacing on it waits until
// the frame's offset has elapsed since the first call.
func (p *Player) Detect(ctx context.Context) (*model.Detection, error) {
	p.mu.Lock()
	if p.next >= len(p.trace.Frames) {
		if !p.repeat {
			p.mu.Unlock()
			return nil, io.EOF
		}
		p.next = 0
		p.rounds++
	}
	frame := p.trace.Frames[p.next]
	p.next++
	offset := time.Duration(p.rounds)*p.trace.Duration() + frame.Offset()
	if p.started.IsZero() {
		p.started = time.Now()
	}
	wait := time.Until(p.started.Add(offset))
	p.current = p.base.Add(offset)
	p.mu.Unlock()

	if p.pace && wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	det := frame.Detection()
	if det != nil {
		det.Captured = p.base.Add(offset)
		if det.Score > 0 && det.Score < p.scoreThreshold {
			return nil, nil
		}
	}
	return det, nil
}

// Now returns the trace time of the most recently served frame. Used as the
// loop clock it makes unpaced playback independent of wall time.
func (p *Player) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Remaining returns the number of frames left in the current round.
func (p *Player) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.trace.Frames) - p.next
}
