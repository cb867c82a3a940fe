package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/smaile/internal/domain/buffer"
	"github.com/okian/smaile/internal/domain/model"
	"github.com/okian/smaile/internal/domain/smoothing"
	"github.com/okian/smaile/internal/domain/stabilizer"
	"github.com/okian/smaile/pkg/logger"
)

// Session owns the expression buffer and the display stabilizer for one
// viewer. It is driven by a single goroutine and is not safe for concurrent
// use; a Loop serializes cycles and settings changes for it.
type Session struct {
	id        string
	buf       *buffer.Buffer
	stab      *stabilizer.Stabilizer
	showStats bool
	logger    logger.Logger
}

// NewSession creates a session with desktop defaults.
func NewSession(opts ...SessionOption) *Session {
	cfg := sessionConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("session")
	}

	return &Session{
		id:        cfg.id,
		buf:       buffer.New(cfg.buffer...),
		stab:      stabilizer.New(cfg.stabilize...),
		showStats: cfg.showStats,
		logger:    cfg.logger,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ProcessCycle runs one detection cycle. det is nil when no face was found.
func (s *Session) ProcessCycle(det *model.Detection, now time.Time) Frame {
	if det == nil {
		return s.noFace(now)
	}

	s.buf.Ingest(det.Expressions, now)
	avg, ok := smoothing.AverageBuffer(s.buf)
	if !ok {
		return Frame{Kind: FrameNoFace, At: now}
	}

	res := s.stab.Update(avg)
	f := Frame{
		Kind:      frameKind(res.Kind),
		Items:     res.Items,
		Shown:     res.Shown,
		BufferLen: s.buf.Len(),
		At:        now,
	}
	if f.Kind == FrameFullUpdate {
		s.logger.Debug(context.Background(), "display replaced",
			logger.String("session", s.id),
			logger.Int("items", len(f.Items)),
			logger.String("top", f.Items[0].Category.String()),
		)
	}
	return f
}

// noFace keeps the last display while history remains and drops the
// history once the face has been gone longer than the silence timeout.
// Dropping the history also forgets the shown display, so a returning face
// is drawn with a full update.
func (s *Session) noFace(now time.Time) Frame {
	if s.buf.IsEmpty() {
		s.stab.Reset()
		return Frame{Kind: FrameNoFace, At: now}
	}

	f := Frame{Kind: FrameHold, At: now}
	if s.buf.ClearIfStale(now) {
		s.stab.Reset()
		f.Cleared = true
		s.logger.Info(context.Background(), "expression buffer cleared after silence",
			logger.String("session", s.id),
			logger.Duration("timeout", s.buf.SilenceTimeout()),
		)
	}
	f.BufferLen = s.buf.Len()
	return f
}

// Settings returns the current tunables.
func (s *Session) Settings() Settings {
	return Settings{
		WindowMS:            int(s.buf.Window() / time.Millisecond),
		SilenceTimeoutMS:    int(s.buf.SilenceTimeout() / time.Millisecond),
		ConfidenceThreshold: s.stab.ConfidenceThreshold(),
		ChangeThreshold:     s.stab.ChangeThreshold(),
		ShowAllExpressions:  s.stab.ShowAll(),
		ShowStats:           s.showStats,
	}
}

// SetShowAll toggles the all-expressions view. Leaving it forgets the
// stabilized display so the next frame rebuilds it.
func (s *Session) SetShowAll(enabled bool) {
	if s.stab.ShowAll() && !enabled {
		s.stab.Reset()
	}
	s.stab.SetShowAll(enabled)
}

// SetConfidenceThreshold changes the display floor.
func (s *Session) SetConfidenceThreshold(threshold float64) {
	s.stab.SetConfidenceThreshold(threshold)
}

// SetChangeThreshold changes the hysteresis delta.
func (s *Session) SetChangeThreshold(threshold float64) {
	s.stab.SetChangeThreshold(threshold)
}

// SetWindow changes the smoothing window.
func (s *Session) SetWindow(window time.Duration) { s.buf.SetWindow(window) }

// SetSilenceTimeout changes the buffer silence timeout.
func (s *Session) SetSilenceTimeout(timeout time.Duration) { s.buf.SetSilenceTimeout(timeout) }

// SetShowStats toggles the stats overlay.
func (s *Session) SetShowStats(enabled bool) { s.showStats = enabled }

// ShowStats reports whether the stats overlay is on.
func (s *Session) ShowStats() bool { return s.showStats }

// Reset drops the history and the shown display.
func (s *Session) Reset() {
	s.buf.Reset()
	s.stab.Reset()
}
