package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/smaile/internal/domain/model"
	"github.com/okian/smaile/internal/domain/stabilizer"
	"github.com/okian/smaile/pkg/logger"
	"github.com/okian/smaile/pkg/metrics"
)

// Detector produces at most one face per call. A nil detection with a nil
// error means no face was found. io.EOF ends the loop.
type Detector interface {
	Detect(ctx context.Context) (*model.Detection, error)
}

// Renderer draws frames. Hold frames are not dispatched: the renderer keeps
// whatever it drew last.
type Renderer interface {
	OnNoFace()
	OnNoStrongExpression()
	OnFullUpdate(items []stabilizer.Display)
	OnValuesUpdate(items []stabilizer.Display)
	OnAllExpressions(items []stabilizer.Display)
}

// StatsRenderer is implemented by renderers that can draw the stats overlay.
type StatsRenderer interface {
	OnStats(stats Stats)
}

// Dispatch hands f to the matching renderer callback.
func Dispatch(r Renderer, f Frame) {
	switch f.Kind {
	case FrameNoFace:
		r.OnNoFace()
	case FrameNoStrongExpression:
		r.OnNoStrongExpression()
	case FrameFullUpdate:
		r.OnFullUpdate(f.Items)
	case FrameValuesUpdate:
		r.OnValuesUpdate(f.Items)
	case FrameAllExpressions:
		r.OnAllExpressions(f.Items)
	case FrameHold:
	}
}

type settingsRequest struct {
	patch SettingsPatch
	reply chan settingsReply
}

type settingsReply struct {
	settings Settings
	err      error
}

// Loop drives a Session. Each cycle awaits the detector, processes the
// result and renders it, so at most one detection is in flight. Settings
// changes are applied by the loop goroutine between cycles.
type Loop struct {
	session  *Session
	detector Detector
	renderer Renderer
	stats    *StatsTracker
	now      func() time.Time
	tick     time.Duration
	logger   logger.Logger

	requests chan settingsRequest
	running  atomic.Bool

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewLoop wires a session to a detector and renderer.
func NewLoop(session *Session, detector Detector, renderer Renderer, opts ...LoopOption) *Loop {
	l := &Loop{
		session:  session,
		detector: detector,
		renderer: renderer,
		now:      time.Now,
		logger:   logger.Get().Named("loop"),
		requests: make(chan settingsRequest),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.stats == nil {
		l.stats = NewStatsTracker(session.ID())
	}
	l.stats.SetSettings(session.Settings())
	return l
}

// Stats returns the tracker the loop reports to.
func (l *Loop) Stats() *StatsTracker { return l.stats }

// Settings returns the settings as of the last applied change.
func (l *Loop) Settings() Settings { return l.stats.Snapshot().Settings }

// Run executes cycles until ctx is canceled, Shutdown is called or the
// detector reports io.EOF.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(l.done)

	l.stats.Start(l.now())
	l.logger.Info(ctx, "detection loop started",
		logger.String("session", l.session.ID()),
		logger.Duration("tick", l.tick),
	)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		started := time.Now()
		if l.stopped(ctx) {
			return l.exit(ctx, "stopped")
		}

		more := l.cycle(ctx)
		if !more {
			if ctx.Err() != nil {
				return l.exit(ctx, "stopped")
			}
			return l.exit(ctx, "source exhausted")
		}

		wait := l.tick - time.Since(started)
		if wait <= 0 {
			l.drainRequests(ctx)
			continue
		}
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		if !l.idle(ctx, timer) {
			return l.exit(ctx, "stopped")
		}
	}
}

func (l *Loop) exit(ctx context.Context, reason string) error {
	snap := l.stats.Snapshot()
	l.logger.Info(context.WithoutCancel(ctx), "detection loop finished",
		logger.String("reason", reason),
		logger.Int("cycles", int(snap.Cycles)),
		logger.Int("detections", int(snap.Detections)),
	)
	return nil
}

func (l *Loop) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-l.shutdown:
		return true
	default:
		return false
	}
}

// idle applies settings changes until the timer fires. It reports false
// when the loop should stop.
func (l *Loop) idle(ctx context.Context, timer *time.Timer) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-l.shutdown:
			return false
		case req := <-l.requests:
			l.apply(ctx, req)
		case <-timer.C:
			return true
		}
	}
}

func (l *Loop) drainRequests(ctx context.Context) {
	for {
		select {
		case req := <-l.requests:
			l.apply(ctx, req)
		default:
			return
		}
	}
}

// cycle runs one detect-process-render pass. It reports false once the
// detector is exhausted or ctx ended during detection.
func (l *Loop) cycle(ctx context.Context) bool {
	started := time.Now()
	det, err := l.detector.Detect(ctx)
	latency := time.Since(started)

	if err != nil {
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return false
		}
		det = nil
		l.stats.ObserveError()
		metrics.RecordDetectorError()
		metrics.RecordErrorByComponent("detector", "detect_failed")
		l.logger.Warn(ctx, "detection failed, treating as no face", logger.Error(err))
	}

	now := l.now()
	frame := l.session.ProcessCycle(det, now)
	Dispatch(l.renderer, frame)

	l.stats.Observe(frame, det != nil, latency, now)
	l.record(frame, det != nil, latency)

	if l.session.ShowStats() {
		if sr, ok := l.renderer.(StatsRenderer); ok {
			sr.OnStats(l.stats.Snapshot())
		}
	}
	return true
}

func (l *Loop) record(f Frame, detected bool, latency time.Duration) {
	metrics.RecordCycle()
	metrics.RecordFrame(f.Kind.String())
	metrics.RecordDetectionLatency(float64(latency.Microseconds()) / 1000)
	metrics.UpdateBufferLength(f.BufferLen)
	metrics.UpdateFramesPerSecond(l.stats.FPS())
	if detected {
		metrics.RecordDetection()
	}
	if f.Cleared {
		metrics.RecordBufferClear()
	}
}

func (l *Loop) apply(ctx context.Context, req settingsRequest) {
	names, err := l.session.Apply(req.patch)
	if err != nil {
		req.reply <- settingsReply{err: err}
		return
	}
	current := l.session.Settings()
	l.stats.SetSettings(current)
	for _, name := range names {
		metrics.RecordSettingChange(name)
	}
	if len(names) > 0 {
		l.logger.Info(ctx, "settings changed", logger.Any("settings", names))
	}
	req.reply <- settingsReply{settings: current}
}

// UpdateSettings asks the loop to apply p between cycles and waits for the
// result.
func (l *Loop) UpdateSettings(ctx context.Context, p SettingsPatch) (Settings, error) {
	if err := p.Validate(); err != nil {
		return Settings{}, err
	}

	req := settingsRequest{patch: p, reply: make(chan settingsReply, 1)}
	select {
	case l.requests <- req:
	case <-l.done:
		return Settings{}, ErrLoopStopped
	case <-ctx.Done():
		return Settings{}, fmt.Errorf("update settings: %w", ctx.Err())
	}

	select {
	case r := <-req.reply:
		return r.settings, r.err
	case <-ctx.Done():
		return Settings{}, fmt.Errorf("update settings: %w", ctx.Err())
	}
}

// Shutdown stops the loop after the current cycle and waits for it to exit.
func (l *Loop) Shutdown(ctx context.Context) error {
	l.shutdownOnce.Do(func() { close(l.shutdown) })

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		l.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
