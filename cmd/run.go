package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/smaile/internal/adapters/detector/replay"
	"github.com/okian/smaile/internal/adapters/detector/synthetic"
	"github.com/okian/smaile/internal/adapters/http/api"
	"github.com/okian/smaile/internal/adapters/http/swagger"
	"github.com/okian/smaile/internal/adapters/render/terminal"
	"github.com/okian/smaile/internal/app"
	"github.com/okian/smaile/internal/config"
	"github.com/okian/smaile/pkg/logger"
	"github.com/okian/smaile/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

type runFlags struct {
	configPath string
	trace      string
	pace       bool
	repeat     bool
	redraw     bool
	noHTTP     bool
	duration   time.Duration
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the expression mirror",
		Long: `Runs the detection loop and prints the stabilized emoji display.

Detections come from the synthetic source or, with --trace, from a recorded
YAML trace. The HTTP control surface (/healthz, /stats, /settings) listens
on the configured address unless --no-http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMirror(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML config file (overrides SMAILE_CONFIG)")
	fl.StringVar(&f.trace, "trace", "", "replay this YAML trace instead of the configured source")
	fl.BoolVar(&f.pace, "pace", false, "replay traces in real time")
	fl.BoolVar(&f.repeat, "repeat", false, "restart the trace when it ends")
	fl.BoolVar(&f.redraw, "redraw", false, "redraw the display in place")
	fl.BoolVar(&f.noHTTP, "no-http", false, "do not start the HTTP control surface")
	fl.DurationVar(&f.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

func runMirror(cmd *cobra.Command, f *runFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if f.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.duration)
		defer cancel()
	}

	if f.configPath != "" {
		if err := os.Setenv("SMAILE_CONFIG", f.configPath); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if f.trace != "" {
		cfg.Source = config.SourceReplay
		cfg.TracePath = f.trace
	}

	if err := logger.InitWriter(cmd.ErrOrStderr(), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(metricsOptions(cfg)...)

	detector, loopOpts, err := buildDetector(cfg, f)
	if err != nil {
		return err
	}

	session := newSession(cfg)
	renderer := terminal.New(cmd.OutOrStdout(), terminal.WithRedraw(f.redraw))
	loopOpts = append(loopOpts,
		app.WithTickInterval(cfg.TickInterval()),
		app.WithLoopLogger(log.Named("loop")),
	)
	loop := app.NewLoop(session, detector, renderer, loopOpts...)

	log.Info(ctx, "starting expression mirror",
		logger.String("session", session.ID()),
		logger.String("profile", cfg.Profile),
		logger.String("source", cfg.Source),
		logger.Duration("window", cfg.Window()),
	)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return loop.Run(runCtx)
	})
	g.Go(func() error {
		startSystemMetricsUpdater(runCtx)
		return nil
	})
	if !f.noHTTP {
		srv := newHTTPServer(runCtx, cfg.Addr, loop)
		g.Go(func() error {
			log.Info(runCtx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
				return fmt.Errorf("http shutdown: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	if rerr := renderer.Err(); rerr != nil && err == nil {
		err = fmt.Errorf("render: %w", rerr)
	}
	log.Info(context.WithoutCancel(ctx), "expression mirror stopped")
	return err
}

// buildDetector picks the detection source and any loop options it needs.
func buildDetector(cfg *config.Config, f *runFlags) (app.Detector, []app.LoopOption, error) {
	hints := cfg.Hints()

	switch cfg.Source {
	case config.SourceReplay:
		trace, err := replay.Load(cfg.TracePath)
		if err != nil {
			return nil, nil, err
		}
		if unknown := trace.UnknownCategories(); len(unknown) > 0 {
			logger.Named("replay").Warn(context.Background(), "trace names unknown expressions; they will be dropped",
				logger.String("trace", cfg.TracePath),
				logger.Any("categories", unknown),
			)
		}
		player := replay.NewPlayer(trace, time.Now(),
			replay.WithPacing(f.pace),
			replay.WithRepeat(f.repeat),
			replay.WithScoreThreshold(hints.ScoreThreshold),
		)
		var opts []app.LoopOption
		if !f.pace {
			opts = append(opts, app.WithClock(player.Now))
		}
		return player, opts, nil
	case config.SourceSynthetic:
		return synthetic.New(
			synthetic.WithSeed(cfg.SyntheticSeed),
			synthetic.WithInputSize(hints.InputSize),
			synthetic.WithScoreThreshold(hints.ScoreThreshold),
		), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, cfg.Source)
	}
}

func metricsOptions(cfg *config.Config) []metrics.Option {
	m := cfg.Metrics
	return []metrics.Option{
		metrics.WithMetricsEnabled(m.Enabled),
		metrics.WithNamespace(m.Namespace),
		metrics.WithSubsystem(m.Subsystem),
		metrics.WithMetricPrefix(m.Prefix),
		metrics.WithCustomLabels(m.Labels),
		metrics.WithHistogramBuckets(m.HTTPBuckets),
		metrics.WithRefreshInterval(m.RefreshInterval()),
	}
}

func newSession(cfg *config.Config) *app.Session {
	return app.NewSession(
		app.WithWindow(cfg.Window()),
		app.WithSilenceTimeout(cfg.SilenceTimeout()),
		app.WithConfidenceThreshold(cfg.ConfidenceThreshold),
		app.WithChangeThreshold(cfg.ChangeThreshold),
		app.WithShowAll(cfg.ShowAllExpressions),
		app.WithTopK(cfg.TopK),
		app.WithShowStats(cfg.ShowStats),
		app.WithLogger(logger.Named("session")),
	)
}

func newHTTPServer(ctx context.Context, addr string, loop *app.Loop) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(loop.Stats(), loop).Register(ctx, mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
}

// startSystemMetricsUpdater refreshes process gauges until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	updateSystemMetrics()
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
