package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/smaile/internal/adapters/detector/replay"
	"github.com/okian/smaile/internal/adapters/detector/synthetic"
	"github.com/okian/smaile/internal/domain/expression"
	"github.com/okian/smaile/pkg/logger"
)

const (
	defaultRecordFrames   = 300
	defaultRecordInterval = 33
)

type recordFlags struct {
	out        string
	name       string
	frames     int
	intervalMS int
	seed       int64
	dropout    float64
	landmarks  bool
}

func newRecordCmd() *cobra.Command {
	f := &recordFlags{}
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Write a synthetic detector session to a replay trace",
		Long: `Samples the synthetic detector and writes the frames as a YAML trace
that "smaile run --trace" can replay. Useful for reproducible demos and
tuning the thresholds against a fixed input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return recordTrace(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.out, "out", "o", "-", "output file, - for stdout")
	fl.StringVar(&f.name, "name", "synthetic", "trace name")
	fl.IntVar(&f.frames, "frames", defaultRecordFrames, "number of frames to record")
	fl.IntVar(&f.intervalMS, "interval-ms", defaultRecordInterval, "time between frames")
	fl.Int64Var(&f.seed, "seed", 42, "synthetic source seed")
	fl.Float64Var(&f.dropout, "dropout", 0.05, "probability of a frame without a face")
	fl.BoolVar(&f.landmarks, "landmarks", false, "include 68-point landmarks")
	return cmd
}

func recordTrace(ctx context.Context, stdout io.Writer, f *recordFlags) error {
	if f.frames <= 0 || f.intervalMS <= 0 {
		return errors.New("frames and interval-ms must be positive")
	}

	det := synthetic.New(
		synthetic.WithSeed(f.seed),
		synthetic.WithLatencyRange(0, 0),
		synthetic.WithDropoutRate(f.dropout),
		synthetic.WithScoreThreshold(0),
		synthetic.WithLandmarks(f.landmarks),
	)

	trace := &replay.Trace{Name: f.name, FrameIntervalMS: f.intervalMS}
	for i := 0; i < f.frames; i++ {
		d, err := det.Detect(ctx)
		if err != nil {
			return fmt.Errorf("record frame %d: %w", i, err)
		}
		frame := replay.Frame{OffsetMS: i * f.intervalMS}
		if d != nil {
			frame.Score = round(d.Score)
			frame.Expressions = make(map[string]float64, expression.Count)
			for name, v := range d.Expressions.Map() {
				frame.Expressions[name] = round(v)
			}
			frame.Landmarks = d.Landmarks
		}
		trace.Frames = append(trace.Frames, frame)
	}

	if f.out == "-" {
		return replay.Encode(stdout, trace)
	}
	if err := writeTrace(f.out, trace); err != nil {
		return err
	}
	logger.Get().Info(ctx, "trace recorded",
		logger.String("path", f.out),
		logger.Int("frames", len(trace.Frames)),
	)
	return nil
}

// writeTrace encodes trace into path. A failed close is reported, since it
// can mean the file was truncated.
func writeTrace(path string, trace *replay.Trace) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close trace: %w", cerr)
		}
	}()
	return replay.Encode(file, trace)
}

// round keeps four decimals so traces stay readable.
func round(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}
