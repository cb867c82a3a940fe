package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/smaile/internal/domain/expression"
	"github.com/okian/smaile/internal/domain/model"
)

// defaultFrameInterval is the gap assumed after the last frame when a trace
// repeats.
const defaultFrameInterval = 33 * time.Millisecond

// Trace is a recorded detector session.
//
//	name: smile-then-frown
//	frame_interval_ms: 33
//	frames:
//	  - offset_ms: 0
//	    score: 0.93
//	    expressions: {happy: 0.91, neutral: 0.07}
//	  - offset_ms: 33        # no expressions: no face in this frame
type Trace struct {
	Name            string  `yaml:"name"`
	FrameIntervalMS int     `yaml:"frame_interval_ms"`
	Frames          []Frame `yaml:"frames"`
}

// Frame is one recorded detector result.
type Frame struct {
	OffsetMS    int                `yaml:"offset_ms"`
	Score       float64            `yaml:"score,omitempty"`
	Expressions map[string]float64 `yaml:"expressions,omitempty"`
	Landmarks   []model.Point      `yaml:"landmarks,omitempty"`
}

// Face reports whether the frame recorded a face.
func (f Frame) Face() bool { return len(f.Expressions) > 0 }

// Offset returns the frame time relative to the start of the trace.
func (f Frame) Offset() time.Duration { return time.Duration(f.OffsetMS) * time.Millisecond }

// Detection converts the frame into a detection, or nil when it has no face.
func (f Frame) Detection() *model.Detection {
	if !f.Face() {
		return nil
	}
	return &model.Detection{
		Expressions: expression.FromMap(f.Expressions),
		Landmarks:   append([]model.Point(nil), f.Landmarks...),
		Score:       f.Score,
	}
}

// Interval returns the frame interval used when the trace repeats.
func (t *Trace) Interval() time.Duration {
	if t.FrameIntervalMS > 0 {
		return time.Duration(t.FrameIntervalMS) * time.Millisecond
	}
	return defaultFrameInterval
}

// Duration returns the span from the first frame to the end of the last
// frame interval.
func (t *Trace) Duration() time.Duration {
	if len(t.Frames) == 0 {
		return 0
	}
	return t.Frames[len(t.Frames)-1].Offset() + t.Interval()
}

// Validate checks frame ordering and score ranges. Scores of unknown
// categories are not checked; they are dropped on playback.
func (t *Trace) Validate() error {
	if len(t.Frames) == 0 {
		return ErrEmptyTrace
	}
	if t.FrameIntervalMS < 0 {
		return fmt.Errorf("%w: frame_interval_ms must be >= 0", ErrInvalidTrace)
	}
	prev := -1
	for i, f := range t.Frames {
		if f.OffsetMS < 0 || f.OffsetMS < prev {
			return fmt.Errorf("%w: frame %d: offset_ms must be non-negative and non-decreasing", ErrInvalidTrace, i)
		}
		prev = f.OffsetMS
		if f.Score < 0 || f.Score > 1 {
			return fmt.Errorf("%w: frame %d: score must be within [0,1]", ErrInvalidTrace, i)
		}
		for name, score := range f.Expressions {
			if _, ok := expression.ParseCategory(name); !ok {
				continue
			}
			if score < 0 || score > 1 {
				return fmt.Errorf("%w: frame %d: %s score must be within [0,1]", ErrInvalidTrace, i, name)
			}
		}
		if n := len(f.Landmarks); n != 0 && n != model.LandmarkCount {
			return fmt.Errorf("%w: frame %d: want %d landmarks, got %d", ErrInvalidTrace, i, model.LandmarkCount, n)
		}
	}
	return nil
}

// UnknownCategories lists the expression names, sorted, that no category
// matches. Playback drops them.
func (t *Trace) UnknownCategories() []string {
	seen := map[string]struct{}{}
	for _, f := range t.Frames {
		for name := range f.Expressions {
			if _, ok := expression.ParseCategory(name); !ok {
				seen[name] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Parse decodes and validates a YAML trace. Unknown keys are rejected.
func Parse(r io.Reader) (*Trace, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Trace
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTrace
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidTrace, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(doc string) (*Trace, error) {
	return Parse(strings.NewReader(doc))
}

// Load reads a trace file.
func Load(path string) (*Trace, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", path, err)
	}
	t, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse trace %s: %w", path, err)
	}
	return t, nil
}

// Encode writes t as YAML.
func Encode(w io.Writer, t *Trace) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	return enc.Close()
}
