package replay_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/smaile/internal/adapters/detector/replay"
	"github.com/okian/smaile/internal/domain/expression"
	. "github.com/smartystreets/goconvey/convey"
)

const sample = `
name: smile-then-leave
frame_interval_ms: 100
frames:
  - offset_ms: 0
    score: 0.9
    expressions: {happy: 0.9, neutral: 0.1}
  - offset_ms: 100
    score: 0.3
    expressions: {happy: 0.8, neutral: 0.2}
  - offset_ms: 200
  - offset_ms: 1500
`

func TestParse(t *testing.T) {
	Convey("Given a valid trace document", t, func() {
		tr, err := replay.ParseString(sample)

		Convey("Then it should decode every frame", func() {
			So(err, ShouldBeNil)
			So(tr.Name, ShouldEqual, "smile-then-leave")
			So(len(tr.Frames), ShouldEqual, 4)
			So(tr.Frames[0].Face(), ShouldBeTrue)
			So(tr.Frames[2].Face(), ShouldBeFalse)
			So(tr.Interval(), ShouldEqual, 100*time.Millisecond)
			So(tr.Duration(), ShouldEqual, 1600*time.Millisecond)
		})

		Convey("Then a face frame should convert to a detection", func() {
			det := tr.Frames[0].Detection()
			So(det.Expressions.Get(expression.Happy), ShouldEqual, 0.9)
			So(det.Score, ShouldEqual, 0.9)
			So(tr.Frames[3].Detection(), ShouldBeNil)
		})

		Convey("Then it should survive an encode and parse", func() {
			var buf bytes.Buffer
			So(replay.Encode(&buf, tr), ShouldBeNil)
			again, err := replay.Parse(&buf)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, tr)
		})
	})

	Convey("Given malformed traces", t, func() {
		cases := map[string]struct {
			doc  string
			want error
		}{
			"empty document":     {doc: "", want: replay.ErrEmptyTrace},
			"no frames":          {doc: "name: x\n", want: replay.ErrEmptyTrace},
			"unknown key":        {doc: "frames:\n  - offset_ms: 0\n    mood: 1\n", want: replay.ErrInvalidTrace},
			"offsets backwards":  {doc: "frames:\n  - offset_ms: 10\n  - offset_ms: 5\n", want: replay.ErrInvalidTrace},
			"score out of range": {doc: "frames:\n  - offset_ms: 0\n    expressions: {sad: 1.5}\n", want: replay.ErrInvalidTrace},
			"partial landmarks":  {doc: "frames:\n  - offset_ms: 0\n    landmarks: [{x: 1, y: 2}]\n", want: replay.ErrInvalidTrace},
		}

		for name, tc := range cases {
			_, err := replay.ParseString(tc.doc)

			Convey("Then "+name+" should be rejected", func() {
				So(errors.Is(err, tc.want), ShouldBeTrue)
			})
		}
	})

	Convey("Given a trace naming a category the model does not have", t, func() {
		tr, err := replay.ParseString("frames:\n  - offset_ms: 0\n    expressions: {smug: 2, happy: 0.8}\n  - offset_ms: 33\n    expressions: {smug: 0.4}\n")

		Convey("Then it should load and drop the unknown name on playback", func() {
			So(err, ShouldBeNil)
			So(tr.UnknownCategories(), ShouldResemble, []string{"smug"})
			det := tr.Frames[0].Detection()
			So(det, ShouldNotBeNil)
			So(det.Expressions.Get(expression.Happy), ShouldEqual, 0.8)
			So(det.Expressions.Map(), ShouldNotContainKey, "smug")
		})
	})

	Convey("Given a trace file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "trace.yaml")
		So(os.WriteFile(path, []byte(sample), 0o600), ShouldBeNil)

		Convey("Then Load should read it", func() {
			tr, err := replay.Load(path)
			So(err, ShouldBeNil)
			So(len(tr.Frames), ShouldEqual, 4)
		})

		Convey("Then a missing file should fail", func() {
			_, err := replay.Load(path + ".missing")
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

func TestPlayer_Detect(t *testing.T) {
	base := time.Unix(1000, 0)

	Convey("Given a player over the sample trace", t, func() {
		tr, err := replay.ParseString(sample)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When every frame is played", func() {
			p := replay.NewPlayer(tr, base)
			var kinds []bool
			var clock []time.Duration
			for range tr.Frames {
				det, err := p.Detect(ctx)
				So(err, ShouldBeNil)
				kinds = append(kinds, det != nil)
				clock = append(clock, p.Now().Sub(base))
			}

			Convey("Then frames should come back in order with trace time", func() {
				So(kinds, ShouldResemble, []bool{true, true, false, false})
				So(clock, ShouldResemble, []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 1500 * time.Millisecond})
				So(p.Remaining(), ShouldEqual, 0)
			})

			Convey("Then the next call should report the end", func() {
				_, err := p.Detect(ctx)
				So(errors.Is(err, io.EOF), ShouldBeTrue)
			})
		})

		Convey("When the player repeats", func() {
			p := replay.NewPlayer(tr, base, replay.WithRepeat(true))
			for range tr.Frames {
				_, _ = p.Detect(ctx)
			}
			det, err := p.Detect(ctx)

			Convey("Then it should restart after one trace duration", func() {
				So(err, ShouldBeNil)
				So(det, ShouldNotBeNil)
				So(p.Now().Sub(base), ShouldEqual, 1600*time.Millisecond)
				So(det.Captured, ShouldEqual, base.Add(1600*time.Millisecond))
			})
		})

		Convey("When a score threshold is set", func() {
			p := replay.NewPlayer(tr, base, replay.WithScoreThreshold(0.5))
			first, _ := p.Detect(ctx)
			second, _ := p.Detect(ctx)

			Convey("Then low-score faces should be dropped", func() {
				So(first, ShouldNotBeNil)
				So(second, ShouldBeNil)
			})
		})

		Convey("When pacing is on and the context ends early", func() {
			p := replay.NewPlayer(tr, base, replay.WithPacing(true))
			_, err := p.Detect(ctx)
			So(err, ShouldBeNil)

			short, cancel := context.WithTimeout(ctx, 5*time.Millisecond)
			defer cancel()
			_, err = p.Detect(short)

			Convey("Then the wait should be interrupted", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}
