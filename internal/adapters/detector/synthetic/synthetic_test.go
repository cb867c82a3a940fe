package synthetic_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/smaile/internal/adapters/detector/synthetic"
	"github.com/okian/smaile/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func collect(d *synthetic.Detector, n int) []*model.Detection {
	out := make([]*model.Detection, n)
	for i := range out {
		det, err := d.Detect(context.Background())
		So(err, ShouldBeNil)
		out[i] = det
	}
	return out
}

func TestDetector_Detect(t *testing.T) {
	Convey("Given a synthetic detector without latency", t, func() {
		d := synthetic.New(
			synthetic.WithLatencyRange(0, 0),
			synthetic.WithDropoutRate(0),
			synthetic.WithScoreThreshold(0),
		)

		Convey("When detecting a batch of frames", func() {
			dets := collect(d, 200)

			Convey("Then every frame should carry a normalized vector", func() {
				for _, det := range dets {
					So(det, ShouldNotBeNil)
					var sum float64
					for _, s := range det.Expressions {
						So(s, ShouldBeBetweenOrEqual, 0, 1)
						sum += s
					}
					So(math.Abs(sum-1), ShouldBeLessThan, 1e-9)
					So(det.Score, ShouldBeBetweenOrEqual, 0.45, 1)
					So(det.HasLandmarks(), ShouldBeFalse)
				}
			})
		})
	})

	Convey("Given two detectors with the same seed", t, func() {
		opts := []synthetic.Option{synthetic.WithSeed(7), synthetic.WithLatencyRange(0, 0)}
		a := synthetic.New(opts...)
		b := synthetic.New(opts...)

		Convey("Then they should produce identical streams", func() {
			da, db := collect(a, 50), collect(b, 50)
			for i := range da {
				So(da[i] == nil, ShouldEqual, db[i] == nil)
				if da[i] != nil {
					So(da[i].Expressions, ShouldResemble, db[i].Expressions)
				}
			}
		})
	})

	Convey("Given a detector that always drops frames", t, func() {
		d := synthetic.New(synthetic.WithLatencyRange(0, 0), synthetic.WithDropoutRate(1))

		Convey("Then every frame should have no face", func() {
			for _, det := range collect(d, 20) {
				So(det, ShouldBeNil)
			}
		})
	})

	Convey("Given a detector with a score threshold above any face score", t, func() {
		d := synthetic.New(
			synthetic.WithLatencyRange(0, 0),
			synthetic.WithDropoutRate(0),
			synthetic.WithScoreThreshold(1),
		)

		Convey("Then faces should be filtered out", func() {
			for _, det := range collect(d, 20) {
				So(det, ShouldBeNil)
			}
		})
	})

	Convey("Given a detector with landmarks enabled", t, func() {
		d := synthetic.New(
			synthetic.WithLatencyRange(0, 0),
			synthetic.WithDropoutRate(0),
			synthetic.WithScoreThreshold(0),
			synthetic.WithLandmarks(true),
		)

		Convey("Then each face should carry a full landmark set", func() {
			det := collect(d, 1)[0]
			So(det.HasLandmarks(), ShouldBeTrue)
		})
	})

	Convey("Given a detector with simulated latency", t, func() {
		d := synthetic.New(synthetic.WithLatencyRange(time.Second, 2*time.Second))

		Convey("When the context is canceled during inference", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			det, err := d.Detect(ctx)

			Convey("Then it should return the context error", func() {
				So(det, ShouldBeNil)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestDetector_InputSize(t *testing.T) {
	Convey("Given detectors at the desktop and mobile input sizes", t, func() {
		opts := []synthetic.Option{synthetic.WithLatencyRange(20*time.Millisecond, 40*time.Millisecond)}
		desktop := synthetic.New(append(opts, synthetic.WithInputSize(416))...)
		mobile := synthetic.New(append(opts, synthetic.WithInputSize(128))...)

		Convey("Then the desktop size should keep the given range", func() {
			minLatency, maxLatency := desktop.LatencyRange()
			So(minLatency, ShouldEqual, 20*time.Millisecond)
			So(maxLatency, ShouldEqual, 40*time.Millisecond)
		})

		Convey("Then the mobile size should be about ten times faster", func() {
			minLatency, maxLatency := mobile.LatencyRange()
			So(float64(minLatency), ShouldAlmostEqual, float64(20*time.Millisecond)/10.5625, float64(time.Microsecond))
			So(float64(maxLatency), ShouldAlmostEqual, float64(40*time.Millisecond)/10.5625, float64(time.Microsecond))
		})

		Convey("Then a non-positive size should be ignored", func() {
			d := synthetic.New(append(opts, synthetic.WithInputSize(0))...)
			minLatency, _ := d.LatencyRange()
			So(minLatency, ShouldEqual, 20*time.Millisecond)
		})
	})
}
