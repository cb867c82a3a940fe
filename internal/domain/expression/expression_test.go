package expression_test

import (
	"math"
	"testing"

	"github.com/okian/smaile/internal/domain/expression"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCategory(t *testing.T) {
	Convey("Given the fixed category set", t, func() {
		Convey("Then it should contain seven categories in enumeration order", func() {
			cats := expression.Categories()
			So(len(cats), ShouldEqual, 7)
			So(expression.Count, ShouldEqual, 7)
			So(cats[0], ShouldEqual, expression.Neutral)
			So(cats[6], ShouldEqual, expression.Surprised)
		})

		Convey("Then names should round-trip through ParseCategory", func() {
			for _, c := range expression.Categories() {
				parsed, ok := expression.ParseCategory(c.String())
				So(ok, ShouldBeTrue)
				So(parsed, ShouldEqual, c)
			}
		})

		Convey("When parsing names with odd casing", func() {
			c, ok := expression.ParseCategory("  Happy ")

			Convey("Then it should still match", func() {
				So(ok, ShouldBeTrue)
				So(c, ShouldEqual, expression.Happy)
			})
		})

		Convey("When parsing an unknown name", func() {
			_, ok := expression.ParseCategory("contempt")

			Convey("Then it should be rejected", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("Then out-of-range categories should be invalid", func() {
			c := expression.Category(42)
			So(c.Valid(), ShouldBeFalse)
			So(c.String(), ShouldEqual, "unknown")
			So(c.Icon(), ShouldEqual, "😐")
		})
	})
}

func TestIcons(t *testing.T) {
	Convey("Given the icon table", t, func() {
		Convey("Then the first icon of each row should be representative", func() {
			So(expression.Happy.Icon(), ShouldEqual, "😊")
			So(expression.Sad.Icon(), ShouldEqual, "😢")
			So(expression.Surprised.Icon(), ShouldEqual, "😲")
		})

		Convey("Then Icons should return a copy", func() {
			icons := expression.Angry.Icons()
			So(len(icons), ShouldEqual, 3)
			icons[0] = "x"
			So(expression.Angry.Icon(), ShouldEqual, "😠")
		})
	})
}

func TestFromMap(t *testing.T) {
	Convey("Given a detector output map", t, func() {
		Convey("When it contains known and unknown names", func() {
			v := expression.FromMap(map[string]float64{
				"happy":    0.8,
				"sad":      0.1,
				"contempt": 0.9,
			})

			Convey("Then unknown names should be dropped", func() {
				So(v.Get(expression.Happy), ShouldEqual, 0.8)
				So(v.Get(expression.Sad), ShouldEqual, 0.1)
				So(v.Get(expression.Neutral), ShouldEqual, 0)
			})
		})

		Convey("When it contains malformed scores", func() {
			v := expression.FromMap(map[string]float64{
				"happy":   math.NaN(),
				"sad":     -0.3,
				"angry":   1.7,
				"fearful": math.Inf(1),
			})

			Convey("Then every score should be clamped into [0,1]", func() {
				So(v.Get(expression.Happy), ShouldEqual, 0)
				So(v.Get(expression.Sad), ShouldEqual, 0)
				So(v.Get(expression.Angry), ShouldEqual, 1)
				So(v.Get(expression.Fearful), ShouldEqual, 0)
			})
		})

		Convey("When the map is missing categories", func() {
			v := expression.FromMap(map[string]float64{"surprised": 0.4})

			Convey("Then missing categories should read as zero", func() {
				m := v.Map()
				So(len(m), ShouldEqual, expression.Count)
				So(m["surprised"], ShouldEqual, 0.4)
				So(m["neutral"], ShouldEqual, 0)
			})
		})
	})
}

func TestVectorWith(t *testing.T) {
	Convey("Given a vector", t, func() {
		v := expression.Vector{}.With(expression.Happy, 0.5)

		Convey("When deriving a new vector", func() {
			w := v.With(expression.Happy, 0.9)

			Convey("Then the original should be unchanged", func() {
				So(v.Get(expression.Happy), ShouldEqual, 0.5)
				So(w.Get(expression.Happy), ShouldEqual, 0.9)
			})
		})
	})
}
