package record_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/okian/pedbp/internal/domain/age"
	"github.com/okian/pedbp/internal/domain/record"
	"github.com/okian/pedbp/internal/domain/reference"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(f float64) *float64 { return &f }

func TestNormalizeSex(t *testing.T) {
	Convey("Given male spellings", t, func() {
		Convey("Then they all map to the male key", func() {
			for _, s := range []string{"male", "M", "Man", "boy", " BOY ", "男", "男性"} {
				So(record.NormalizeSex(s), ShouldEqual, reference.Male)
			}
		})
	})

	Convey("Given female spellings", t, func() {
		Convey("Then they all map to the female key", func() {
			for _, s := range []string{"female", "F", "Woman", "girl", "女", "女孩"} {
				So(record.NormalizeSex(s), ShouldEqual, reference.Female)
			}
		})
	})

	Convey("Given an unrecognized value", t, func() {
		sex := record.NormalizeSex("  Unknown ")

		Convey("Then it passes through trimmed and lower-cased and is not valid", func() {
			So(sex, ShouldEqual, reference.Sex("unknown"))
			So(sex.Valid(), ShouldBeFalse)
		})
	})
}

func TestHeightKey(t *testing.T) {
	Convey("Given heights around a half", t, func() {
		Convey("Then rounding is half up", func() {
			k, ok := record.HeightKey(140.4)
			So(ok, ShouldBeTrue)
			So(k, ShouldEqual, 140)

			k, _ = record.HeightKey(140.5)
			So(k, ShouldEqual, 141)

			k, _ = record.HeightKey(141.5)
			So(k, ShouldEqual, 142)

			k, _ = record.HeightKey(140.49999)
			So(k, ShouldEqual, 140)
		})
	})

	Convey("Given invalid heights", t, func() {
		Convey("Then no key is produced", func() {
			for _, h := range []float64{-1, math.NaN(), math.Inf(1)} {
				_, ok := record.HeightKey(h)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestParseNumber(t *testing.T) {
	Convey("Given numeric cells", t, func() {
		for _, v := range []any{120.0, 120, int64(120), float32(120), "120", " 120 ", json.Number("120"), "１２０"} {
			f, ok := record.ParseNumber(v)
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, 120)
		}
	})

	Convey("Given missing cells", t, func() {
		for _, v := range []any{nil, "", "  ", "NA", "NaN", math.Inf(-1), true, json.Number("x")} {
			_, ok := record.ParseNumber(v)
			So(ok, ShouldBeFalse)
		}
		So(record.NumberPtr(nil), ShouldBeNil)
		So(*record.NumberPtr("80"), ShouldEqual, 80)
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given a normalizer with the strict policy", t, func() {
		n := record.NewNormalizer(age.NewParser())

		Convey("When a complete row is normalized", func() {
			out := n.Normalize(record.Input{
				Sex:       "Boy",
				Age:       "6y3m",
				Height:    ptr(120.5),
				Systolic:  ptr(110),
				Diastolic: nil,
			})

			Convey("Then all keys are derived", func() {
				So(out.Sex, ShouldEqual, reference.Male)
				So(out.AgeOK, ShouldBeTrue)
				So(out.AgeKey, ShouldEqual, 6)
				So(out.Age.Years, ShouldEqual, 6.25)
				So(out.HeightOK, ShouldBeTrue)
				So(out.HeightKey, ShouldEqual, 121)
				So(*out.Systolic, ShouldEqual, 110)
				So(out.Diastolic, ShouldBeNil)
				So(out.Joinable(), ShouldBeTrue)
			})
		})

		Convey("When height is missing", func() {
			out := n.Normalize(record.Input{Sex: "f", Age: 8})

			Convey("Then the row is not joinable", func() {
				So(out.HeightOK, ShouldBeFalse)
				So(out.Joinable(), ShouldBeFalse)
			})
		})

		Convey("When age cannot be parsed", func() {
			out := n.Normalize(record.Input{Sex: "f", Age: "unknown", Height: ptr(130)})

			Convey("Then the row is not joinable", func() {
				So(out.AgeOK, ShouldBeFalse)
				So(out.Joinable(), ShouldBeFalse)
			})
		})

		Convey("When a nil parser is supplied", func() {
			So(record.NewNormalizer(nil).Normalize(record.Input{Age: "7"}).AgeKey, ShouldEqual, 7)
		})
	})
}
