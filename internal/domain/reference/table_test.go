package reference_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/pedbp/internal/domain/reference"
	. "github.com/smartystreets/goconvey/convey"
)

const smallCSV = `sex,age,height_lower,height_upper,sbp_p90,sbp_p95,sbp_p99,dbp_p90,dbp_p95,dbp_p99
male,6,100,119,105,109,116,68,71,77
male,6,120,139,108,112,119,70,73,79
female,6,100,139,104,108,115,67,70,76
`

func TestLoad(t *testing.T) {
	Convey("Given a well formed reference CSV", t, func() {
		table, err := reference.Load(strings.NewReader(smallCSV))

		Convey("Then it loads every row", func() {
			So(err, ShouldBeNil)
			So(table.Len(), ShouldEqual, 3)
		})

		Convey("Then lookups hit the inclusive interval bounds", func() {
			row, ok := table.Lookup(reference.Male, 6, 119)
			So(ok, ShouldBeTrue)
			So(row.Systolic.P90, ShouldEqual, 105)

			row, ok = table.Lookup(reference.Male, 6, 120)
			So(ok, ShouldBeTrue)
			So(row.Systolic.P90, ShouldEqual, 108)
			So(row.Diastolic.P99, ShouldEqual, 79)
		})

		Convey("Then heights or ages outside coverage miss", func() {
			_, ok := table.Lookup(reference.Male, 6, 99)
			So(ok, ShouldBeFalse)
			_, ok = table.Lookup(reference.Male, 6, 140)
			So(ok, ShouldBeFalse)
			_, ok = table.Lookup(reference.Male, 7, 120)
			So(ok, ShouldBeFalse)
			_, ok = table.Lookup(reference.Sex("other"), 6, 120)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a header with reordered columns and a BOM", t, func() {
		csv := "\ufeffage,sex,height_lower,height_upper,dbp_p90,dbp_p95,dbp_p99,sbp_p90,sbp_p95,sbp_p99\n" +
			"3,FEMALE,90,99,66,69,75,102,105,112\n"
		table, err := reference.Load(strings.NewReader(csv))

		Convey("Then columns are matched by name", func() {
			So(err, ShouldBeNil)
			row, ok := table.Lookup(reference.Female, 3, 95)
			So(ok, ShouldBeTrue)
			So(row.Systolic.P95, ShouldEqual, 105)
			So(row.Diastolic.P90, ShouldEqual, 66)
		})
	})

	Convey("Given malformed inputs", t, func() {
		Convey("When the input is empty", func() {
			_, err := reference.Load(strings.NewReader(""))
			So(errors.Is(err, reference.ErrLoadTable), ShouldBeTrue)
		})

		Convey("When a required column is missing", func() {
			_, err := reference.Load(strings.NewReader("sex,age\nmale,3\n"))
			So(errors.Is(err, reference.ErrLoadTable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "height_lower")
		})

		Convey("When a value is not numeric", func() {
			bad := strings.Replace(smallCSV, "105,109,116", "abc,109,116", 1)
			_, err := reference.Load(strings.NewReader(bad))
			So(errors.Is(err, reference.ErrLoadTable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "line 2")
			So(err.Error(), ShouldContainSubstring, "sbp_p90")
		})

		Convey("When the sex is unknown", func() {
			bad := strings.Replace(smallCSV, "female,6", "x,6", 1)
			_, err := reference.Load(strings.NewReader(bad))
			So(errors.Is(err, reference.ErrLoadTable), ShouldBeTrue)
		})

		Convey("When intervals leave a gap", func() {
			bad := strings.Replace(smallCSV, "male,6,120,139", "male,6,121,139", 1)
			_, err := reference.Load(strings.NewReader(bad))
			So(errors.Is(err, reference.ErrInvalidTable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "gap")
		})

		Convey("When intervals overlap", func() {
			bad := strings.Replace(smallCSV, "male,6,120,139", "male,6,110,139", 1)
			_, err := reference.Load(strings.NewReader(bad))
			So(errors.Is(err, reference.ErrInvalidTable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "overlap")
		})

		Convey("When percentiles are out of order", func() {
			bad := strings.Replace(smallCSV, "105,109,116", "110,109,116", 1)
			_, err := reference.Load(strings.NewReader(bad))
			So(errors.Is(err, reference.ErrInvalidTable), ShouldBeTrue)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a reference CSV on disk", t, func() {
		path := filepath.Join(t.TempDir(), "table.csv")
		So(os.WriteFile(path, []byte(smallCSV), 0o600), ShouldBeNil)

		Convey("Then LoadFile reads it", func() {
			table, err := reference.LoadFile(path)
			So(err, ShouldBeNil)
			So(table.Len(), ShouldEqual, 3)
		})

		Convey("Then a missing file is a load error", func() {
			_, err := reference.LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
			So(errors.Is(err, reference.ErrLoadTable), ShouldBeTrue)
		})
	})
}

func TestLoadSkipsComments(t *testing.T) {
	Convey("Given a CSV with provenance comments before the header", t, func() {
		table, err := reference.Load(strings.NewReader("# source: test fixture\n# units: mmHg\n" + smallCSV))

		Convey("Then the comments are ignored", func() {
			So(err, ShouldBeNil)
			So(table.Len(), ShouldEqual, 3)
		})
	})
}

func TestDefaultTable(t *testing.T) {
	Convey("Given the bundled table", t, func() {
		table := reference.Default()

		Convey("Then it is valid and shared", func() {
			So(table.Validate(), ShouldBeNil)
			So(reference.Default(), ShouldPointTo, table)
			So(reference.IsDefault(table), ShouldBeTrue)
		})

		Convey("Then a loaded table with the same rows is not the bundled one", func() {
			loaded, err := reference.Load(strings.NewReader(smallCSV))
			So(err, ShouldBeNil)
			So(reference.IsDefault(loaded), ShouldBeFalse)
			So(reference.IsDefault(nil), ShouldBeFalse)
		})

		Convey("Then both sexes cover every age from 3 to 17", func() {
			coverage := table.Coverage()
			So(len(coverage), ShouldEqual, 2*(reference.MaxAge-reference.MinAge+1))
			for _, s := range coverage {
				So(s.Age, ShouldBeBetweenOrEqual, reference.MinAge, reference.MaxAge)
				So(s.Sex.Valid(), ShouldBeTrue)
				So(s.HeightMin, ShouldBeLessThan, s.HeightMax)
			}
			So(coverage[0].Sex, ShouldEqual, reference.Female)
			So(coverage[0].Age, ShouldEqual, reference.MinAge)
		})

		Convey("Then every covered height resolves to exactly one row", func() {
			for _, s := range table.Coverage() {
				for h := s.HeightMin; h <= s.HeightMax; h++ {
					row, ok := table.Lookup(s.Sex, s.Age, h)
					So(ok, ShouldBeTrue)
					So(row.Contains(h), ShouldBeTrue)
				}
			}
		})
	})
}

func TestValidateEmpty(t *testing.T) {
	Convey("Given an empty table", t, func() {
		err := reference.NewTable(nil).Validate()

		Convey("Then validation fails", func() {
			So(errors.Is(err, reference.ErrInvalidTable), ShouldBeTrue)
		})
	})
}
