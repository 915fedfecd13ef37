package tabular_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/pedbp/internal/adapters/tabular"
	"github.com/okian/pedbp/internal/domain/evaluate"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func sample() evaluate.Dataset {
	return evaluate.Dataset{
		Columns: []string{"性别", "年龄", "身高", "收缩压", "舒张压", "血压评价"},
		Rows: []evaluate.Row{
			{"性别": "男", "年龄": "6岁3个月", "身高": 120.5, "收缩压": 110, "舒张压": 70, "血压评价": "正常高值"},
			{"性别": "女", "年龄": "75months", "身高": nil, "收缩压": 100, "舒张压": nil, "血压评价": "超出范围"},
		},
	}
}

func TestFormatFromPath(t *testing.T) {
	Convey("Given file names", t, func() {
		f, err := tabular.FormatFromPath("in/Data.CSV")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, tabular.FormatCSV)

		f, err = tabular.FormatFromPath("out.xlsx")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, tabular.FormatXLSX)

		_, err = tabular.FormatFromPath("old.xls")
		So(errors.Is(err, tabular.ErrUnsupportedFormat), ShouldBeTrue)
	})
}

func TestCSV(t *testing.T) {
	Convey("Given a CSV with a BOM, padding and ragged rows", t, func() {
		in := "\ufeffsex, age ,height,sbp,dbp\nmale,6y,120,110,70\nfemale,7\n\nboy,8,130,100,60,extra\n"

		Convey("When it is read", func() {
			ds, err := tabular.ReadCSV(strings.NewReader(in))
			So(err, ShouldBeNil)

			Convey("Then headers are cleaned and rows are padded", func() {
				So(ds.Columns, ShouldResemble, []string{"sex", "age", "height", "sbp", "dbp"})
				So(ds.Len(), ShouldEqual, 3)
				So(ds.Rows[0]["age"], ShouldEqual, "6y")
				So(ds.Rows[1]["height"], ShouldBeNil)
				So(ds.Rows[2]["dbp"], ShouldEqual, "60")
				_, extra := ds.Rows[2]["extra"]
				So(extra, ShouldBeFalse)
			})
		})
	})

	Convey("Given bad headers", t, func() {
		_, err := tabular.ReadCSV(strings.NewReader(""))
		So(errors.Is(err, tabular.ErrNoHeader), ShouldBeTrue)

		_, err = tabular.ReadCSV(strings.NewReader("sex,,age\n"))
		So(errors.Is(err, tabular.ErrBlankColumn), ShouldBeTrue)

		_, err = tabular.ReadCSV(strings.NewReader("sex,age,sex\n"))
		So(errors.Is(err, tabular.ErrDuplicateColumn), ShouldBeTrue)
	})

	Convey("Given a dataset written as CSV", t, func() {
		var buf bytes.Buffer
		So(tabular.WriteCSV(&buf, sample()), ShouldBeNil)

		Convey("Then the text keeps column order and renders cells", func() {
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines[0], ShouldEqual, "性别,年龄,身高,收缩压,舒张压,血压评价")
			So(lines[1], ShouldEqual, "男,6岁3个月,120.5,110,70,正常高值")
			So(lines[2], ShouldEqual, "女,75months,,100,,超出范围")
		})

		Convey("Then reading it back yields the same cells as strings", func() {
			ds, err := tabular.ReadCSV(&buf)
			So(err, ShouldBeNil)
			So(ds.Columns, ShouldResemble, sample().Columns)
			So(ds.Rows[0]["身高"], ShouldEqual, "120.5")
			So(ds.Rows[1]["身高"], ShouldEqual, "")
		})
	})

	Convey("Given BOM and delimiter options", t, func() {
		var buf bytes.Buffer
		So(tabular.WriteCSV(&buf, sample(), tabular.WithBOM(true), tabular.WithComma(';')), ShouldBeNil)
		So(strings.HasPrefix(buf.String(), "\ufeff性别;年龄"), ShouldBeTrue)

		ds, err := tabular.ReadCSV(&buf, tabular.WithComma(';'))
		So(err, ShouldBeNil)
		So(ds.Columns[0], ShouldEqual, "性别")
	})
}

func TestXLSX(t *testing.T) {
	Convey("Given a dataset written as XLSX", t, func() {
		var buf bytes.Buffer
		So(tabular.WriteXLSX(&buf, sample(), tabular.WithSheet("结果")), ShouldBeNil)

		Convey("When it is read back from the named sheet", func() {
			ds, err := tabular.ReadXLSX(bytes.NewReader(buf.Bytes()), tabular.WithSheet("结果"))
			So(err, ShouldBeNil)

			Convey("Then columns and cell text survive", func() {
				So(ds.Columns, ShouldResemble, sample().Columns)
				So(ds.Len(), ShouldEqual, 2)
				So(ds.Rows[0]["年龄"], ShouldEqual, "6岁3个月")
				So(ds.Rows[0]["身高"], ShouldEqual, "120.5")
				So(ds.Rows[0]["收缩压"], ShouldEqual, "110")
				So(ds.Rows[1]["血压评价"], ShouldEqual, "超出范围")
			})
		})

		Convey("When it is read without a sheet name", func() {
			ds, err := tabular.ReadXLSX(bytes.NewReader(buf.Bytes()))
			So(err, ShouldBeNil)
			So(ds.Columns[0], ShouldEqual, "性别")
		})

		Convey("When an unknown sheet is requested", func() {
			_, err := tabular.ReadXLSX(bytes.NewReader(buf.Bytes()), tabular.WithSheet("missing"))
			So(errors.Is(err, tabular.ErrNoSheet), ShouldBeTrue)
		})
	})

	Convey("Given bytes that are not a workbook", t, func() {
		_, err := tabular.ReadXLSX(strings.NewReader("not a zip"))
		So(err, ShouldNotBeNil)
	})
}

// formattedWorkbook stores precise measurements in cells whose number
// formats display them rounded.
func formattedWorkbook() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := []any{"sex", "age", "height", "sbp", "dbp"}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		return nil, err
	}
	row := []any{"male", 10, 140.45, 119.6, 60}
	if err := f.SetSheetRow("Sheet1", "A2", &row); err != nil {
		return nil, err
	}
	oneDecimal := "0.0"
	heightStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &oneDecimal})
	if err != nil {
		return nil, err
	}
	integer := "0"
	sbpStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &integer})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle("Sheet1", "C2", "C2", heightStyle); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle("Sheet1", "D2", "D2", sbpStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestXLSXNumberFormats(t *testing.T) {
	Convey("Given a workbook whose number formats round the displayed values", t, func() {
		data, err := formattedWorkbook()
		So(err, ShouldBeNil)

		Convey("When it is read", func() {
			ds, err := tabular.ReadXLSX(bytes.NewReader(data))
			So(err, ShouldBeNil)

			Convey("Then the stored values are returned, not the displayed ones", func() {
				So(ds.Cell(0, "height"), ShouldEqual, "140.45")
				So(ds.Cell(0, "sbp"), ShouldEqual, "119.6")
				So(ds.Cell(0, "age"), ShouldEqual, "10")
				So(ds.Cell(0, "sex"), ShouldEqual, "male")
			})
		})
	})
}

func TestFiles(t *testing.T) {
	Convey("Given a temporary directory", t, func() {
		dir := t.TempDir()

		for _, name := range []string{"out.csv", "out.xlsx"} {
			Convey("When "+name+" is written and read", func() {
				path := filepath.Join(dir, name)
				So(tabular.WriteFile(path, sample()), ShouldBeNil)
				ds, err := tabular.ReadFile(path)

				Convey("Then the dataset survives", func() {
					So(err, ShouldBeNil)
					So(ds.Columns, ShouldResemble, sample().Columns)
					So(ds.Rows[1]["性别"], ShouldEqual, "女")
				})
			})
		}

		Convey("When the extension is unsupported", func() {
			So(errors.Is(tabular.WriteFile(filepath.Join(dir, "x.json"), sample()), tabular.ErrUnsupportedFormat), ShouldBeTrue)
			_, err := tabular.ReadFile(filepath.Join(dir, "x.json"))
			So(errors.Is(err, tabular.ErrUnsupportedFormat), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := tabular.ReadFile(filepath.Join(dir, "missing.csv"))
			So(err, ShouldNotBeNil)
		})
	})
}
