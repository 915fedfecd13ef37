package tabular

import (
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/okian/pedbp/internal/domain/evaluate"
)

const defaultSheet = "Sheet1"

// ReadXLSX reads the first sheet (or the one set by WithSheet). The first
// row is the header. Cells are read as stored, ignoring number formats.
func ReadXLSX(r io.Reader, opts ...Option) (evaluate.Dataset, error) {
	s := newSettings(opts)
	f, err := excelize.OpenReader(r)
	if err != nil {
		return evaluate.Dataset{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if !slices.Contains(f.GetSheetList(), sheet) {
		return evaluate.Dataset{}, fmt.Errorf("%w: %q", ErrNoSheet, sheet)
	}
	if sheet == "" {
		return evaluate.Dataset{}, ErrNoSheet
	}

	// Raw values: a display format like "0.0" must not round the measurements.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return evaluate.Dataset{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return evaluate.Dataset{}, ErrNoHeader
	}
	cols, err := header(rows[0])
	if err != nil {
		return evaluate.Dataset{}, err
	}

	ds := evaluate.Dataset{Columns: cols, Rows: make([]evaluate.Row, 0, len(rows)-1)}
	for _, rec := range rows[1:] {
		ds.Rows = append(ds.Rows, toRow(cols, rec))
	}
	return ds, nil
}

// WriteXLSX writes ds to a single sheet with a frozen header row. Numeric
// cells are stored as numbers.
func WriteXLSX(w io.Writer, ds evaluate.Dataset, opts ...Option) error {
	s := newSettings(opts)
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if s.sheet != "" && s.sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, s.sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
		sheet = s.sheet
	}

	cols := ds.ColumnNames()
	title := make([]any, len(cols))
	for i, c := range cols {
		title[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &title); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if s.boldTitle && len(cols) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("create header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(cols), 1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
	}

	for i, row := range ds.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		values := make([]any, len(cols))
		for j, c := range cols {
			values[j] = row[c]
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
