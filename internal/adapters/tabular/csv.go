package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/okian/pedbp/internal/domain/evaluate"
)

// ReadCSV reads a CSV table with a header row. Cells are kept as strings.
func ReadCSV(r io.Reader, opts ...Option) (evaluate.Dataset, error) {
	s := newSettings(opts)
	cr := csv.NewReader(r)
	cr.Comma = s.comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return evaluate.Dataset{}, ErrNoHeader
	}
	if err != nil {
		return evaluate.Dataset{}, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := header(first)
	if err != nil {
		return evaluate.Dataset{}, err
	}

	ds := evaluate.Dataset{Columns: cols, Rows: []evaluate.Row{}}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return evaluate.Dataset{}, fmt.Errorf("read csv: %w", err)
		}
		ds.Rows = append(ds.Rows, toRow(cols, rec))
	}
	return ds, nil
}

// WriteCSV writes ds with a header row.
func WriteCSV(w io.Writer, ds evaluate.Dataset, opts ...Option) error {
	s := newSettings(opts)
	if s.bom {
		if _, err := io.WriteString(w, "\ufeff"); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	cw.Comma = s.comma

	cols := ds.ColumnNames()
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(cols))
	for _, row := range ds.Rows {
		for i, c := range cols {
			rec[i] = evaluate.CellString(row[c])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
