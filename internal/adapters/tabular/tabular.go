// Package tabular reads and writes evaluation datasets as CSV or XLSX.
package tabular

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/pedbp/internal/domain/evaluate"
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadFile reads path in the format implied by its extension.
func ReadFile(path string, opts ...Option) (evaluate.Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return evaluate.Dataset{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return evaluate.Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if format == FormatXLSX {
		return ReadXLSX(f, opts...)
	}
	return ReadCSV(f, opts...)
}

// WriteFile writes ds to path in the format implied by its extension.
func WriteFile(path string, ds evaluate.Dataset, opts ...Option) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if format == FormatXLSX {
		return WriteXLSX(f, ds, opts...)
	}
	return WriteCSV(f, ds, opts...)
}

// header cleans a header row and rejects blank or duplicate names.
func header(rec []string) ([]string, error) {
	if len(rec) == 0 {
		return nil, ErrNoHeader
	}
	cols := make([]string, len(rec))
	seen := make(map[string]struct{}, len(rec))
	for i, c := range rec {
		if i == 0 {
			c = strings.TrimPrefix(c, "\ufeff")
		}
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("%w: column %d", ErrBlankColumn, i+1)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
		cols[i] = c
	}
	return cols, nil
}

// toRow maps cells onto columns. Short records leave trailing cells nil and
// extra cells are dropped.
func toRow(cols, rec []string) evaluate.Row {
	row := make(evaluate.Row, len(cols))
	for i, c := range cols {
		if i < len(rec) {
			row[c] = rec[i]
		} else {
			row[c] = nil
		}
	}
	return row
}
