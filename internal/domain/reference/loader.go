package reference

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

//go:embed data/bp_reference.csv
var embeddedTable []byte

// Columns expected in a reference CSV header, in any order.
var csvColumns = []string{
	"sex", "age", "height_lower", "height_upper",
	"sbp_p90", "sbp_p95", "sbp_p99",
	"dbp_p90", "dbp_p95", "dbp_p99",
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the bundled table, parsed once per process.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(embeddedTable))
		if err != nil {
			panic(fmt.Sprintf("reference: embedded table is corrupt: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// IllustrativeWarning is logged when the bundled table is in use.
const IllustrativeWarning = "using the bundled illustrative reference table; set reference_table to the published table before classifying real measurements"

// IsDefault reports whether t is the bundled table. Its values are
// illustrative, so callers warn when classifying against it.
func IsDefault(t *Table) bool {
	return t != nil && t == Default()
}

// LoadFile reads and validates a reference table CSV from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadTable, err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load parses a reference table CSV with a header row and validates it.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrLoadTable)
		}
		return nil, fmt.Errorf("%w: read header: %w", ErrLoadTable, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range csvColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: header missing %s", ErrLoadTable, strings.Join(missing, ", "))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadTable, err)
		}
		line, _ := cr.FieldPos(0)
		row, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrLoadTable, line, err)
		}
		rows = append(rows, row)
	}

	t := NewTable(rows)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseRow(rec []string, idx map[string]int) (Row, error) {
	field := func(name string) string {
		return strings.TrimSpace(rec[idx[name]])
	}
	var (
		row  Row
		err  error
		errs []error
	)
	intField := func(name string) int {
		v, e := strconv.Atoi(field(name))
		if e != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, e))
		}
		return v
	}
	floatField := func(name string) float64 {
		v, e := strconv.ParseFloat(field(name), 64)
		if e != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, e))
		}
		return v
	}

	row.Sex = Sex(strings.ToLower(field("sex")))
	if !row.Sex.Valid() {
		errs = append(errs, fmt.Errorf("sex: unknown value %q", field("sex")))
	}
	row.Age = intField("age")
	row.HeightLower = intField("height_lower")
	row.HeightUpper = intField("height_upper")
	row.Systolic = Percentiles{P90: floatField("sbp_p90"), P95: floatField("sbp_p95"), P99: floatField("sbp_p99")}
	row.Diastolic = Percentiles{P90: floatField("dbp_p90"), P95: floatField("dbp_p95"), P99: floatField("dbp_p99")}

	if len(errs) > 0 {
		err = errors.Join(errs...)
	}
	return row, err
}
