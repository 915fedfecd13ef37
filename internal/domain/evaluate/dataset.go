package evaluate

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
)

// Row maps column name to cell value. Values are string, float64, int or nil.
type Row map[string]any

// Dataset is an ordered table of rows.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// ColumnNames returns Columns, or the sorted union of row keys when Columns
// was not supplied.
func (d Dataset) ColumnNames() []string {
	if len(d.Columns) > 0 {
		return slices.Clone(d.Columns)
	}
	seen := make(map[string]struct{})
	for _, r := range d.Rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Cell returns the value of column in row i rendered as a string.
func (d Dataset) Cell(i int, column string) string {
	if i < 0 || i >= len(d.Rows) {
		return ""
	}
	return CellString(d.Rows[i][column])
}

// CellString renders a cell for text output. Nil is empty.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return CellString(float64(x))
	default:
		return fmt.Sprint(x)
	}
}
