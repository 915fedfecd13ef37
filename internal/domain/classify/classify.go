// Package classify applies the percentile decision rule to a normalized
// record joined against the reference table.
package classify

import (
	"fmt"

	"github.com/okian/pedbp/internal/domain/record"
	"github.com/okian/pedbp/internal/domain/reference"
)

// Absolute limits that force at least HighNormal, in mmHg.
const (
	SystolicCap  = 120
	DiastolicCap = 80
	// Stage2Margin is added to P99 to obtain the Stage2 threshold.
	Stage2Margin = 5
)

// Status is a per-measurement or combined category.
//
// Values are declared in combination order: for two statuses the larger one
// wins. OutOfRange is never produced by Measure or Combine.
type Status int

const (
	Normal Status = iota
	Missing
	HighNormal
	Stage1
	Stage2
	OutOfRange
)

// Statuses lists every status in declaration order.
var Statuses = []Status{Normal, Missing, HighNormal, Stage1, Stage2, OutOfRange}

var codes = map[Status]string{
	Normal:     "normal",
	Missing:    "missing",
	HighNormal: "high_normal",
	Stage1:     "stage1",
	Stage2:     "stage2",
	OutOfRange: "out_of_range",
}

// String returns the stable language-neutral code.
func (s Status) String() string {
	if c, ok := codes[s]; ok {
		return c
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := codes[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for k, v := range codes {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownStatus, string(b))
}

// Measure classifies one measurement against its stratum percentiles.
func Measure(value *float64, p reference.Percentiles, limit float64) Status {
	if value == nil {
		return Missing
	}
	v := *value
	switch {
	case v >= p.P99+Stage2Margin:
		return Stage2
	case v >= p.P95:
		return Stage1
	case v >= p.P90 || v >= limit:
		return HighNormal
	default:
		return Normal
	}
}

// Combine returns the more severe of two measurement statuses.
func Combine(systolic, diastolic Status) Status {
	if diastolic > systolic {
		return diastolic
	}
	return systolic
}

// Result carries the per-measurement statuses and the combined category.
type Result struct {
	Systolic  Status
	Diastolic Status
	Combined  Status
	Stratum   *reference.Row
}

var outOfRange = Result{Systolic: OutOfRange, Diastolic: OutOfRange, Combined: OutOfRange}

// Classifier joins records against a reference table. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	table *reference.Table
}

// New creates a classifier over table; nil selects the bundled table.
func New(table *reference.Table) *Classifier {
	if table == nil {
		table = reference.Default()
	}
	return &Classifier{table: table}
}

// Table returns the reference table in use.
func (c *Classifier) Table() *reference.Table { return c.table }

// Stratum returns the reference row n joins to.
func (c *Classifier) Stratum(n record.Normalized) (reference.Row, bool) {
	if !n.Joinable() {
		return reference.Row{}, false
	}
	return c.table.Lookup(n.Sex, n.AgeKey, n.HeightKey)
}

// Classify looks up the stratum for n and applies the decision rule. A record
// without a matching stratum is OutOfRange regardless of its measurements.
func (c *Classifier) Classify(n record.Normalized) Result {
	row, ok := c.Stratum(n)
	if !ok {
		return outOfRange
	}
	sys := Measure(n.Systolic, row.Systolic, SystolicCap)
	dia := Measure(n.Diastolic, row.Diastolic, DiastolicCap)
	return Result{
		Systolic:  sys,
		Diastolic: dia,
		Combined:  Combine(sys, dia),
		Stratum:   &row,
	}
}
