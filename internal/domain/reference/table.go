// Package reference holds the sex/age/height stratified blood pressure
// percentile table that classification is joined against.
//
// A Table is immutable once built and safe for concurrent readers.
package reference

import (
	"fmt"
	"sort"
)

// Coverage limits of the pediatric table, in whole years.
const (
	MinAge = 3
	MaxAge = 17
)

// Sex is the normalized sex key used for joins.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// Valid reports whether s is one of the two table sexes.
func (s Sex) Valid() bool { return s == Male || s == Female }

// Percentiles are the P90/P95/P99 thresholds of one measurement, in mmHg.
type Percentiles struct {
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Row is one stratum of the reference table. Height bounds are inclusive cm.
type Row struct {
	Sex         Sex         `json:"sex"`
	Age         int         `json:"age"`
	HeightLower int         `json:"height_lower"`
	HeightUpper int         `json:"height_upper"`
	Systolic    Percentiles `json:"systolic"`
	Diastolic   Percentiles `json:"diastolic"`
}

// Contains reports whether height falls inside the row's interval.
func (r Row) Contains(height int) bool {
	return height >= r.HeightLower && height <= r.HeightUpper
}

type stratumKey struct {
	sex Sex
	age int
}

// Table indexes rows by (sex, age) with height intervals sorted ascending.
type Table struct {
	rows   []Row
	strata map[stratumKey][]Row
}

// NewTable builds a Table from rows. The input slice is copied.
func NewTable(rows []Row) *Table {
	t := &Table{
		rows:   append([]Row(nil), rows...),
		strata: make(map[stratumKey][]Row),
	}
	for _, r := range t.rows {
		k := stratumKey{sex: r.Sex, age: r.Age}
		t.strata[k] = append(t.strata[k], r)
	}
	for _, group := range t.strata {
		sort.Slice(group, func(i, j int) bool { return group[i].HeightLower < group[j].HeightLower })
	}
	return t
}

// Lookup returns the stratum matching sex, whole-year age and rounded height.
func (t *Table) Lookup(sex Sex, age, height int) (Row, bool) {
	group := t.strata[stratumKey{sex: sex, age: age}]
	if len(group) == 0 {
		return Row{}, false
	}
	// First interval whose upper bound reaches height.
	i := sort.Search(len(group), func(i int) bool { return group[i].HeightUpper >= height })
	if i == len(group) || !group[i].Contains(height) {
		return Row{}, false
	}
	return group[i], true
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of all rows in load order.
func (t *Table) Rows() []Row { return append([]Row(nil), t.rows...) }

// Validate checks that every (sex, age) group partitions a contiguous height
// range and that percentiles are ordered.
func (t *Table) Validate() error {
	if len(t.rows) == 0 {
		return fmt.Errorf("%w: table has no rows", ErrInvalidTable)
	}
	for _, r := range t.rows {
		if !r.Sex.Valid() {
			return fmt.Errorf("%w: unknown sex %q", ErrInvalidTable, r.Sex)
		}
		if r.HeightLower > r.HeightUpper {
			return fmt.Errorf("%w: %s age %d: height interval %d-%d is inverted",
				ErrInvalidTable, r.Sex, r.Age, r.HeightLower, r.HeightUpper)
		}
		if !ordered(r.Systolic) || !ordered(r.Diastolic) {
			return fmt.Errorf("%w: %s age %d height %d-%d: percentiles must satisfy P90 <= P95 <= P99",
				ErrInvalidTable, r.Sex, r.Age, r.HeightLower, r.HeightUpper)
		}
	}
	for k, group := range t.strata {
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			switch {
			case cur.HeightLower <= prev.HeightUpper:
				return fmt.Errorf("%w: %s age %d: intervals %d-%d and %d-%d overlap",
					ErrInvalidTable, k.sex, k.age, prev.HeightLower, prev.HeightUpper, cur.HeightLower, cur.HeightUpper)
			case cur.HeightLower != prev.HeightUpper+1:
				return fmt.Errorf("%w: %s age %d: gap between %d and %d",
					ErrInvalidTable, k.sex, k.age, prev.HeightUpper, cur.HeightLower)
			}
		}
	}
	return nil
}

func ordered(p Percentiles) bool {
	return p.P90 <= p.P95 && p.P95 <= p.P99
}

// Stratum summarizes the height coverage of one (sex, age) group.
type Stratum struct {
	Sex       Sex `json:"sex"`
	Age       int `json:"age"`
	HeightMin int `json:"height_min"`
	HeightMax int `json:"height_max"`
	Intervals int `json:"intervals"`
}

// Coverage lists every (sex, age) group ordered by sex then age.
func (t *Table) Coverage() []Stratum {
	out := make([]Stratum, 0, len(t.strata))
	for k, group := range t.strata {
		out = append(out, Stratum{
			Sex:       k.sex,
			Age:       k.age,
			HeightMin: group[0].HeightLower,
			HeightMax: group[len(group)-1].HeightUpper,
			Intervals: len(group),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sex != out[j].Sex {
			return out[i].Sex < out[j].Sex
		}
		return out[i].Age < out[j].Age
	})
	return out
}
