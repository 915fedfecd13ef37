// Package age turns free-form age values ("6y3m", "75 months", "6岁3个月",
// 6.25, "80") into a continuous age in years.
//
// Forms are tried in a fixed priority order and the first match wins:
// years+months, years only, months only, bare number, unparseable.
package age

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// bareYearsLimit is the largest bare number read as years.
const bareYearsLimit = 18

// Lookup coverage for the strict policy, in whole years.
const (
	strictMinYears = 3
	strictMaxYears = 17
)

// Form tags which rule produced a Result.
type Form string

const (
	FormUnparseable Form = "unparseable"
	FormYearsMonths Form = "years_months"
	FormYears       Form = "years"
	FormMonths      Form = "months"
	FormBareYears   Form = "bare_years"
	FormBareMonths  Form = "bare_months"
)

// Policy decides how a bare number above 18 is read.
type Policy string

const (
	// PolicyStrict reads a bare number above 18 as months only when the
	// result floors into [3, 17]; otherwise the number stays in years.
	PolicyStrict Policy = "strict"
	// PolicyMonths always reads a bare number above 18 as months.
	PolicyMonths Policy = "months"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyStrict, PolicyMonths:
		return p, nil
	case "":
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Result is a parsed age.
type Result struct {
	Years float64
	Form  Form
}

// OK reports whether the input was understood.
func (r Result) OK() bool { return r.Form != FormUnparseable }

// Key returns the whole-year join key, floor(Years).
func (r Result) Key() (int, bool) {
	if !r.OK() {
		return 0, false
	}
	return int(math.Floor(r.Years)), true
}

var unparseable = Result{Form: FormUnparseable}

const number = `(\d+(?:\.\d+)?)`

// unit values must not be preceded by a sign or another digit run.
const unitStart = `(?:^|[^\d.\-+])`

var (
	yearPattern  = regexp.MustCompile(unitStart + number + `(?:years|year|yrs|yr|y|周?岁|年)`)
	monthPattern = regexp.MustCompile(unitStart + number + `个?(?:months|month|mos|mo|m|月)`)
	barePattern  = regexp.MustCompile(`^` + number + `$`)
)

// Parser parses ages under one Policy. The zero value uses PolicyStrict.
type Parser struct {
	policy Policy
}

// NewParser creates a parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{policy: PolicyStrict}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the configured bare-number policy.
func (p *Parser) Policy() Policy {
	if p.policy == "" {
		return PolicyStrict
	}
	return p.policy
}

// Parse accepts strings and Go numeric values.
func (p *Parser) Parse(raw any) Result {
	switch v := raw.(type) {
	case nil:
		return unparseable
	case string:
		return p.ParseString(v)
	case []byte:
		return p.ParseString(string(v))
	case json.Number:
		return p.ParseString(v.String())
	case float64:
		return p.bare(v)
	case float32:
		return p.bare(float64(v))
	case int:
		return p.bare(float64(v))
	case int32:
		return p.bare(float64(v))
	case int64:
		return p.bare(float64(v))
	case uint:
		return p.bare(float64(v))
	case fmt.Stringer:
		return p.ParseString(v.String())
	default:
		return unparseable
	}
}

// ParseString applies the ordered unit rules to text.
func (p *Parser) ParseString(s string) Result {
	s = canonical(s)
	if s == "" || strings.ContainsAny(s, "+-") {
		return unparseable
	}

	y := yearPattern.FindStringSubmatch(s)
	m := monthPattern.FindStringSubmatch(s)
	switch {
	case y != nil && m != nil:
		years, errY := strconv.ParseFloat(y[1], 64)
		months, errM := strconv.ParseFloat(m[1], 64)
		if errY != nil || errM != nil {
			return unparseable
		}
		return Result{Years: years + months/12, Form: FormYearsMonths}
	case y != nil:
		years, err := strconv.ParseFloat(y[1], 64)
		if err != nil {
			return unparseable
		}
		return Result{Years: years, Form: FormYears}
	case m != nil:
		months, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return unparseable
		}
		return Result{Years: months / 12, Form: FormMonths}
	}

	if !barePattern.MatchString(s) {
		return unparseable
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return unparseable
	}
	return p.bare(v)
}

func (p *Parser) bare(v float64) Result {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return unparseable
	}
	if v <= bareYearsLimit {
		return Result{Years: v, Form: FormBareYears}
	}
	months := v / 12
	if p.Policy() == PolicyStrict {
		if k := math.Floor(months); k < strictMinYears || k > strictMaxYears {
			return Result{Years: v, Form: FormBareYears}
		}
	}
	return Result{Years: months, Form: FormBareMonths}
}

// canonical narrows full-width characters, lower-cases Latin letters and
// strips every whitespace rune.
func canonical(s string) string {
	s = strings.ToLower(width.Narrow.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
