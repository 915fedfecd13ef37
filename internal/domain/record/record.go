// Package record normalizes raw input fields into reference table join keys.
package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/okian/pedbp/internal/domain/age"
	"github.com/okian/pedbp/internal/domain/reference"
)

var sexTokens = map[string]reference.Sex{
	"male": reference.Male, "m": reference.Male, "boy": reference.Male, "man": reference.Male,
	"男": reference.Male, "男性": reference.Male, "男孩": reference.Male,

	"female": reference.Female, "f": reference.Female, "girl": reference.Female, "woman": reference.Female,
	"女": reference.Female, "女性": reference.Female, "女孩": reference.Female,
}

// Input is one raw row as supplied by the caller.
type Input struct {
	Sex       string
	Age       any
	Height    *float64
	Systolic  *float64
	Diastolic *float64
}

// Normalized holds the join keys derived from an Input.
type Normalized struct {
	Sex       reference.Sex
	Age       age.Result
	AgeKey    int
	AgeOK     bool
	HeightKey int
	HeightOK  bool
	Systolic  *float64
	Diastolic *float64
}

// Joinable reports whether all three keys are usable for a table lookup.
func (n Normalized) Joinable() bool {
	return n.Sex.Valid() && n.AgeOK && n.HeightOK
}

// Normalizer derives Normalized records. It is safe for concurrent use.
type Normalizer struct {
	ages *age.Parser
}

// NewNormalizer creates a normalizer using parser for ages.
func NewNormalizer(parser *age.Parser) *Normalizer {
	if parser == nil {
		parser = age.NewParser()
	}
	return &Normalizer{ages: parser}
}

// Normalize computes sex, age and height keys for in.
func (n *Normalizer) Normalize(in Input) Normalized {
	out := Normalized{
		Sex:       NormalizeSex(in.Sex),
		Age:       n.ages.Parse(in.Age),
		Systolic:  in.Systolic,
		Diastolic: in.Diastolic,
	}
	out.AgeKey, out.AgeOK = out.Age.Key()
	if in.Height != nil {
		out.HeightKey, out.HeightOK = HeightKey(*in.Height)
	}
	return out
}

// NormalizeSex maps recognized tokens to a table sex. Anything else is
// returned trimmed and lower-cased and will not join.
func NormalizeSex(raw string) reference.Sex {
	s := strings.ToLower(strings.TrimSpace(width.Narrow.String(raw)))
	if sex, ok := sexTokens[s]; ok {
		return sex
	}
	return reference.Sex(s)
}

// HeightKey rounds half up: floor(h + 0.5). Negative and non-finite heights
// have no key.
func HeightKey(h float64) (int, bool) {
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0, false
	}
	return int(math.Floor(h + 0.5)), true
}

// ParseNumber reads a numeric cell. Blank strings, nil and non-finite values
// are missing.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case json.Number:
		var err error
		if f, err = x.Float64(); err != nil {
			return 0, false
		}
	case string:
		s := strings.TrimSpace(width.Narrow.String(x))
		if s == "" {
			return 0, false
		}
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumberPtr is ParseNumber returning nil for missing values.
func NumberPtr(v any) *float64 {
	f, ok := ParseNumber(v)
	if !ok {
		return nil
	}
	return &f
}
