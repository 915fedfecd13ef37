package evaluate

import (
	"fmt"
	"slices"

	"github.com/okian/pedbp/internal/domain/i18n"
)

// Mapping overrides the column used for a field. Unmapped fields use the
// language defaults.
type Mapping map[i18n.Field]string

// Validate rejects unknown fields and empty column names.
func (m Mapping) Validate() error {
	for f, col := range m {
		if !slices.Contains(i18n.Fields, f) {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidMapping, f)
		}
		if col == "" {
			return fmt.Errorf("%w: empty column for %q", ErrInvalidMapping, f)
		}
	}
	return nil
}

// Resolution is the outcome of column resolution.
type Resolution struct {
	Columns map[i18n.Field]string `json:"columns"`
	// Source is the language whose defaults filled unmapped fields.
	Source   i18n.Language `json:"source"`
	Fallback bool          `json:"fallback"`
}

// Names returns the resolved column names in field order.
func (r Resolution) Names() []string {
	out := make([]string, 0, len(i18n.Fields))
	for _, f := range i18n.Fields {
		out = append(out, r.Columns[f])
	}
	return out
}

// Resolve maps every required field to a column of columns. Explicit entries
// win; the rest come from lang's defaults. Only when no explicit mapping was
// given are the other language's defaults tried. Otherwise the failure names
// the missing columns.
func Resolve(columns []string, mapping Mapping, lang i18n.Language) (Resolution, error) {
	res, missing := resolveWith(columns, mapping, lang)
	if len(missing) == 0 {
		return res, nil
	}
	if len(mapping) == 0 {
		alt, altMissing := resolveWith(columns, nil, lang.Other())
		if len(altMissing) == 0 {
			alt.Fallback = true
			return alt, nil
		}
	}
	return Resolution{}, &MissingColumnsError{Missing: missing, Language: lang}
}

func resolveWith(columns []string, mapping Mapping, lang i18n.Language) (Resolution, []string) {
	vocab := i18n.For(lang)
	res := Resolution{Columns: make(map[i18n.Field]string, len(i18n.Fields)), Source: lang}
	var missing []string
	for _, f := range i18n.Fields {
		col, ok := mapping[f]
		if !ok {
			col = vocab.Column(f)
		}
		if !slices.Contains(columns, col) {
			missing = append(missing, col)
			continue
		}
		res.Columns[f] = col
	}
	return res, missing
}
