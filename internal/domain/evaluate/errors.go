package evaluate

import (
	"errors"

	"github.com/okian/pedbp/internal/domain/i18n"
)

var (
	// ErrMissingColumns matches any *MissingColumnsError.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrInvalidMapping is returned for a column mapping naming unknown fields.
	ErrInvalidMapping = errors.New("invalid column mapping")
)

// MissingColumnsError lists the columns that could not be resolved. Its
// message is rendered in Language.
type MissingColumnsError struct {
	Missing  []string
	Language i18n.Language
}

func (e *MissingColumnsError) Error() string {
	return i18n.For(e.Language).MissingColumns(e.Missing)
}

// Is reports whether target is ErrMissingColumns.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}
