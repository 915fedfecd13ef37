package reference

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidTable = errors.New("invalid reference table")
	ErrLoadTable    = errors.New("load reference table failed")
)
