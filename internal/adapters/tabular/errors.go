package tabular

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoHeader          = errors.New("missing header row")
	ErrBlankColumn       = errors.New("blank column name")
	ErrDuplicateColumn   = errors.New("duplicate column name")
	ErrNoSheet           = errors.New("sheet not found")
)
