package evaluate

import (
	"github.com/okian/pedbp/internal/domain/age"
	"github.com/okian/pedbp/internal/domain/i18n"
	"github.com/okian/pedbp/internal/domain/reference"
	"github.com/okian/pedbp/pkg/logger"
)

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithMapping sets explicit field to column overrides.
func WithMapping(m Mapping) Option {
	return func(e *Evaluator) {
		e.mapping = m
	}
}

// WithLanguage selects labels, default columns and messages.
func WithLanguage(l i18n.Language) Option {
	return func(e *Evaluator) {
		if l != "" {
			e.language = l
		}
	}
}

// WithQuiet suppresses informational notices.
func WithQuiet(quiet bool) Option {
	return func(e *Evaluator) {
		e.quiet = quiet
	}
}

// WithAgePolicy sets how bare numbers above 18 are read.
func WithAgePolicy(p age.Policy) Option {
	return func(e *Evaluator) {
		if p != "" {
			e.policy = p
		}
	}
}

// WithTable replaces the bundled reference table.
func WithTable(t *reference.Table) Option {
	return func(e *Evaluator) {
		if t != nil {
			e.table = t
		}
	}
}

// WithParallelism bounds the number of goroutines classifying rows.
func WithParallelism(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithDetail appends per-measurement status columns.
func WithDetail(detail bool) Option {
	return func(e *Evaluator) {
		e.detail = detail
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}
