package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/pedbp/internal/app"
	"github.com/okian/pedbp/internal/domain/evaluate"
	"github.com/okian/pedbp/internal/domain/i18n"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrMissingColumns = errors.New("missing columns")
	ErrNotFound       = errors.New("not found")
	ErrTooLarge       = errors.New("request too large")
	ErrBackpressure   = errors.New("backpressure")
	ErrUnavailable    = errors.New("service unavailable")
	ErrInternal       = errors.New("internal error")
)

var kinds = []struct {
	kind   error
	status int
	code   string
}{
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrMissingColumns, http.StatusBadRequest, "missing_columns"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrTooLarge, http.StatusRequestEntityTooLarge, "too_large"},
	{ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
	{ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
	{ErrInternal, http.StatusInternalServerError, "internal_error"},
}

// Error is an API failure carrying the operation and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	return e.Op + ": " + e.Message()
}

// Message is the client-facing text.
func (e *Error) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	for _, k := range kinds {
		if errors.Is(e.Kind, k.kind) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable error code for the kind.
func (e *Error) Code() string {
	for _, k := range kinds {
		if errors.Is(e.Kind, k.kind) {
			return k.code
		}
	}
	return "internal_error"
}

// NewKind creates an error of kind without a cause.
func NewKind(op string, kind error) *Error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind wraps err with an explicit kind.
func WrapKind(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap wraps err, deriving the kind from the errors it matches.
func Wrap(op string, err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return WrapKind(op, kindOf(err), err)
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, evaluate.ErrMissingColumns):
		return ErrMissingColumns
	case errors.Is(err, evaluate.ErrInvalidMapping),
		errors.Is(err, i18n.ErrUnknownLanguage),
		errors.Is(err, service.ErrInvalidQuery):
		return ErrBadRequest
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrNoStratum):
		return ErrNotFound
	case errors.Is(err, service.ErrTooManyRows):
		return ErrTooLarge
	case errors.Is(err, service.ErrBusy):
		return ErrBackpressure
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ErrUnavailable
	default:
		return ErrInternal
	}
}
