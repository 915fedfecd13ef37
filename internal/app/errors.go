package service

import "errors"

// Sentinel errors returned by Service. Callers match them with errors.Is.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBusy         = errors.New("job queue is full")
	ErrTooManyRows  = errors.New("too many rows")
	ErrJobNotFound  = errors.New("job not found")
	ErrInvalidQuery = errors.New("invalid lookup query")
	ErrNoStratum    = errors.New("no matching reference stratum")
)
