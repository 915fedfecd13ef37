package queue

import "errors"

// Sentinel errors for enqueue failures.
var (
	ErrFull   = errors.New("job queue is full")
	ErrClosed = errors.New("job queue is closed")
)
