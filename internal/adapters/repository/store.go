// Package repository stores batch evaluation jobs and their results.
package repository

import (
	"context"

	"github.com/okian/pedbp/internal/domain/model"
)

// Store provides read/write access to job state.
type Store interface {
	// Create stores a new job. Returns ErrExists if the ID is taken.
	Create(ctx context.Context, job model.Job) error

	// Get returns a snapshot of the job. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (model.Job, error)

	// Update applies fn to the stored job under the store lock and returns
	// the updated snapshot.
	Update(ctx context.Context, id string, fn func(*model.Job)) (model.Job, error)

	// Delete removes a job. Returns ErrNotFound if unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored jobs.
	Count(ctx context.Context) int

	// CountByStatus returns the number of stored jobs per status.
	CountByStatus(ctx context.Context) map[model.JobStatus]int
}
