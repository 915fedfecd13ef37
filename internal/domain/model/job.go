// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/pedbp/internal/domain/evaluate"
	"github.com/okian/pedbp/internal/domain/i18n"
)

// JobStatus is the lifecycle state of a batch evaluation job.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Terminal reports whether no further transitions happen.
func (s JobStatus) Terminal() bool { return s == JobDone || s == JobFailed }

// JobRequest is a dataset submitted for asynchronous evaluation together with
// its per-request settings.
type JobRequest struct {
	Dataset  evaluate.Dataset
	Mapping  evaluate.Mapping
	Language i18n.Language
	Quiet    bool
	Detail   bool
}

// Job is a snapshot of a batch evaluation job.
type Job struct {
	ID         string            `json:"job_id"`
	Status     JobStatus         `json:"status"`
	Rows       int               `json:"rows"`
	Outcome    *evaluate.Outcome `json:"outcome,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`

	Request JobRequest `json:"-"`
}

// NewJob creates a queued job for req.
func NewJob(id string, req JobRequest, now time.Time) Job {
	return Job{
		ID:        id,
		Status:    JobQueued,
		Rows:      req.Dataset.Len(),
		CreatedAt: now,
		Request:   req,
	}
}

// Start marks the job running.
func (j *Job) Start(now time.Time) {
	j.Status = JobRunning
	j.StartedAt = &now
}

// Finish records the outcome or failure. The request payload is released
// once the job is terminal.
func (j *Job) Finish(out *evaluate.Outcome, err error, now time.Time) {
	j.FinishedAt = &now
	j.Request = JobRequest{}
	if err != nil {
		j.Status = JobFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobDone
	j.Outcome = out
}
