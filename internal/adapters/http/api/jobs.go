package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/pedbp/internal/domain/model"
)

// JobDependencies defines the asynchronous job dependencies.
type JobDependencies interface {
	SubmitJob(ctx context.Context, id string, req model.JobRequest) (model.Job, bool, error)
	GetJob(ctx context.Context, id string) (model.Job, error)
}

// JobsHandler handles batch job requests.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

type submitResponse struct {
	JobID     string          `json:"job_id"`
	Status    model.JobStatus `json:"status"`
	Rows      int             `json:"rows"`
	Duplicate bool            `json:"duplicate"`
}

// HandleSubmitJob handles POST /jobs requests. A known job_id returns the
// existing job with 200 instead of queueing it again.
func (h *JobsHandler) HandleSubmitJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_job"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeEvaluateRequest(w, r)
	if err != nil {
		writeError(w, r, decodeError(op, err))
		return
	}
	job, created, err := h.deps.SubmitJob(r.Context(), strings.TrimSpace(req.JobID), req.jobRequest())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, submitResponse{JobID: job.ID, Status: job.Status, Rows: job.Rows, Duplicate: !created})
}

// HandleGetJob handles GET /jobs/{job_id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, NewKind(op, ErrBadRequest))
		return
	}
	job, err := h.deps.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, job)
}
