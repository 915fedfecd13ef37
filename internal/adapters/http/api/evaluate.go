package api

import (
	"context"
	"net/http"

	"github.com/okian/pedbp/internal/domain/evaluate"
	"github.com/okian/pedbp/internal/domain/model"
)

// EvaluateDependencies defines the synchronous evaluation dependency.
type EvaluateDependencies interface {
	Evaluate(ctx context.Context, req model.JobRequest) (*evaluate.Outcome, error)
}

// EvaluateHandler handles synchronous evaluation requests.
type EvaluateHandler struct {
	deps EvaluateDependencies
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(deps EvaluateDependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps}
}

type evaluateResponse struct {
	Columns []string          `json:"columns"`
	Rows    []evaluate.Row    `json:"rows"`
	Notices []evaluate.Notice `json:"notices"`
	Summary evaluate.Summary  `json:"summary"`
}

func newEvaluateResponse(out *evaluate.Outcome) evaluateResponse {
	resp := evaluateResponse{
		Columns: out.Dataset.Columns,
		Rows:    out.Dataset.Rows,
		Notices: out.Notices,
		Summary: out.Summary,
	}
	if resp.Notices == nil {
		resp.Notices = []evaluate.Notice{}
	}
	if resp.Rows == nil {
		resp.Rows = []evaluate.Row{}
	}
	return resp
}

// HandleEvaluate handles POST /evaluate requests.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeEvaluateRequest(w, r)
	if err != nil {
		writeError(w, r, decodeError(op, err))
		return
	}
	out, err := h.deps.Evaluate(r.Context(), req.jobRequest())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newEvaluateResponse(out))
}
