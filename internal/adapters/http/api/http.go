// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/pedbp/internal/domain/evaluate"
	"github.com/okian/pedbp/internal/domain/i18n"
	"github.com/okian/pedbp/internal/domain/model"
	"github.com/okian/pedbp/internal/domain/reference"
)

// maxBodyBytes bounds request bodies carrying datasets.
const maxBodyBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EvaluateDependencies
	JobDependencies
	ReferenceDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	opsHandler       *OpsHandler
	evaluateHandler  *EvaluateHandler
	jobsHandler      *JobsHandler
	referenceHandler *ReferenceHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		opsHandler:       NewOpsHandler(statsProvider),
		evaluateHandler:  NewEvaluateHandler(deps),
		jobsHandler:      NewJobsHandler(deps),
		referenceHandler: NewReferenceHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", instrument("healthz", s.opsHandler.HandleMetrics))
	mux.HandleFunc("/stats", instrument("stats", s.opsHandler.HandleStats))
	mux.HandleFunc("/evaluate", instrument("evaluate", s.evaluateHandler.HandleEvaluate))
	mux.HandleFunc("/jobs", instrument("jobs", s.jobsHandler.HandleSubmitJob))
	mux.HandleFunc("/jobs/", instrument("job", s.jobsHandler.HandleGetJob))
	mux.HandleFunc("/reference", instrument("reference", s.referenceHandler.HandleLookup))
	mux.HandleFunc("/reference/coverage", instrument("coverage", s.referenceHandler.HandleCoverage))
}

// evaluateRequest mirrors the OpenAPI schema for POST /evaluate and POST /jobs.
type evaluateRequest struct {
	JobID    string           `json:"job_id,omitempty"`
	Columns  []string         `json:"columns"`
	Rows     []evaluate.Row   `json:"rows"`
	Mapping  evaluate.Mapping `json:"mapping,omitempty"`
	Language string           `json:"language,omitempty"`
	Quiet    bool             `json:"quiet,omitempty"`
	Detail   bool             `json:"detail,omitempty"`
}

func (e *evaluateRequest) jobRequest() model.JobRequest {
	return model.JobRequest{
		Dataset:  evaluate.Dataset{Columns: e.Columns, Rows: e.Rows},
		Mapping:  e.Mapping,
		Language: i18n.Language(e.Language),
		Quiet:    e.Quiet,
		Detail:   e.Detail,
	}
}

func (e *evaluateRequest) validate() error {
	if e.Rows == nil {
		return errors.New("missing rows")
	}
	for i, r := range e.Rows {
		if r == nil {
			return fmt.Errorf("row %d must be an object", i)
		}
	}
	return nil
}

// decodeEvaluateRequest reads a dataset body. Numbers stay json.Number so
// large or precise values survive the round trip unchanged.
func decodeEvaluateRequest(w http.ResponseWriter, r *http.Request) (*evaluateRequest, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var req evaluateRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrTooLarge
		}
		return nil, err
	}
	noteRows(r, len(req.Rows))
	if err := req.validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err *Error) {
	exchangeOf(r.Context()).code = err.Code()
	writeJSON(w, err.Status(), errorResponse{Code: err.Code(), Message: err.Message()})
}

// coverageResponse summarizes the reference table.
type coverageResponse struct {
	Rows   int                 `json:"rows"`
	Strata []reference.Stratum `json:"strata"`
}

func decodeError(op string, err error) *Error {
	if errors.Is(err, ErrTooLarge) {
		return NewKind(op, ErrTooLarge)
	}
	return WrapKind(op, ErrBadRequest, err)
}
