package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/pedbp/internal/domain/reference"
)

// ReferenceDependencies defines the reference table dependencies.
type ReferenceDependencies interface {
	Lookup(ctx context.Context, sex, age, height string) (reference.Row, error)
	Coverage(ctx context.Context) []reference.Stratum
}

// ReferenceHandler serves reference table lookups.
type ReferenceHandler struct {
	deps ReferenceDependencies
}

// NewReferenceHandler creates a new reference handler.
func NewReferenceHandler(deps ReferenceDependencies) *ReferenceHandler {
	return &ReferenceHandler{deps: deps}
}

// HandleLookup handles GET /reference?sex=&age=&height= requests.
func (h *ReferenceHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	const op = "api.reference_lookup"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	sex, age, height := q.Get("sex"), q.Get("age"), q.Get("height")
	if sex == "" || age == "" || height == "" {
		writeError(w, r, WrapKind(op, ErrBadRequest, errors.New("sex, age and height are required")))
		return
	}
	row, err := h.deps.Lookup(r.Context(), sex, age, height)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// HandleCoverage handles GET /reference/coverage requests.
func (h *ReferenceHandler) HandleCoverage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	strata := h.deps.Coverage(r.Context())
	rows := 0
	for _, s := range strata {
		rows += s.Intervals
	}
	writeJSON(w, http.StatusOK, coverageResponse{Rows: rows, Strata: strata})
}
