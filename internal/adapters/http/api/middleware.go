package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/pedbp/pkg/metrics"
)

// exchange collects what handlers learn about a request so the
// instrumentation can label it after the handler returns.
type exchange struct {
	status int
	rows   int
	code   string
}

type exchangeKey struct{}

func exchangeOf(ctx context.Context) *exchange {
	if x, ok := ctx.Value(exchangeKey{}).(*exchange); ok {
		return x
	}
	return &exchange{}
}

// noteRows records the dataset size of a decoded request.
func noteRows(r *http.Request, rows int) { exchangeOf(r.Context()).rows = rows }

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	x *exchange
}

func (w *statusWriter) WriteHeader(code int) {
	w.x.status = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument records request count, latency, dataset size and error kind
// for endpoint. Errors are labeled by the API error code written by
// writeError, falling back to the status class.
func instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		x := &exchange{status: http.StatusOK}
		next(&statusWriter{ResponseWriter: w, x: x}, r.WithContext(context.WithValue(r.Context(), exchangeKey{}, x)))

		elapsed := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(x.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, elapsed)

		failed := x.status >= http.StatusBadRequest
		if x.rows > 0 {
			outcome := "ok"
			if failed {
				outcome = "rejected"
			}
			metrics.RecordHTTPRequestRows(endpoint, outcome, x.rows)
		}
		if !failed {
			return
		}

		kind := x.code
		if kind == "" {
			kind = "client_error"
			if x.status >= http.StatusInternalServerError {
				kind = "server_error"
			}
		}
		severity := "medium"
		if x.status >= http.StatusInternalServerError {
			severity = "high"
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
		metrics.RecordErrorByType(kind, severity)
		metrics.RecordErrorLatency("http", kind, elapsed)
	}
}
