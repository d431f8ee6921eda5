package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/paddock/pkg/metrics"
)

// Endpoint labels of the HTTP request series.
const (
	endpointHealth         = "healthz"
	endpointMetrics        = "metrics"
	endpointStats          = "stats"
	endpointEventSets      = "eventsets"
	endpointSession        = "session"
	endpointSessionSelect  = "session_select"
	endpointSessionBias    = "session_bias"
	endpointSessionAnalyze = "session_analyze"
	endpointSessionResult  = "session_result"
)

// MetricsMiddleware records the request count and duration of next under
// the endpoint label. A panicking handler is answered with 500.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				if !wrapped.wroteHeader {
					writeError(wrapped, http.StatusInternalServerError, "internal_error", fmt.Errorf("handler panic: %v", p))
				} else {
					wrapped.statusCode = http.StatusInternalServerError
				}
			}
			code := strconv.Itoa(wrapped.statusCode)
			metrics.RecordHTTPRequest(endpoint, r.Method, code)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Milliseconds()))
		}()

		next.ServeHTTP(wrapped, r)
	}
}

// responseWriter captures the status code written through it.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
