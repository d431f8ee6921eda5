// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/internal/domain/analysis"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/normalize"
	"github.com/okian/paddock/internal/domain/recovery"
	"github.com/okian/paddock/internal/domain/resultcache"
	"github.com/okian/paddock/internal/domain/scheduler"
	"github.com/okian/paddock/pkg/logger"
)

const defaultMaxBodyBytes = 4 << 20

// Session is the session surface the handlers drive. Using an interface
// keeps the handler layer loosely coupled to the service implementation.
type Session interface {
	Load(ctx context.Context, raw, filename string) (service.Snapshot, error)
	Snapshot() service.Snapshot
	Select(ctx context.Context, i int) (service.Snapshot, error)
	SetBias(ctx context.Context, bias string) (service.Snapshot, error)
	Analyze(ctx context.Context, req service.AnalyzeRequest) (model.Result, error)
	Attach(ctx context.Context, text string) (model.Result, error)
}

// Server wires HTTP routes for the session API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sessionHandler *SessionHandler
}

// Option applies a configuration option to the Server.
type Option func(*SessionHandler)

// WithMaxBodyBytes caps uploaded payloads and attached analysis text.
func WithMaxBodyBytes(n int64) Option {
	return func(h *SessionHandler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(h *SessionHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(session Session, statsProvider StatsProvider, opts ...Option) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		sessionHandler: NewSessionHandler(session, opts...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, endpointHealth))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, endpointMetrics))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, endpointStats))
	mux.HandleFunc("/eventsets", MetricsMiddleware(s.sessionHandler.HandlePostEventSet, endpointEventSets))
	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleGetSession, endpointSession))
	mux.HandleFunc("/session/select", MetricsMiddleware(s.sessionHandler.HandleSelect, endpointSessionSelect))
	mux.HandleFunc("/session/bias", MetricsMiddleware(s.sessionHandler.HandleBias, endpointSessionBias))
	mux.HandleFunc("/session/analyze", MetricsMiddleware(s.sessionHandler.HandleAnalyze, endpointSessionAnalyze))
	mux.HandleFunc("/session/result", MetricsMiddleware(s.sessionHandler.HandleAttach, endpointSessionResult))
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

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps a failure to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	// Decode failures also wrap a recovery error, so match them first.
	case errors.Is(err, analysis.ErrDecode):
		return http.StatusUnprocessableEntity, "undecodable_analysis"
	case errors.Is(err, recovery.ErrNoStructure):
		return http.StatusUnprocessableEntity, "unrecoverable_payload"
	case errors.Is(err, normalize.ErrShape):
		return http.StatusUnprocessableEntity, "unsupported_shape"
	case errors.Is(err, service.ErrEmptyEventSet):
		return http.StatusUnprocessableEntity, "empty_event_set"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, scheduler.ErrIndexOutOfRange):
		return http.StatusBadRequest, "index_out_of_range"
	case errors.Is(err, service.ErrUnknownBias):
		return http.StatusBadRequest, "unknown_bias"
	case errors.Is(err, service.ErrNoEventSet), errors.Is(err, scheduler.ErrNotViewing):
		return http.StatusConflict, "no_event_set"
	case errors.Is(err, service.ErrStaleEventSet):
		return http.StatusConflict, "stale_event_set"
	// A timed-out compute is also a ComputeError.
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, resultcache.ErrCompute):
		return http.StatusBadGateway, "compute_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
