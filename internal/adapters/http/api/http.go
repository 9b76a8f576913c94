// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/mockmetrics/internal/app"
	"github.com/okian/mockmetrics/internal/domain/mockdata"
	"github.com/okian/mockmetrics/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RootGreeting() Greeting
	HelloGreeting() Greeting

	// Metrics and Trials synthesize a fresh payload on every call.
	Metrics(ctx context.Context) mockdata.MetricsResponse
	Trials(ctx context.Context) []mockdata.TrialSignup

	// DatabaseStatus never fails; degraded states are reported as data.
	DatabaseStatus(ctx context.Context) DatabaseStatus
}

// Greeting mirrors the {message} payload.
type Greeting = service.Greeting

// DatabaseStatus mirrors the /test payload.
type DatabaseStatus = service.DatabaseStatus

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	mockHandler   *MockHandler

	corsOrigins []string
	logger      logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins restricts allowed origins. "*" allows every origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		mockHandler:   NewMockHandler(deps),
		corsOrigins:   []string{"*"},
		logger:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.mockHandler.HandleRoot, "root"))
	mux.HandleFunc("GET /api/hello", MetricsMiddleware(s.mockHandler.HandleHello, "hello"))
	mux.HandleFunc("GET /api/metrics", MetricsMiddleware(s.mockHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /api/trials", MetricsMiddleware(s.mockHandler.HandleTrials, "trials"))
	mux.HandleFunc("GET /test", MetricsMiddleware(s.mockHandler.HandleDatabaseStatus, "test"))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	// Everything else answers with a JSON 404.
	mux.HandleFunc("/", MetricsMiddleware(handleNotFound, "not_found"))
}

// Handler wraps next with CORS, request ids and request logging.
func (s *Server) Handler(next http.Handler) http.Handler {
	return newCORS(s.corsOrigins).Handler(RequestID(LoggingMiddleware(s.logger, next)))
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

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
}
