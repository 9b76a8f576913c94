package api

import (
	"net/http"
)

// MockHandler serves the greeting, mock data and diagnostic endpoints.
type MockHandler struct {
	deps Dependencies
}

// NewMockHandler creates a handler backed by deps.
func NewMockHandler(deps Dependencies) *MockHandler {
	return &MockHandler{deps: deps}
}

// HandleRoot handles GET /.
func (h *MockHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.RootGreeting())
}

// HandleHello handles GET /api/hello.
func (h *MockHandler) HandleHello(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.HelloGreeting())
}

// HandleMetrics handles GET /api/metrics.
func (h *MockHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Metrics(r.Context()))
}

// HandleTrials handles GET /api/trials.
func (h *MockHandler) HandleTrials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Trials(r.Context()))
}

// HandleDatabaseStatus handles GET /test. It always answers 200.
func (h *MockHandler) HandleDatabaseStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.DatabaseStatus(r.Context()))
}
