// Package verify calls a running mock metrics server and checks every
// payload against the catalog invariants.
package verify

import (
	"errors"
	"time"

	"github.com/okian/mockmetrics/internal/domain/mockdata"
)

// ErrVerificationFailed is returned when at least one check failed.
var ErrVerificationFailed = errors.New("verification failed")

// Config holds configuration for a verification run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Rounds    int           // Number of /api/metrics and /api/trials calls each
	Workers   int           // Number of concurrent workers
	Timeout   time.Duration // HTTP request timeout
	ClockSkew time.Duration // Tolerance for win timestamps; zero means 5s
	Catalog   mockdata.Catalog
	Verbose   bool
}

// Report summarizes a run.
type Report struct {
	MetricsChecked int
	TrialsChecked  int
	Failures       int
	DatabaseState  string
	Problems       []string
	Duration       time.Duration
}

// OK reports whether every check passed.
func (r *Report) OK() bool { return r.Failures == 0 }

// knownStates are the database_state values the server may report.
var knownStates = map[string]bool{
	"not_available":           true,
	"available_uninitialized": true,
	"connected":               true,
	"connected_with_error":    true,
	"module_missing":          true,
	"error":                   true,
}

// statusFields must all be present in the /test payload.
var statusFields = []string{
	"backend", "database", "database_state", "database_url",
	"database_name", "connection_status", "collections",
}
