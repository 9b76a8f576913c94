// Package service composes the mock data generator and the database probe
// into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/mockmetrics/internal/adapters/dbprobe"
	"github.com/okian/mockmetrics/internal/domain/mockdata"
	"github.com/okian/mockmetrics/pkg/logger"
	"github.com/okian/mockmetrics/pkg/metrics"
)

const (
	defaultProbeTimeout = 2 * time.Second
	defaultRootGreeting = "Hello from the metrics backend!"
	defaultHelloMessage = "Hello from the backend API!"
)

// ErrProbeTimeout is reported when the database probe exceeds its deadline.
var ErrProbeTimeout = errors.New("database probe timed out")

// Greeting is the static message payload.
type Greeting struct {
	Message string `json:"message"`
}

// Service implements the API dependencies for the mock metrics backend.
type Service struct {
	mu sync.RWMutex

	generator *mockdata.Generator
	probe     dbprobe.Provider

	probeTimeout time.Duration
	dbURLSet     bool
	dbNameSet    bool
	rootGreeting string
	helloGreet   string

	started   bool
	startedAt time.Time

	metricsServed atomic.Int64
	trialsServed  atomic.Int64
	statusChecks  atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGenerator sets the mock data generator.
func WithGenerator(g *mockdata.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithProbe sets the database provider. A nil provider means the database
// module is not installed.
func WithProbe(p dbprobe.Provider) Option {
	return func(s *Service) {
		s.probe = p
	}
}

// WithProbeTimeout bounds each database probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// WithDatabaseEnv records whether DATABASE_URL and DATABASE_NAME are set.
func WithDatabaseEnv(urlSet, nameSet bool) Option {
	return func(s *Service) {
		s.dbURLSet = urlSet
		s.dbNameSet = nameSet
	}
}

// WithGreetings overrides the messages served on / and /api/hello.
func WithGreetings(root, hello string) Option {
	return func(s *Service) {
		if root != "" {
			s.rootGreeting = root
		}
		if hello != "" {
			s.helloGreet = hello
		}
	}
}

// New constructs a new Service. Without WithGenerator it uses the live preset;
// without WithLogger it uses the process logger.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		probeTimeout: defaultProbeTimeout,
		rootGreeting: defaultRootGreeting,
		helloGreet:   defaultHelloMessage,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.generator == nil {
		g, err := mockdata.New()
		if err != nil {
			return nil, fmt.Errorf("build generator: %w", err)
		}
		s.generator = g
	}
	return s, nil
}

// Start marks the service as running.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "mock metrics service started",
		logger.Bool("database_module", s.probe != nil),
		logger.Duration("probe_timeout", s.probeTimeout),
		logger.Int("brands", len(s.generator.Catalog().Brands)),
	)
	return nil
}

// Stop releases the database provider.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.probe != nil {
		if err := s.probe.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing database provider", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "mock metrics service stopped")
}

// RootGreeting returns the message served on /.
func (s *Service) RootGreeting() Greeting { return Greeting{Message: s.rootGreeting} }

// HelloGreeting returns the message served on /api/hello.
func (s *Service) HelloGreeting() Greeting { return Greeting{Message: s.helloGreet} }

// Metrics synthesizes a fresh dashboard payload.
func (s *Service) Metrics(ctx context.Context) mockdata.MetricsResponse {
	resp := s.generator.Metrics(ctx)
	s.metricsServed.Add(1)
	metrics.RecordPayloadGenerated(metrics.PayloadMetrics)
	return resp
}

// Trials synthesizes a fresh list of recent trial signups.
func (s *Service) Trials(ctx context.Context) []mockdata.TrialSignup {
	trials := s.generator.Trials(ctx)
	s.trialsServed.Add(1)
	metrics.RecordPayloadGenerated(metrics.PayloadTrials)
	return trials
}

// DatabaseStatus probes the optional database and reports every failure as
// status text. It never returns an error.
func (s *Service) DatabaseStatus(ctx context.Context) DatabaseStatus {
	s.statusChecks.Add(1)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	done := make(chan DatabaseStatus, 1)
	go func() { done <- s.probeDatabase(ctx) }()

	var st DatabaseStatus
	select {
	case st = <-done:
	case <-ctx.Done():
		st = newDatabaseStatus()
		st.setError(fmt.Errorf("%w after %s", ErrProbeTimeout, s.probeTimeout))
	}

	st.DatabaseURL = presence(s.dbURLSet)
	st.DatabaseName = presence(s.dbNameSet)

	metrics.RecordDBProbe(string(st.DatabaseState), float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "database probe",
		logger.String("state", string(st.DatabaseState)),
		logger.Int("collections", len(st.Collections)),
	)
	return st
}

func (s *Service) probeDatabase(ctx context.Context) (st DatabaseStatus) {
	st = newDatabaseStatus()
	defer func() {
		if r := recover(); r != nil {
			st.setError(fmt.Errorf("%v", r))
		}
	}()

	if s.probe == nil {
		st.set(StateModuleMissing, textModuleMissing)
		return st
	}

	h, err := s.probe.Acquire(ctx)
	switch {
	case errors.Is(err, dbprobe.ErrModuleMissing):
		st.set(StateModuleMissing, textModuleMissing)
		return st
	case errors.Is(err, dbprobe.ErrNotInitialized):
		st.set(StateAvailableUninitialized, textUninitialized)
		return st
	case err != nil:
		st.setError(err)
		return st
	case h == nil:
		st.set(StateAvailableUninitialized, textUninitialized)
		return st
	case !h.Available():
		return st
	}

	st.ConnectionStatus = connConnected
	names, err := h.ListCollectionNames(ctx)
	if err != nil {
		st.setConnectedError(err)
		return st
	}
	if len(names) > maxCollections {
		names = names[:maxCollections]
	}
	st.Collections = append(st.Collections, names...)
	st.set(StateConnected, textConnected)
	return st
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.generator.Catalog()
	stats := map[string]interface{}{
		"started":         s.started,
		"metrics_served":  s.metricsServed.Load(),
		"trials_served":   s.trialsServed.Load(),
		"status_checks":   s.statusChecks.Load(),
		"database_module": s.probe != nil,
		"win_count":       c.WinCount,
		"trial_count":     c.TrialCount,
		"anon_id_format":  string(c.AnonIDFormat),
	}
	if s.started {
		stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}
