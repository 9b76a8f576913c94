package verify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/mockmetrics/internal/domain/mockdata"
	"github.com/okian/mockmetrics/pkg/logger"
)

const (
	maxReportedProblems = 20
	defaultClockSkew    = 5 * time.Second
)

// Run executes a verification pass against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Report, error) {
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	workers := max(cfg.Workers, 1)
	base := strings.TrimRight(cfg.BaseURL, "/")
	client := newHTTPClient(cfg.Timeout)
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = defaultClockSkew
	}

	start := time.Now()
	rep := &Report{}
	var mu sync.Mutex
	fail := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		rep.Failures++
		if len(rep.Problems) < maxReportedProblems {
			rep.Problems = append(rep.Problems, fmt.Sprintf(format, args...))
		}
	}

	log.Info(ctx, "starting verification",
		logger.String("baseURL", base),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", workers),
	)

	checkGreetings(ctx, client, base, fail)
	rep.DatabaseState = checkDatabaseStatus(ctx, client, base, fail)

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := range jobs {
				if ctx.Err() != nil {
					return
				}
				var m mockdata.MetricsResponse
				sent := time.Now()
				if err := client.getJSON(ctx, base+"/api/metrics", &m); err != nil {
					fail("round %d metrics: %v", round, err)
				} else if err := mockdata.ValidateMetrics(cfg.Catalog, m); err != nil {
					fail("round %d metrics: %v", round, err)
				} else if err := mockdata.ValidateWinAges(cfg.Catalog, m, time.Now(), skew+time.Since(sent)); err != nil {
					fail("round %d metrics: %v", round, err)
				}

				var trials []mockdata.TrialSignup
				if err := client.getJSON(ctx, base+"/api/trials", &trials); err != nil {
					fail("round %d trials: %v", round, err)
				} else if err := mockdata.ValidateTrials(cfg.Catalog, trials); err != nil {
					fail("round %d trials: %v", round, err)
				}

				mu.Lock()
				rep.MetricsChecked++
				rep.TrialsChecked++
				mu.Unlock()
				if cfg.Verbose {
					log.Debug(ctx, "round checked", logger.Int("round", round))
				}
			}
		}()
	}

feed:
	for i := 0; i < cfg.Rounds; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	rep.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("verification interrupted: %w", err)
	}

	log.Info(ctx, "verification finished",
		logger.Int("metrics", rep.MetricsChecked),
		logger.Int("trials", rep.TrialsChecked),
		logger.Int("failures", rep.Failures),
		logger.Duration("duration", rep.Duration),
	)
	if !rep.OK() {
		return rep, fmt.Errorf("%w: %d failing checks", ErrVerificationFailed, rep.Failures)
	}
	return rep, nil
}

func checkGreetings(ctx context.Context, c *httpClient, base string, fail func(string, ...any)) {
	for _, path := range []string{"/", "/api/hello"} {
		var g struct {
			Message string `json:"message"`
		}
		if err := c.getJSON(ctx, base+path, &g); err != nil {
			fail("%s: %v", path, err)
			continue
		}
		if g.Message == "" {
			fail("%s: empty message", path)
		}
	}
}

// checkDatabaseStatus requires /test to answer 200 with every field and
// returns the reported state.
func checkDatabaseStatus(ctx context.Context, c *httpClient, base string, fail func(string, ...any)) string {
	var st map[string]any
	if err := c.getJSON(ctx, base+"/test", &st); err != nil {
		fail("/test: %v", err)
		return ""
	}
	for _, f := range statusFields {
		if _, ok := st[f]; !ok {
			fail("/test: missing field %q", f)
		}
	}
	state, _ := st["database_state"].(string)
	if !knownStates[state] {
		fail("/test: unknown database_state %q", state)
	}
	if cols, ok := st["collections"].([]any); !ok {
		fail("/test: collections is not a list")
	} else if len(cols) > 10 {
		fail("/test: %d collections reported, want at most 10", len(cols))
	}
	return state
}
