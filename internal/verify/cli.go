package verify

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/mockmetrics/internal/config"
	"github.com/okian/mockmetrics/internal/domain/mockdata"
	"github.com/okian/mockmetrics/pkg/logger"
	"github.com/spf13/cobra"
)

// Default flag values.
const (
	defaultURL     = "http://localhost:8000"
	defaultRounds  = 200
	defaultTimeout = 10 * time.Second
	defaultRunTime = 5 * time.Minute
)

// NewCommand builds the verify-mocks root command.
func NewCommand() *cobra.Command {
	var (
		cfg       Config
		variant   string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:   "verify-mocks",
		Short: "Check a running mock metrics server against its catalog",
		Long: "verify-mocks calls /, /api/hello, /test, /api/metrics and /api/trials on a\n" +
			"running server and checks every payload against the catalog invariants.\n" +
			"Without --variant the catalog is resolved from the same MOCKMETRICS_* env\n" +
			"and config file the server reads.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultRunTime)
			defer cancel()

			catalog, err := resolveCatalog(ctx, variant)
			if err != nil {
				return err
			}
			cfg.Catalog = catalog

			rep, err := Run(ctx, &cfg, logger.Named("verify"))
			if rep != nil {
				printReport(cmd, rep)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", defaultURL, "base URL of the service")
	f.IntVar(&cfg.Rounds, "rounds", defaultRounds, "number of metrics and trials calls each")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.ClockSkew, "clock-skew", defaultClockSkew, "tolerated clock difference when checking win timestamps")
	f.StringVar(&variant, "variant", "", "preset to check against: live or catalog (default: from config)")
	f.StringVar(&logFormat, "log-format", logger.FormatText, "log format: text or json")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable verbose logging")
	return cmd
}

func resolveCatalog(ctx context.Context, variant string) (mockdata.Catalog, error) {
	if variant != "" {
		return mockdata.Preset(variant)
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return mockdata.Catalog{}, fmt.Errorf("load config: %w", err)
	}
	return cfg.Mock.Catalog()
}

func printReport(cmd *cobra.Command, rep *Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Metrics checked: %d\n", rep.MetricsChecked)
	fmt.Fprintf(w, "Trials checked:  %d\n", rep.TrialsChecked)
	fmt.Fprintf(w, "Database state:  %s\n", rep.DatabaseState)
	fmt.Fprintf(w, "Failures:        %d\n", rep.Failures)
	fmt.Fprintf(w, "Duration:        %s\n", rep.Duration.Round(time.Millisecond))
	if len(rep.Problems) > 0 {
		fmt.Fprintln(w, "\nProblems:")
		for _, p := range rep.Problems {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
}
