package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/UnknownOlympus/geobatch/internal/config"
	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/UnknownOlympus/geobatch/internal/logger"
	"github.com/UnknownOlympus/geobatch/internal/metrics"
	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/UnknownOlympus/geobatch/internal/repository"
	"github.com/UnknownOlympus/geobatch/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
)

// main is the entry point of the application.
func main() {
	// Interrupts cancel the run; the row in flight then aborts it with a checkpoint.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geobatch",
		Short: "Batch-geocode the addresses of a spreadsheet",
		Long: "Reads a .csv or .xlsx spreadsheet, geocodes the address column with a remote API " +
			"and writes latitude/longitude columns to an output spreadsheet. A failing run keeps " +
			"the finished rows in the output file and writes the rest back over the input file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringP("key", "k", "", "geocoding provider API key")
	flags.StringP("input", "i", "", "input spreadsheet (.csv or .xlsx)")
	flags.StringP("output", "o", "", "output spreadsheet (default: <input>_geocoded.<ext>)")
	flags.StringP("addr", "a", "ADDR", "name of the address column")
	flags.StringP("provider", "p", string(geocoding.ProviderTypeVWorld), "geocoding provider: vworld, google, nominatim")
	flags.IntP("workers", "w", 10, fmt.Sprintf("number of concurrent lookups (1-%d)", config.MaxWorkers))
	flags.Duration("delay", 100*time.Millisecond, "minimum delay between two requests")
	flags.String("prefix", "", "prefix added to every address, e.g. a city name")
	flags.Bool("fallback", false, "nominatim only: retry not-found addresses with trailing components removed")
	flags.String("log-dir", "logs", "directory of the run log files")
	flags.Int("metrics-port", 0, "port of the /healthz and /metrics server, 0 disables it")
	flags.String("env", logger.EnvProd, "log format: local, development, production")
	flags.BoolP("verbose", "v", false, "also write the log to stderr")

	return cmd
}

// run performs one geocoding run described by cfg.
func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	start := time.Now()

	runLog, err := logger.OpenRunLog(cfg.LogDir, start)
	if err != nil {
		return err
	}
	defer runLog.Close()

	var logOut io.Writer = runLog
	if cfg.Verbose {
		logOut = io.MultiWriter(runLog, stderr)
	}
	log := logger.New(cfg.Env, logOut)

	fmt.Fprintf(stdout, "input:         %s\n", absPath(cfg.Input))
	fmt.Fprintf(stdout, "output:        %s\n", absPath(cfg.Output))
	fmt.Fprintf(stdout, "address field: %s\n", cfg.AddressField)

	repo := repository.NewRepository(log)
	table, err := repo.Load(cfg.Input, cfg.AddressField)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load input", "path", cfg.Input, "error", err)
		return fmt.Errorf("load input: %w", err)
	}

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:       geocoding.ProviderType(cfg.Provider),
		APIKey:     cfg.APIKey,
		RateLimit:  requestsPerSecond(cfg.Delay),
		HTTPClient: geocoding.NewHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout, cfg.Workers),
		Logger:     log,

		AddressFallback: cfg.AddressFallback,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to create geocoding provider", "error", err)
		return fmt.Errorf("create provider: %w", err)
	}
	log.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Provider)

	client := geocoding.NewClient(provider, log,
		geocoding.WithAddressPrefix(cfg.AddressPrefix),
		geocoding.WithMissingMarker(cfg.MissingMarker),
	)

	// Create a separate registry for metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	bar := progressbar.NewOptions(table.Len(),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetDescription("geocoding"),
	)

	dispatcher := service.NewDispatcher(
		log,
		repo,
		client,
		cfg.Provider,
		appMetrics,
		cfg.Workers,
		cfg.Delay,
		service.WithProgress(func(models.Summary) {
			_ = bar.Add(1)
		}),
	)

	if cfg.MetricsPort > 0 {
		go startMonitoringServer(ctx, log, newMonitoringMux(log, reg, dispatcher.State), cfg.MetricsPort)
	}

	summary, runErr := dispatcher.Run(ctx, table, service.Paths{Input: cfg.Input, Output: cfg.Output})
	_ = bar.Finish()
	fmt.Fprintln(stderr)

	if summary != nil {
		fmt.Fprintln(stdout, summaryLine(summary))
	}
	log.InfoContext(ctx, "Run finished", "duration", time.Since(start).String(), "state", dispatcher.State().String())

	return runErr
}

// summaryLine renders the final line printed after a run.
func summaryLine(summary *models.Summary) string {
	return fmt.Sprintf("processed %d rows, %d succeeded (%d skipped, %d not found, %d api errors)",
		summary.Processed, summary.Succeeded, summary.Skipped, summary.NotFound, summary.APIErrors)
}

// requestsPerSecond converts the submission delay into a client side rate limit.
func requestsPerSecond(delay time.Duration) int {
	if delay <= 0 {
		return 0
	}
	return max(1, int(time.Second/delay))
}

// absPath returns path made absolute, or path itself when the working directory is unknown.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
