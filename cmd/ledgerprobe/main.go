// Command ledgerprobe smoke tests and benchmarks a ledger HTTP service: it
// probes /health, provisions a test account and times a batch of requests
// against one endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/torosent/ledgerprobe/internal/config"
	"github.com/torosent/ledgerprobe/internal/harness"
	"github.com/torosent/ledgerprobe/internal/history"
	"github.com/torosent/ledgerprobe/internal/output"
	"github.com/torosent/ledgerprobe/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

// Set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

// exitError carries a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

var errThresholdsFailed = errors.New("one or more thresholds failed")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrHelpRequested):
			return nil
		case errors.Is(err, config.ErrVersionRequested):
			fmt.Fprintf(stdout, "ledgerprobe %s (%s)\n", version, commit)
			return nil
		}
		return &exitError{code: 2, err: err}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: err}
	}

	logger := newLogger(stderr, cfg.LogLevel)

	tp, err := tracing.Init(ctx, cfg.Tracing, tracing.RunAttributes(*cfg)...)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	opts := harness.Options{
		Config:    *cfg,
		Logger:    logger,
		Tracer:    tp.Tracer(),
		Propagate: tp.ShouldPropagate(),
	}
	if !cfg.JSONOutput && !cfg.YAMLOutput {
		opts.Progress = stdout
		opts.ProgressInterval = progressInterval
	}
	h, err := harness.New(opts)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	report, runErr := h.Run(ctx)

	if cfg.HistoryFile != "" {
		recordHistory(ctx, logger, cfg.HistoryFile, report)
	}

	switch {
	case cfg.JSONOutput:
		if err := output.PrintJSONReport(stdout, report); err != nil {
			return err
		}
	case cfg.YAMLOutput:
		if err := output.PrintYAMLReport(stdout, report); err != nil {
			return err
		}
	default:
		output.PrintReport(stdout, report)
	}

	if runErr != nil {
		return runErr
	}
	if !report.Passed() {
		return errThresholdsFailed
	}
	return nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func recordHistory(ctx context.Context, logger zerolog.Logger, path string, report output.Report) {
	store, err := history.Open(path)
	if err == nil {
		err = store.Append(context.WithoutCancel(ctx), history.FromReport(report))
	}
	if err != nil {
		logger.Warn().Err(err).Str("file", path).Msg("history not recorded")
		return
	}
	logger.Debug().Str("file", path).Str("run_id", report.RunID).Msg("history recorded")
}
