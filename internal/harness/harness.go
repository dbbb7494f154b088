package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/ledgerprobe/internal/config"
	"github.com/torosent/ledgerprobe/internal/endpoints"
	"github.com/torosent/ledgerprobe/internal/extractor"
	"github.com/torosent/ledgerprobe/internal/httpclient"
	"github.com/torosent/ledgerprobe/internal/ledger"
	"github.com/torosent/ledgerprobe/internal/metrics"
	"github.com/torosent/ledgerprobe/internal/output"
	"github.com/torosent/ledgerprobe/internal/probe"
	"github.com/torosent/ledgerprobe/internal/runner"
	"github.com/torosent/ledgerprobe/internal/threshold"
)

// ErrMissingAccountID is returned when lookup_from_created is set and the
// creation response carried no numeric id.
var ErrMissingAccountID = errors.New("account id missing from creation response")

var accountFields = []extractor.Extractor{
	{JSONPath: "$.id", Variable: "account_id"},
	{JSONPath: "$.username", Variable: "username"},
}

// Options configure a Harness. Config is required; the rest is optional.
type Options struct {
	Config     config.Config
	Logger     zerolog.Logger
	HTTPClient *http.Client
	Tracer     trace.Tracer
	// Propagate sends W3C trace headers to the ledger.
	Propagate bool
	// Progress receives a live progress line during the load phase.
	Progress         io.Writer
	ProgressInterval time.Duration
	// OnPhase is called on every phase transition.
	OnPhase func(Phase)
}

type Harness struct {
	cfg        config.Config
	base       zerolog.Logger
	log        zerolog.Logger
	client     *ledger.Client
	tracer     trace.Tracer
	target     endpoints.Target
	thresholds []threshold.Threshold
	progress   io.Writer
	interval   time.Duration
	onPhase    func(Phase)

	mu    sync.Mutex
	phase Phase
}

// New validates everything that does not need the network: API flavor,
// scenario and thresholds.
func New(opts Options) (*Harness, error) {
	cfg := opts.Config
	flavor, err := ledger.ParseFlavor(cfg.API)
	if err != nil {
		return nil, err
	}
	target, err := endpoints.Resolve(cfg.Scenario, flavor, cfg.LookupID)
	if err != nil {
		return nil, err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("ledgerprobe")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.NewClient(cfg.Timeout)
	}
	clientOpts := []ledger.ClientOption{ledger.WithTracer(tracer, opts.Propagate)}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, ledger.WithHeaders(cfg.Headers))
	}
	client, err := ledger.NewClient(cfg.TargetURL, httpClient, flavor, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &Harness{
		cfg:        cfg,
		base:       opts.Logger,
		log:        opts.Logger,
		client:     client,
		tracer:     tracer,
		target:     target,
		thresholds: thresholds,
		progress:   opts.Progress,
		interval:   opts.ProgressInterval,
		onPhase:    opts.OnPhase,
		phase:      PhaseIdle,
	}, nil
}

// Phase returns the current phase.
func (h *Harness) Phase() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// Target returns the resolved load request.
func (h *Harness) Target() endpoints.Target {
	return h.target
}

func (h *Harness) setPhase(p Phase) {
	h.mu.Lock()
	h.phase = p
	h.mu.Unlock()
	h.log.Info().Str("phase", string(p)).Msg("phase")
	if h.onPhase != nil {
		h.onPhase(p)
	}
}

// Run executes one full run. The returned report is always populated; the
// error is an *AbortError when the run stopped before reporting.
func (h *Harness) Run(ctx context.Context) (output.Report, error) {
	report := output.Report{
		RunID:     ulid.Make().String(),
		StartedAt: time.Now().UTC(),
		Target:    h.client.BaseURL(),
		API:       string(h.client.Flavor()),
		Scenario:  h.target.Name,
		Endpoint:  h.target.String(),
	}
	h.log = h.base.With().Str("run_id", report.RunID).Logger()

	if err := h.checkHealth(ctx, &report); err != nil {
		return report, h.abort(&report, PhaseHealthChecking, err)
	}
	if !h.cfg.SkipProvision {
		if err := h.provision(ctx, &report); err != nil {
			return report, h.abort(&report, PhaseProvisioning, err)
		}
	}

	stats, err := h.load(ctx)
	report.Stats = &stats
	if err != nil {
		return report, h.abort(&report, PhaseLoadTesting, err)
	}

	h.setPhase(PhaseReporting)
	report.Phase = string(PhaseReporting)
	results := threshold.NewEvaluator(h.thresholds).Evaluate(stats)
	report.Thresholds = output.NewThresholdOutcomes(results)
	for _, r := range results {
		h.log.Info().Bool("pass", r.Pass).Float64("actual", r.Actual).Msg(r.Threshold.Raw)
	}
	h.log.Info().
		Int64("total", stats.Total).
		Int64("failures", stats.Failures).
		Dur("elapsed", stats.Duration).
		Float64("rps", stats.RequestsPerSec).
		Msg("run complete")
	h.setPhase(PhaseIdle)
	return report, nil
}

func (h *Harness) abort(report *output.Report, phase Phase, err error) error {
	report.Phase = string(phase)
	report.AbortReason = err.Error()
	h.log.Error().Err(err).Str("phase", string(phase)).Msg("run aborted")
	h.setPhase(PhaseAborted)
	return &AbortError{Phase: phase, Err: err}
}

func (h *Harness) checkHealth(ctx context.Context, report *output.Report) (err error) {
	h.setPhase(PhaseHealthChecking)
	ctx, span := h.startPhase(ctx, PhaseHealthChecking)
	defer func() { endPhase(span, err) }()

	result, err := probe.NewHealthProber(h.client).Check(ctx)
	if err != nil {
		var hcErr *probe.HealthCheckFailedError
		if errors.As(err, &hcErr) {
			report.Health = &output.HealthSummary{StatusCode: hcErr.StatusCode, Failures: hcErr.Failures}
		}
		return err
	}
	report.Health = &output.HealthSummary{
		StatusCode: result.StatusCode,
		Service:    result.Health.Service,
		Version:    result.Health.Version,
		Failures:   result.Health.Failures,
	}
	h.log.Info().Str("service", result.Health.Service).Str("version", result.Health.Version).Msg("ledger healthy")
	return nil
}

func (h *Harness) provision(ctx context.Context, report *output.Report) (err error) {
	h.setPhase(PhaseProvisioning)
	ctx, span := h.startPhase(ctx, PhaseProvisioning)
	defer func() { endPhase(span, err) }()

	id := probe.NewIdentity(h.cfg.UsernamePrefix, h.cfg.EmailDomain)
	result, err := probe.NewProvisioner(h.client).CreateAccount(ctx, id.Username, id.Email)
	if err != nil {
		return err
	}

	summary := &output.AccountSummary{
		Username: result.Username,
		Email:    result.Email,
		Encoding: result.Encoding.String(),
		Attempts: result.Attempts,
	}
	if result.HasAccountID {
		accountID := result.AccountID
		summary.AccountID = &accountID
	}
	report.Account = summary

	fields := extractor.ExtractAll(result.Body, accountFields, extractLogger{h.log})
	h.log.Info().
		Str("username", result.Username).
		Str("encoding", result.Encoding.String()).
		Int("attempts", result.Attempts).
		Str("account_id", fields["account_id"]).
		Msg("account created")

	if h.cfg.LookupFromCreated && endpoints.NeedsLookupID(h.target.Name) {
		if !result.HasAccountID {
			return ErrMissingAccountID
		}
		target, err := endpoints.Resolve(h.target.Name, h.client.Flavor(), result.AccountID)
		if err != nil {
			return err
		}
		h.target = target
	}
	return nil
}

func (h *Harness) load(ctx context.Context) (stats metrics.Stats, err error) {
	h.setPhase(PhaseLoadTesting)
	ctx, span := h.startPhase(ctx, PhaseLoadTesting)
	defer func() { endPhase(span, err) }()

	collector := metrics.NewCollector()
	httpReq := newHTTPRequester(h.client, h.target, collector, h.log)
	var requester runner.Requester = httpReq
	if h.cfg.LogErrors {
		// the warn line from WithLogging replaces the info line
		httpReq.failLevel = zerolog.DebugLevel
		requester = runner.WithLogging(requester, failureLogger{h.log})
	}

	var progress *output.ProgressReporter
	if h.progress != nil && h.cfg.Total > 0 {
		progress = output.NewProgressReporter(collector, h.cfg.Total, h.interval, h.progress)
		progress.Start()
	}

	h.log.Info().
		Str("endpoint", h.target.String()).
		Int("total", h.cfg.Total).
		Int("concurrency", h.cfg.Concurrency).
		Int("rate", h.cfg.Rate).
		Msg("starting load")
	res := runner.New(runner.Options{
		Concurrency:   h.cfg.Concurrency,
		TotalRequests: h.cfg.Total,
		RatePerSecond: h.cfg.Rate,
		Requester:     requester,
	}).Run(ctx)

	if progress != nil {
		progress.Stop()
	}

	stats = collector.Stats(res.Duration)
	if ctx.Err() != nil && res.Total < int64(h.cfg.Total) {
		return stats, fmt.Errorf("load interrupted after %d of %d requests: %w", res.Total, h.cfg.Total, ctx.Err())
	}
	return stats, nil
}
