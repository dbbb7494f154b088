package harness

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/torosent/ledgerprobe/internal/endpoints"
	"github.com/torosent/ledgerprobe/internal/ledger"
	"github.com/torosent/ledgerprobe/internal/metrics"
)

// httpRequester sends the scenario request once per Do and records the
// outcome.
type httpRequester struct {
	client    *ledger.Client
	route     ledger.Route
	body      []byte
	endpoint  string
	collector *metrics.Collector
	log       zerolog.Logger
	// failLevel is the level failed requests are logged at. Successes
	// always go out at debug.
	failLevel zerolog.Level
}

func newHTTPRequester(client *ledger.Client, target endpoints.Target, collector *metrics.Collector, log zerolog.Logger) *httpRequester {
	return &httpRequester{
		client:    client,
		route:     ledger.Route{Method: target.Method, Path: target.Path},
		body:      target.Body,
		endpoint:  target.String(),
		collector: collector,
		log:       log,
		failLevel: zerolog.InfoLevel,
	}
}

func (r *httpRequester) Do(ctx context.Context) error {
	start := time.Now()
	resp, err := r.client.Do(ctx, r.route, r.body)
	latency := time.Since(start)

	r.collector.RecordRequest(latency, err, &metrics.RequestMetadata{
		Endpoint:   r.endpoint,
		StatusCode: resp.StatusCode,
	})
	level := zerolog.DebugLevel
	if err != nil {
		level = r.failLevel
	}
	r.log.WithLevel(level).
		Str("endpoint", r.endpoint).
		Int("status", resp.StatusCode).
		Dur("latency", latency).
		Bool("ok", err == nil).
		Msg("request")
	return err
}

// failureLogger adapts zerolog to runner.FailureLogger.
type failureLogger struct {
	log zerolog.Logger
}

func (f failureLogger) LogFailure(err error) {
	f.log.Warn().Err(err).Str("class", metrics.ClassifyError(err)).Msg("request failed")
}

// extractLogger adapts zerolog to extractor.Logger.
type extractLogger struct {
	log zerolog.Logger
}

func (e extractLogger) Warn(format string, args ...interface{}) {
	e.log.Warn().Msgf(format, args...)
}
