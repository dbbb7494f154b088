package probe

import (
	"context"
	"strings"

	"github.com/torosent/ledgerprobe/internal/extractor"
	"github.com/torosent/ledgerprobe/internal/ledger"
)

// HealthClient issues the /health request.
type HealthClient interface {
	Health(ctx context.Context) (ledger.Response, error)
}

// HealthResult is a passing health probe.
type HealthResult struct {
	StatusCode int
	Health     ledger.Health
	// Decoded is false when the 200 body was not a health document.
	Decoded bool
}

type HealthProber struct {
	client HealthClient
}

func NewHealthProber(client HealthClient) *HealthProber {
	return &HealthProber{client: client}
}

// Check sends exactly one health request. Any outcome other than 200 yields
// a *HealthCheckFailedError.
func (p *HealthProber) Check(ctx context.Context) (HealthResult, error) {
	resp, err := p.client.Health(ctx)
	if err != nil || !resp.OK() {
		return HealthResult{}, &HealthCheckFailedError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(resp.Body)),
			Failures:   extractor.Strings(resp.Body, "failures"),
			Err:        err,
		}
	}

	result := HealthResult{StatusCode: resp.StatusCode}
	if h, decodeErr := ledger.DecodeHealth(resp.Body); decodeErr == nil {
		result.Health = h
		result.Decoded = true
	}
	return result, nil
}
