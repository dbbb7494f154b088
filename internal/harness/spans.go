package harness

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/ledgerprobe/internal/tracing"
)

func (h *Harness) startPhase(ctx context.Context, p Phase) (context.Context, trace.Span) {
	return tracing.StartPhaseSpan(ctx, h.tracer, string(p))
}

func endPhase(span trace.Span, err error) {
	tracing.EndSpan(span, err)
}
