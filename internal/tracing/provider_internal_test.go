package tracing

import (
	"strings"
	"testing"

	"github.com/torosent/ledgerprobe/internal/config"
)

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
		{1, "AlwaysOnSampler"},
	}
	for _, tt := range tests {
		s, err := samplerFor(tt.rate)
		if err != nil {
			t.Fatalf("samplerFor(%g) error = %v", tt.rate, err)
		}
		if desc := s.Description(); !strings.HasPrefix(desc, "ParentBased{root:"+tt.want+",") {
			t.Errorf("samplerFor(%g) = %s, want parent-based %s", tt.rate, desc, tt.want)
		}
	}
	if _, err := samplerFor(1.01); err == nil {
		t.Error("samplerFor(1.01) should fail")
	}
}

func TestServiceNameFallback(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	if got := serviceName(config.TracingConfig{ServiceName: "  "}); got != instrumentationName {
		t.Errorf("serviceName() = %q, want %q", got, instrumentationName)
	}
	t.Setenv("OTEL_SERVICE_NAME", "from-env")
	if got := serviceName(config.TracingConfig{}); got != "from-env" {
		t.Errorf("serviceName() = %q, want from-env", got)
	}
	if got := serviceName(config.TracingConfig{ServiceName: "explicit"}); got != "explicit" {
		t.Errorf("serviceName() = %q, want explicit", got)
	}
}

func TestExportEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	if got := exportEndpoint(config.TracingConfig{Endpoint: " local:4317 "}); got != "local:4317" {
		t.Errorf("exportEndpoint() = %q, want local:4317", got)
	}
	if got := exportEndpoint(config.TracingConfig{}); got != "collector:4317" {
		t.Errorf("exportEndpoint() = %q, want collector:4317", got)
	}
}
