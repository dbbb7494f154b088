package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int64
	}{
		{123, 123},
		{"456", 456},
		{int64(9_000_000_000), 9_000_000_000},
		{float64(10.0), 10},
		{uint8(7), 7},
		{nil, 0},
		{" ", 0},
	}

	for _, tt := range tests {
		got, err := asInt64(tt.input)
		if err != nil {
			t.Errorf("asInt64(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt64(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}

	if _, err := asInt64("ten"); err == nil {
		t.Errorf("asInt64(\"ten\") expected error")
	}
	if _, err := asInt64([]int{1}); err == nil {
		t.Errorf("asInt64(slice) expected error")
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"false", false},
		{"0", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		if err != nil {
			t.Errorf("asBool(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{10, 10 * time.Second},
		{1.5, 1500 * time.Millisecond},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := Defaults()
	settings := map[string]interface{}{
		"target":              "http://ledger:9000",
		"scenario":            "accounts",
		"total":               100,
		"api":                 "legacy",
		"lookup_id":           "42",
		"lookup_from_created": true,
		"username_prefix":     "bench",
		"email_domain":        "ledger.test",
		"concurrency":         4,
		"timeout":             "5s",
		"yaml_output":         "true",
		"thresholds":          []interface{}{"http_req_failed:rate < 0.01"},
		"headers": map[string]interface{}{
			"x-run": "nightly",
		},
		"tracing": map[string]interface{}{
			"endpoint":    "collector:4317",
			"sample_rate": 0.5,
			"propagate":   false,
		},
	}

	if err := applyConfigSettings(&cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.TargetURL != "http://ledger:9000" {
		t.Errorf("TargetURL = %q", cfg.TargetURL)
	}
	if cfg.Scenario != "accounts" {
		t.Errorf("Scenario = %q, want accounts", cfg.Scenario)
	}
	if cfg.Total != 100 {
		t.Errorf("Total = %d, want 100", cfg.Total)
	}
	if cfg.API != "legacy" {
		t.Errorf("API = %q, want legacy", cfg.API)
	}
	if cfg.LookupID != 42 {
		t.Errorf("LookupID = %d, want 42", cfg.LookupID)
	}
	if !cfg.LookupFromCreated {
		t.Errorf("LookupFromCreated = false, want true")
	}
	if cfg.UsernamePrefix != "bench" || cfg.EmailDomain != "ledger.test" {
		t.Errorf("identity = %q/%q", cfg.UsernamePrefix, cfg.EmailDomain)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if !cfg.YAMLOutput {
		t.Errorf("YAMLOutput = false, want true")
	}
	if len(cfg.Thresholds) != 1 {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cfg.Headers["X-Run"] != "nightly" {
		t.Errorf("Headers[X-Run] = %q, want nightly", cfg.Headers["X-Run"])
	}
	if cfg.Tracing.Endpoint != "collector:4317" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.Propagate == nil || *cfg.Tracing.Propagate {
		t.Errorf("Tracing.Propagate = %v, want explicit false", cfg.Tracing.Propagate)
	}
	if cfg.Tracing.Protocol != "grpc" {
		t.Errorf("Tracing.Protocol = %q, want default grpc kept", cfg.Tracing.Protocol)
	}
}

func TestApplyConfigSettingsRejectsBadTypes(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]interface{}
	}{
		{"total", map[string]interface{}{"total": "many"}},
		{"timeout", map[string]interface{}{"timeout": "soon"}},
		{"log errors", map[string]interface{}{"log_errors": "maybe"}},
		{"tracing", map[string]interface{}{"tracing": "collector"}},
		{"headers", map[string]interface{}{"headers": []string{"a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			if err := applyConfigSettings(&cfg, tt.settings); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := Defaults()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--scenario=status",
		"-t", "25",
		"--lookup-id=9",
		"--skip-provision",
		"-c", "3",
		"--header=X-Test=123",
		"--timeout=2s",
		"--tracing-sample-rate=0.25",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(&cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.Scenario != "status" {
		t.Errorf("Scenario = %q, want status", cfg.Scenario)
	}
	if cfg.Total != 25 {
		t.Errorf("Total = %d, want 25", cfg.Total)
	}
	if cfg.LookupID != 9 {
		t.Errorf("LookupID = %d, want 9", cfg.LookupID)
	}
	if !cfg.SkipProvision {
		t.Errorf("SkipProvision = false, want true")
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", cfg.Concurrency)
	}
	if cfg.Headers["X-Test"] != "123" {
		t.Errorf("Headers[X-Test] = %q, want 123", cfg.Headers["X-Test"])
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
	}
	if cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("Tracing.SampleRate = %v, want 0.25", cfg.Tracing.SampleRate)
	}
	if cfg.TargetURL != DefaultTarget {
		t.Errorf("TargetURL = %q, unchanged flag must keep default", cfg.TargetURL)
	}
}

func TestApplyFlagOverridesRejectsMalformedHeader(t *testing.T) {
	cfg := Defaults()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)
	if err := fs.Parse([]string{"--header=novalue"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := applyFlagOverrides(&cfg, fs); err == nil {
		t.Fatal("expected error for header without '='")
	}
}
