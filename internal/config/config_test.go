package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/ledgerprobe/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "http://localhost:8080" {
		t.Errorf("TargetURL = %q, want http://localhost:8080", cfg.TargetURL)
	}
	if cfg.Scenario != "account-by-id" {
		t.Errorf("Scenario = %q, want account-by-id", cfg.Scenario)
	}
	if cfg.Total != 1000 {
		t.Errorf("Total = %d, want 1000", cfg.Total)
	}
	if cfg.API != "current" {
		t.Errorf("API = %q, want current", cfg.API)
	}
	if cfg.LookupID != 1 {
		t.Errorf("LookupID = %d, want 1", cfg.LookupID)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.Rate != 0 {
		t.Errorf("Rate = %d, want 0", cfg.Rate)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.UsernamePrefix != "john_doe" || cfg.EmailDomain != "example.com" {
		t.Errorf("identity defaults = %q/%q", cfg.UsernamePrefix, cfg.EmailDomain)
	}
	if cfg.JSONOutput || cfg.YAMLOutput {
		t.Errorf("report format flags should default to false")
	}
	if len(cfg.Headers) != 0 {
		t.Errorf("Headers len = %d, want 0", len(cfg.Headers))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"target": "https://ledger.example.com/",
		"scenario": "Accounts",
		"total": 100,
		"api": "legacy",
		"headers": {"X-Env": "staging"},
		"timeout": "45s",
		"jsonOutput": true
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--total", "7", "--header", "X-Run=abc"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "https://ledger.example.com" {
		t.Errorf("TargetURL = %q, want trailing slash trimmed", cfg.TargetURL)
	}
	if cfg.Scenario != "accounts" {
		t.Errorf("Scenario = %q, want accounts", cfg.Scenario)
	}
	if cfg.Total != 7 {
		t.Errorf("Total = %d, want flag value 7", cfg.Total)
	}
	if cfg.API != "legacy" {
		t.Errorf("API = %q, want legacy", cfg.API)
	}
	if cfg.Headers["X-Env"] != "staging" || cfg.Headers["X-Run"] != "abc" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %s, want 45s", cfg.Timeout)
	}
	if !cfg.JSONOutput {
		t.Errorf("JSONOutput = false, want true")
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `target: http://127.0.0.1:3000
scenario: transaction-by-id
lookup_id: 12
thresholds:
  - "http_req_failed:rate < 0.05"
  - "http_requests:count >= 10"
tracing:
  endpoint: localhost:4318
  protocol: HTTP
  insecure: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scenario != "transaction-by-id" {
		t.Errorf("Scenario = %q", cfg.Scenario)
	}
	if cfg.LookupID != 12 {
		t.Errorf("LookupID = %d, want 12", cfg.LookupID)
	}
	if len(cfg.Thresholds) != 2 {
		t.Errorf("Thresholds = %v, want 2 entries", cfg.Thresholds)
	}
	if cfg.Tracing.Protocol != "http" || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if !cfg.Tracing.Enabled() || !cfg.Tracing.ShouldPropagate() {
		t.Errorf("tracing with endpoint should be enabled and propagate")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadHelpAndVersion(t *testing.T) {
	if _, err := config.NewLoader().Load([]string{"--help"}); !errors.Is(err, config.ErrHelpRequested) {
		t.Errorf("--help error = %v, want ErrHelpRequested", err)
	}
	if _, err := config.NewLoader().Load([]string{"--version"}); !errors.Is(err, config.ErrVersionRequested) {
		t.Errorf("--version error = %v, want ErrVersionRequested", err)
	}
}

func TestLoadRejectsPositionalArguments(t *testing.T) {
	if _, err := config.NewLoader().Load([]string{"accounts"}); err == nil {
		t.Fatal("expected error for stray positional argument")
	}
}

func TestValidateAggregatesIssues(t *testing.T) {
	cfg := config.Defaults()
	cfg.TargetURL = "ftp://ledger"
	cfg.Total = -1
	cfg.Concurrency = 0
	cfg.Rate = -5
	cfg.API = "v3"
	cfg.EmailDomain = "user@example.com"
	cfg.JSONOutput = true
	cfg.YAMLOutput = true
	cfg.LogLevel = "loud"
	cfg.Tracing.SampleRate = 2

	err := cfg.Validate()
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want ValidationError", err)
	}

	wantFragments := []string{
		"target",
		"total must be >= 0",
		"concurrency must be >= 1",
		"rate must be >= 0",
		"api must be",
		"email_domain",
		"mutually exclusive",
		"log_level",
		"sample_rate",
	}
	joined := strings.Join(verr.Issues(), "\n")
	for _, frag := range wantFragments {
		if !strings.Contains(joined, frag) {
			t.Errorf("issues missing %q:\n%s", frag, joined)
		}
	}
}

func TestValidateSkipProvisionRelaxesIdentity(t *testing.T) {
	cfg := config.Defaults()
	cfg.SkipProvision = true
	cfg.UsernamePrefix = ""
	cfg.EmailDomain = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg.LookupFromCreated = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("lookup_from_created with skip_provision should fail")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	var empty config.ValidationError
	if empty.Error() != "validation failed" {
		t.Errorf("Error() = %q", empty.Error())
	}
}

func TestTracingPropagateOverride(t *testing.T) {
	off := false
	tc := config.TracingConfig{Endpoint: "localhost:4317", Propagate: &off}
	if !tc.Enabled() {
		t.Error("Enabled() = false, want true")
	}
	if tc.ShouldPropagate() {
		t.Error("ShouldPropagate() = true, want explicit false")
	}
}
