package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTarget         = "http://localhost:8080"
	DefaultScenario       = "account-by-id"
	DefaultTotal          = 1000
	DefaultLookupID       = 1
	DefaultUsernamePrefix = "john_doe"
	DefaultEmailDomain    = "example.com"
	DefaultTimeout        = 30 * time.Second
	DefaultLogLevel       = "info"
)

type Config struct {
	TargetURL         string            `mapstructure:"target"`
	Scenario          string            `mapstructure:"scenario"`
	Total             int               `mapstructure:"total"`
	API               string            `mapstructure:"api"`
	LookupID          int64             `mapstructure:"lookup_id"`
	LookupFromCreated bool              `mapstructure:"lookup_from_created"`
	SkipProvision     bool              `mapstructure:"skip_provision"`
	UsernamePrefix    string            `mapstructure:"username_prefix"`
	EmailDomain       string            `mapstructure:"email_domain"`
	Headers           map[string]string `mapstructure:"headers"`
	Concurrency       int               `mapstructure:"concurrency"`
	Rate              int               `mapstructure:"rate"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	JSONOutput        bool              `mapstructure:"json_output"`
	YAMLOutput        bool              `mapstructure:"yaml_output"`
	LogErrors         bool              `mapstructure:"log_errors"`
	LogLevel          string            `mapstructure:"log_level"`
	Thresholds        []string          `mapstructure:"thresholds"`
	HistoryFile       string            `mapstructure:"history_file"`
	Tracing           TracingConfig     `mapstructure:"tracing"`
	ConfigFile        string            `mapstructure:"-"`
}

// TracingConfig configures OpenTelemetry export. Tracing is off unless an
// endpoint is set here or through OTEL_EXPORTER_OTLP_ENDPOINT.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether traceparent headers are sent. It follows
// Enabled unless Propagate is set explicitly.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

// Defaults returns the configuration used when neither a file nor a flag
// sets a value.
func Defaults() Config {
	return Config{
		TargetURL:      DefaultTarget,
		Scenario:       DefaultScenario,
		Total:          DefaultTotal,
		API:            "current",
		LookupID:       DefaultLookupID,
		UsernamePrefix: DefaultUsernamePrefix,
		EmailDomain:    DefaultEmailDomain,
		Headers:        map[string]string{},
		Concurrency:    1,
		Timeout:        DefaultTimeout,
		LogLevel:       DefaultLogLevel,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	} else if u, err := url.Parse(target); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("target %q must be an absolute http or https URL", c.TargetURL))
	}

	if strings.TrimSpace(c.Scenario) == "" {
		issues = append(issues, "scenario is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.API)) {
	case "", "current", "legacy":
	default:
		issues = append(issues, fmt.Sprintf("api must be 'current' or 'legacy', got %q", c.API))
	}

	if c.Rate > 1000 {
		fmt.Fprintf(os.Stderr, "WARNING: High rate limit configured (%d RPS). Ensure you have authorization to test the target system.\n", c.Rate)
	}
	if c.Concurrency > 1 {
		fmt.Fprintf(os.Stderr, "WARNING: Parallel mode with %d workers measures concurrent capacity, not serialized round-trip throughput.\n", c.Concurrency)
	}

	if c.Total < 0 {
		issues = append(issues, "total must be >= 0")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.LookupID < 0 {
		issues = append(issues, "lookup_id must be >= 0")
	}
	if c.LookupFromCreated && c.SkipProvision {
		issues = append(issues, "lookup_from_created requires provisioning (remove skip_provision)")
	}
	if !c.SkipProvision {
		if strings.TrimSpace(c.UsernamePrefix) == "" {
			issues = append(issues, "username_prefix is required")
		}
		domain := strings.TrimSpace(c.EmailDomain)
		if domain == "" {
			issues = append(issues, "email_domain is required")
		} else if strings.Contains(domain, "@") {
			issues = append(issues, fmt.Sprintf("email_domain %q must not contain '@'", domain))
		}
	}
	if c.JSONOutput && c.YAMLOutput {
		issues = append(issues, "json-output and yaml-output are mutually exclusive")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel))); err != nil {
		issues = append(issues, fmt.Sprintf("log_level: %v", err))
	}

	issues = append(issues, validateTracing(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
