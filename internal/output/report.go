// Package output renders ledgerprobe run reports as text, JSON or YAML and
// draws the live progress line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/ledgerprobe/internal/metrics"
	"github.com/torosent/ledgerprobe/internal/threshold"
)

// Report is the document describing one run.
type Report struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time          `json:"started_at" yaml:"started_at"`
	Target      string             `json:"target" yaml:"target"`
	API         string             `json:"api" yaml:"api"`
	Scenario    string             `json:"scenario" yaml:"scenario"`
	Endpoint    string             `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Phase       string             `json:"phase" yaml:"phase"`
	AbortReason string             `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
	Health      *HealthSummary     `json:"health,omitempty" yaml:"health,omitempty"`
	Account     *AccountSummary    `json:"account,omitempty" yaml:"account,omitempty"`
	Stats       *metrics.Stats     `json:"stats,omitempty" yaml:"stats,omitempty"`
	Thresholds  []ThresholdOutcome `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

type HealthSummary struct {
	StatusCode int      `json:"status_code" yaml:"status_code"`
	Service    string   `json:"service,omitempty" yaml:"service,omitempty"`
	Version    string   `json:"version,omitempty" yaml:"version,omitempty"`
	Failures   []string `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type AccountSummary struct {
	Username  string `json:"username" yaml:"username"`
	Email     string `json:"email" yaml:"email"`
	Encoding  string `json:"encoding" yaml:"encoding"`
	Attempts  int    `json:"attempts" yaml:"attempts"`
	AccountID *int64 `json:"account_id,omitempty" yaml:"account_id,omitempty"`
}

// ThresholdOutcome is the serialized form of a threshold.Result.
type ThresholdOutcome struct {
	Threshold string  `json:"threshold" yaml:"threshold"`
	Expected  float64 `json:"expected" yaml:"expected"`
	Actual    float64 `json:"actual" yaml:"actual"`
	Pass      bool    `json:"pass" yaml:"pass"`
	Message   string  `json:"message" yaml:"message"`
}

// NewThresholdOutcomes converts evaluator results for the report.
func NewThresholdOutcomes(results []threshold.Result) []ThresholdOutcome {
	if len(results) == 0 {
		return nil
	}
	out := make([]ThresholdOutcome, len(results))
	for i, r := range results {
		out[i] = ThresholdOutcome{
			Threshold: r.Threshold.Raw,
			Expected:  r.Threshold.Value,
			Actual:    r.Actual,
			Pass:      r.Pass,
			Message:   r.Message,
		}
	}
	return out
}

// Aborted reports whether the run stopped before reporting.
func (r Report) Aborted() bool {
	return r.AbortReason != ""
}

// Passed is false when the run aborted or any threshold failed.
func (r Report) Passed() bool {
	if r.Aborted() {
		return false
	}
	for _, t := range r.Thresholds {
		if !t.Pass {
			return false
		}
	}
	return true
}

// PrintReport writes a human-readable summary.
func PrintReport(w io.Writer, r Report) {
	fmt.Fprintln(w, "\n--- Ledger Probe Results ---")
	fmt.Fprintf(w, "Run:               %s\n", r.RunID)
	fmt.Fprintf(w, "Target:            %s (%s API)\n", r.Target, r.API)
	fmt.Fprintf(w, "Scenario:          %s", r.Scenario)
	if r.Endpoint != "" {
		fmt.Fprintf(w, " [%s]", r.Endpoint)
	}
	fmt.Fprintln(w)

	if r.Health != nil {
		fmt.Fprintf(w, "Health:            %d", r.Health.StatusCode)
		if r.Health.Service != "" {
			fmt.Fprintf(w, " %s %s", r.Health.Service, r.Health.Version)
		}
		fmt.Fprintln(w)
		if len(r.Health.Failures) > 0 {
			fmt.Fprintf(w, "  Failing checks:  %s\n", strings.Join(r.Health.Failures, ", "))
		}
	}
	if r.Account != nil {
		fmt.Fprintf(w, "Account:           %s <%s> via %s encoding (%d attempt(s))",
			r.Account.Username, r.Account.Email, r.Account.Encoding, r.Account.Attempts)
		if r.Account.AccountID != nil {
			fmt.Fprintf(w, " id=%d", *r.Account.AccountID)
		}
		fmt.Fprintln(w)
	}

	if r.Aborted() {
		fmt.Fprintf(w, "\nABORTED during %s: %s\n", r.Phase, r.AbortReason)
		if r.Stats != nil {
			printStats(w, *r.Stats)
		}
		return
	}

	if r.Stats != nil {
		printStats(w, *r.Stats)
	}
	if len(r.Thresholds) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, t := range r.Thresholds {
			fmt.Fprintf(w, "  %s\n", t.Message)
		}
	}
}

func printStats(w io.Writer, stats metrics.Stats) {
	fmt.Fprintf(w, "\nTotal Requests:    %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", stats.RequestsPerSec)
	if stats.Total > 0 {
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
		fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
		fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
		fmt.Fprintf(w, "  StdDev:          %s\n", stats.StdDevLatency)
	}
	if len(stats.StatusCodes) > 0 {
		fmt.Fprintln(w, "\nStatus Buckets:")
		for _, row := range metrics.FlattenStatusBuckets(stats.StatusCodes) {
			fmt.Fprintf(w, "  %s %s: %d\n", row.Endpoint, row.Code, row.Count)
		}
	}
	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, row := range sortedCounts(stats.Errors) {
			fmt.Fprintf(w, "  %s: %d\n", row.name, row.count)
		}
	}
	if len(stats.FailureSamples) > 0 {
		fmt.Fprintln(w, "\nFirst failures:")
		for _, s := range stats.FailureSamples {
			fmt.Fprintf(w, "  #%d %s: %s\n", s.Seq, s.Endpoint, s.Message)
		}
	}
}

// PrintJSONReport writes the report as indented JSON.
func PrintJSONReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAMLReport writes the report as YAML.
func PrintYAMLReport(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
