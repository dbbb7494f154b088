package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ledgerprobe",
		Short:         "Smoke test and benchmark a ledger HTTP service",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	d := Defaults()

	// Target
	flags.String("target", d.TargetURL, "Base URL of the ledger service")
	flags.String("api", d.API, "API flavor of the server: 'current' or 'legacy'")
	flags.StringSlice("header", nil, "Additional request header in key=value form")

	// Scenario
	flags.String("scenario", d.Scenario, "Load scenario: account-by-id, accounts, health, status, transactions, transaction-by-id")
	flags.IntP("total", "t", d.Total, "Number of load requests to send")
	flags.Int64("lookup-id", d.LookupID, "Id sent by the by-id scenarios")
	flags.Bool("lookup-from-created", false, "Use the id of the provisioned account for by-id scenarios")
	flags.Bool("skip-provision", false, "Skip account creation")
	flags.String("username-prefix", d.UsernamePrefix, "Prefix of the generated username")
	flags.String("email-domain", d.EmailDomain, "Domain of the generated email address")

	// Load control
	flags.IntP("concurrency", "c", d.Concurrency, "Number of workers (1 keeps requests strictly sequential)")
	flags.IntP("rate", "r", 0, "Requests per second limit (0 means unlimited)")
	flags.Duration("timeout", d.Timeout, "Per-request timeout")

	// Output
	flags.Bool("json-output", false, "Emit JSON formatted report")
	flags.Bool("yaml-output", false, "Emit YAML formatted report")
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.String("log-level", d.LogLevel, "Log level: trace, debug, info, warn, error")
	flags.StringSlice("threshold", nil, "Pass/fail thresholds (repeatable, e.g. 'http_requests:rate > 50')")
	flags.String("history-file", "", "Append the run summary to this JSON history file")
	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")
	flags.Bool("version", false, "Print version information and exit")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (host:port)")
	flags.String("tracing-protocol", d.Tracing.Protocol, "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", d.Tracing.SampleRate, "Trace sampling ratio between 0.0 and 1.0")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides copies explicitly set flags onto cfg, overriding values
// from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err != nil || !fs.Changed(name) {
			return
		}
		var v string
		if v, err = fs.GetString(name); err == nil {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(name string, dst *int) {
		if err != nil || !fs.Changed(name) {
			return
		}
		var v int
		if v, err = fs.GetInt(name); err == nil {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if err != nil || !fs.Changed(name) {
			return
		}
		var v bool
		if v, err = fs.GetBool(name); err == nil {
			*dst = v
		}
	}

	str("target", &cfg.TargetURL)
	str("api", &cfg.API)
	str("scenario", &cfg.Scenario)
	integer("total", &cfg.Total)
	boolean("lookup-from-created", &cfg.LookupFromCreated)
	boolean("skip-provision", &cfg.SkipProvision)
	str("username-prefix", &cfg.UsernamePrefix)
	str("email-domain", &cfg.EmailDomain)
	integer("concurrency", &cfg.Concurrency)
	integer("rate", &cfg.Rate)
	boolean("json-output", &cfg.JSONOutput)
	boolean("yaml-output", &cfg.YAMLOutput)
	boolean("log-errors", &cfg.LogErrors)
	str("log-level", &cfg.LogLevel)
	str("history-file", &cfg.HistoryFile)
	str("tracing-endpoint", &cfg.Tracing.Endpoint)
	str("tracing-protocol", &cfg.Tracing.Protocol)
	boolean("tracing-insecure", &cfg.Tracing.Insecure)
	if err != nil {
		return err
	}

	if fs.Changed("lookup-id") {
		val, err := fs.GetInt64("lookup-id")
		if err != nil {
			return err
		}
		cfg.LookupID = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	vals, err := fs.GetStringSlice("header")
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range vals {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("header must be in key=value format: %s", entry)
			}
			key := http.CanonicalHeaderKey(strings.TrimSpace(parts[0]))
			if key == "" {
				return fmt.Errorf("header key cannot be empty")
			}
			cfg.Headers[key] = strings.TrimSpace(parts[1])
		}
	}

	return nil
}
