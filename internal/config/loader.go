package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

var (
	// ErrHelpRequested is returned when the user requests help via --help flag.
	ErrHelpRequested = errors.New("help requested")
	// ErrVersionRequested is returned when the user passes --version.
	ErrVersionRequested = errors.New("version requested")
)

func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and an optional configuration file.
// Precedence is flags, then file, then Defaults.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if wantsVersion, err := flagSet.GetBool("version"); err == nil && wantsVersion {
		return nil, ErrVersionRequested
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	configPath := strings.TrimSpace(flagSet.Lookup("config").Value.String())
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.TargetURL = strings.TrimRight(strings.TrimSpace(cfg.TargetURL), "/")
	cfg.Scenario = strings.ToLower(strings.TrimSpace(cfg.Scenario))
	cfg.API = strings.ToLower(strings.TrimSpace(cfg.API))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(cfg.Tracing.Protocol))
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	stringFields := []struct {
		label string
		keys  []string
		dst   *string
	}{
		{"target", []string{"target", "base_url", "baseurl"}, &cfg.TargetURL},
		{"scenario", []string{"scenario"}, &cfg.Scenario},
		{"api", []string{"api", "flavor"}, &cfg.API},
		{"usernamePrefix", []string{"username_prefix", "usernameprefix", "username-prefix"}, &cfg.UsernamePrefix},
		{"emailDomain", []string{"email_domain", "emaildomain", "email-domain"}, &cfg.EmailDomain},
		{"logLevel", []string{"log_level", "loglevel", "log-level"}, &cfg.LogLevel},
		{"historyFile", []string{"history_file", "historyfile", "history-file"}, &cfg.HistoryFile},
	}
	for _, f := range stringFields {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := asString(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", f.label, err)
			}
			*f.dst = strings.TrimSpace(val)
		}
	}

	intFields := []struct {
		label string
		keys  []string
		dst   *int
	}{
		{"total", []string{"total", "requests"}, &cfg.Total},
		{"concurrency", []string{"concurrency"}, &cfg.Concurrency},
		{"rate", []string{"rate"}, &cfg.Rate},
	}
	for _, f := range intFields {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := asInt(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", f.label, err)
			}
			*f.dst = val
		}
	}

	boolFields := []struct {
		label string
		keys  []string
		dst   *bool
	}{
		{"lookupFromCreated", []string{"lookup_from_created", "lookupfromcreated", "lookup-from-created"}, &cfg.LookupFromCreated},
		{"skipProvision", []string{"skip_provision", "skipprovision", "skip-provision"}, &cfg.SkipProvision},
		{"jsonOutput", []string{"json_output", "jsonoutput", "json-output"}, &cfg.JSONOutput},
		{"yamlOutput", []string{"yaml_output", "yamloutput", "yaml-output"}, &cfg.YAMLOutput},
		{"logErrors", []string{"log_errors", "logerrors", "log-errors"}, &cfg.LogErrors},
	}
	for _, f := range boolFields {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := asBool(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", f.label, err)
			}
			*f.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "lookup_id", "lookupid", "lookup-id"); ok {
		val, err := asInt64(raw)
		if err != nil {
			return fmt.Errorf("lookupId: %w", err)
		}
		cfg.LookupID = val
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = val
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tc, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tc
	}

	return nil
}

func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	tc := base
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		if tc.Endpoint, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		if tc.Protocol, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		if tc.ServiceName, err = asString(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		if tc.SampleRate, err = asFloat64(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		if tc.Insecure, err = asBool(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		v, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("propagate: %w", err)
		}
		tc.Propagate = &v
	}
	tc.Endpoint = strings.TrimSpace(tc.Endpoint)
	return tc, nil
}
