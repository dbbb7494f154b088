package runner

import (
	"testing"

	"golang.org/x/time/rate"
)

func TestOptionsNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Options
		validate func(*testing.T, Options)
	}{
		{
			name:  "defaults",
			input: Options{},
			validate: func(t *testing.T, o Options) {
				if o.Concurrency != 1 {
					t.Errorf("Concurrency = %d, want 1", o.Concurrency)
				}
				if o.LimiterFactory == nil {
					t.Error("LimiterFactory should not be nil")
				}
			},
		},
		{
			name: "negative values corrected",
			input: Options{
				Concurrency:   -5,
				TotalRequests: -10,
				RatePerSecond: -1,
			},
			validate: func(t *testing.T, o Options) {
				if o.Concurrency != 1 {
					t.Errorf("Concurrency = %d, want 1", o.Concurrency)
				}
				if o.TotalRequests != 0 {
					t.Errorf("TotalRequests = %d, want 0", o.TotalRequests)
				}
				if o.RatePerSecond != 0 {
					t.Errorf("RatePerSecond = %d, want 0", o.RatePerSecond)
				}
			},
		},
		{
			name:  "workers capped by total",
			input: Options{Concurrency: 8, TotalRequests: 3},
			validate: func(t *testing.T, o Options) {
				if o.Concurrency != 3 {
					t.Errorf("Concurrency = %d, want 3", o.Concurrency)
				}
			},
		},
		{
			name:  "preserve valid values",
			input: Options{Concurrency: 4, TotalRequests: 100, RatePerSecond: 50},
			validate: func(t *testing.T, o Options) {
				if o.Concurrency != 4 || o.TotalRequests != 100 || o.RatePerSecond != 50 {
					t.Errorf("options changed: %+v", o)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := tt.input
			opt.normalize()
			tt.validate(t, opt)
		})
	}
}

func TestDefaultLimiterFactory(t *testing.T) {
	var o Options
	o.normalize()

	if l := o.LimiterFactory(0); l.Limit() != rate.Inf {
		t.Errorf("limit for 0 rps = %v, want Inf", l.Limit())
	}
	l := o.LimiterFactory(20)
	if l.Limit() != rate.Limit(20) {
		t.Errorf("limit = %v, want 20", l.Limit())
	}
	if l.Burst() != 1 {
		t.Errorf("burst = %d, want 1", l.Burst())
	}
}
