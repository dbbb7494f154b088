package metrics

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/ledgerprobe/internal/ledger"
)

// MaxFailureSamples bounds how many failed requests are kept verbatim.
const MaxFailureSamples = 10

// TransportStatus is the status bucket used when no response arrived.
const TransportStatus = "transport"

// RequestMetadata describes one observed request.
type RequestMetadata struct {
	Endpoint   string
	StatusCode int
}

// FailureSample is a failed request kept for the report.
type FailureSample struct {
	Seq        int64  `json:"seq" yaml:"seq"`
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Message    string `json:"message" yaml:"message"`
}

// Collector records per-request metrics in a thread-safe manner.
type Collector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	seq          int64
	successes    int64
	failures     int64
	minLatency   time.Duration
	maxLatency   time.Duration
	sumLatency   time.Duration
	errorsByType map[string]int64
	statuses     map[string]map[string]int
	samples      []FailureSample
}

// Stats represents aggregated metrics. There are no percentiles: the report
// is total elapsed time, mean rate and plain min/mean/max latency.
type Stats struct {
	Total          int64         `json:"total" yaml:"total"`
	Successes      int64         `json:"successes" yaml:"successes"`
	Failures       int64         `json:"failures" yaml:"failures"`
	MinLatency     time.Duration `json:"-" yaml:"-"`
	MaxLatency     time.Duration `json:"-" yaml:"-"`
	MeanLatency    time.Duration `json:"-" yaml:"-"`
	StdDevLatency  time.Duration `json:"-" yaml:"-"`
	Duration       time.Duration `json:"-" yaml:"-"`
	RequestsPerSec float64       `json:"requests_per_sec" yaml:"requests_per_sec"`

	MinLatencyMs    float64 `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs    float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
	MeanLatencyMs   float64 `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	StdDevLatencyMs float64 `json:"stddev_latency_ms" yaml:"stddev_latency_ms"`
	DurationMs      float64 `json:"duration_ms" yaml:"duration_ms"`

	Errors         map[string]int            `json:"errors,omitempty" yaml:"errors,omitempty"`
	StatusCodes    map[string]map[string]int `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
	FailureSamples []FailureSample           `json:"failure_samples,omitempty" yaml:"failure_samples,omitempty"`
}

// ErrorRate is Failures over Total, 0 when nothing ran.
func (s Stats) ErrorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Total)
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		errorsByType: make(map[string]int64),
		statuses:     make(map[string]map[string]int),
	}
}

// RecordRequest records a single request's latency and outcome. meta may be
// nil.
func (c *Collector) RecordRequest(latency time.Duration, err error, meta *RequestMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency
	if c.seq == 1 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	endpoint := ""
	code := 0
	if meta != nil {
		endpoint = meta.Endpoint
		code = meta.StatusCode
	}
	if code == 0 {
		var httpErr *ledger.HTTPError
		if errors.As(err, &httpErr) {
			code = httpErr.StatusCode
		}
	}
	status := TransportStatus
	if code > 0 {
		status = strconv.Itoa(code)
	}
	if err == nil && code == 0 {
		status = "200"
	}
	if c.statuses[endpoint] == nil {
		c.statuses[endpoint] = make(map[string]int)
	}
	c.statuses[endpoint][status]++

	if err == nil {
		c.successes++
		return
	}
	c.failures++
	c.errorsByType[ClassifyError(err)]++
	if len(c.samples) < MaxFailureSamples {
		c.samples = append(c.samples, FailureSample{
			Seq:        c.seq,
			Endpoint:   endpoint,
			StatusCode: code,
			Message:    truncate(err.Error(), 512),
		})
	}
}

// Stats aggregates everything recorded so far. elapsed is the batch wall
// time used for the rate.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	stats := Stats{
		Total:      total,
		Successes:  c.successes,
		Failures:   c.failures,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
		Duration:   elapsed,
	}
	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}
	if c.hist.TotalCount() > 1 {
		stats.StdDevLatency = time.Duration(c.hist.StdDev() * float64(time.Microsecond))
	}
	if elapsed > 0 && total > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	stats.MinLatencyMs = toMillis(stats.MinLatency)
	stats.MaxLatencyMs = toMillis(stats.MaxLatency)
	stats.MeanLatencyMs = toMillis(stats.MeanLatency)
	stats.StdDevLatencyMs = toMillis(stats.StdDevLatency)
	stats.DurationMs = toMillis(elapsed)

	if len(c.errorsByType) > 0 {
		stats.Errors = make(map[string]int, len(c.errorsByType))
		for k, v := range c.errorsByType {
			stats.Errors[k] = int(v)
		}
	}
	if len(c.statuses) > 0 {
		stats.StatusCodes = make(map[string]map[string]int, len(c.statuses))
		for endpoint, codes := range c.statuses {
			copied := make(map[string]int, len(codes))
			for code, n := range codes {
				copied[code] = n
			}
			stats.StatusCodes[endpoint] = copied
		}
	}
	if len(c.samples) > 0 {
		stats.FailureSamples = append([]FailureSample(nil), c.samples...)
	}
	return stats
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
