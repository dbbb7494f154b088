package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/ledgerprobe/internal/runner"
)

// fakeRequester simulates a request with fixed latency and tracks overlap.
type fakeRequester struct {
	latency   time.Duration
	calls     int64
	inFlight  int64
	maxFlight int64
	failEvery int64 // every Nth call fails when > 0
}

func (f *fakeRequester) Do(ctx context.Context) error {
	n := atomic.AddInt64(&f.calls, 1)
	cur := atomic.AddInt64(&f.inFlight, 1)
	for {
		prev := atomic.LoadInt64(&f.maxFlight)
		if cur <= prev || atomic.CompareAndSwapInt64(&f.maxFlight, prev, cur) {
			break
		}
	}
	defer atomic.AddInt64(&f.inFlight, -1)

	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.failEvery > 0 && n%f.failEvery == 0 {
		return errors.New("boom")
	}
	return nil
}

func TestRunnerIssuesExactlyN(t *testing.T) {
	for _, n := range []int{1, 2, 17, 100} {
		req := &fakeRequester{}
		res := runner.New(runner.Options{TotalRequests: n, Requester: req}).Run(context.Background())
		if res.Total != int64(n) {
			t.Fatalf("n=%d: Total = %d", n, res.Total)
		}
		if req.calls != int64(n) {
			t.Fatalf("n=%d: requester called %d times", n, req.calls)
		}
	}
}

func TestRunnerSequentialNeverOverlaps(t *testing.T) {
	req := &fakeRequester{latency: time.Millisecond}
	runner.New(runner.Options{TotalRequests: 20, Requester: req}).Run(context.Background())
	if req.maxFlight != 1 {
		t.Fatalf("max in-flight = %d, want 1", req.maxFlight)
	}
}

func TestRunnerZeroRequests(t *testing.T) {
	req := &fakeRequester{}
	res := runner.New(runner.Options{TotalRequests: 0, Requester: req}).Run(context.Background())
	if res.Total != 0 || res.Errors != 0 || res.Duration != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if req.calls != 0 {
		t.Fatalf("requester called %d times, want 0", req.calls)
	}
	if rps := res.RequestsPerSec(); rps != 0 {
		t.Fatalf("RequestsPerSec() = %v, want 0", rps)
	}
}

func TestRunnerFailuresDoNotAbort(t *testing.T) {
	req := &fakeRequester{failEvery: 3}
	res := runner.New(runner.Options{TotalRequests: 30, Requester: req}).Run(context.Background())
	if res.Total != 30 {
		t.Fatalf("Total = %d, want 30", res.Total)
	}
	if res.Errors != 10 {
		t.Fatalf("Errors = %d, want 10", res.Errors)
	}
	if res.Successes() != 20 {
		t.Fatalf("Successes() = %d, want 20", res.Successes())
	}
}

func TestRunnerElapsedGrowsWithN(t *testing.T) {
	small := runner.New(runner.Options{TotalRequests: 2, Requester: &fakeRequester{latency: 5 * time.Millisecond}}).Run(context.Background())
	large := runner.New(runner.Options{TotalRequests: 8, Requester: &fakeRequester{latency: 5 * time.Millisecond}}).Run(context.Background())
	if large.Duration <= small.Duration {
		t.Fatalf("elapsed for n=8 (%s) should exceed n=2 (%s)", large.Duration, small.Duration)
	}
	if small.Duration < 10*time.Millisecond {
		t.Fatalf("elapsed %s shorter than the per-request cost", small.Duration)
	}
}

func TestRunnerRateMatchesTotalOverElapsed(t *testing.T) {
	res := runner.New(runner.Options{TotalRequests: 10, Requester: &fakeRequester{latency: time.Millisecond}}).Run(context.Background())
	want := float64(res.Total) / res.Duration.Seconds()
	if got := res.RequestsPerSec(); got != want {
		t.Fatalf("RequestsPerSec() = %v, want %v", got, want)
	}
}

func TestRunnerPoolIsolatesFailures(t *testing.T) {
	req := &fakeRequester{latency: 2 * time.Millisecond, failEvery: 2}
	res := runner.New(runner.Options{Concurrency: 4, TotalRequests: 40, Requester: req}).Run(context.Background())
	if res.Total != 40 || req.calls != 40 {
		t.Fatalf("Total = %d, calls = %d, want 40", res.Total, req.calls)
	}
	if res.Errors != 20 {
		t.Fatalf("Errors = %d, want 20", res.Errors)
	}
	if req.maxFlight > 4 {
		t.Fatalf("max in-flight = %d, want <= 4", req.maxFlight)
	}
}

func TestRateLimiterCapsThroughput(t *testing.T) {
	req := &fakeRequester{}
	r := runner.New(runner.Options{
		TotalRequests: 5,
		RatePerSecond: 50,
		Requester:     req,
		LimiterFactory: func(rps int) *rate.Limiter {
			return rate.NewLimiter(rate.Limit(rps), 1)
		},
	})
	res := r.Run(context.Background())
	// 5 requests at 50 rps: four 20ms gaps after the first immediate token.
	if res.Duration < 70*time.Millisecond {
		t.Fatalf("pacing not applied: %s", res.Duration)
	}
	if res.Total != 5 {
		t.Fatalf("Total = %d, want 5", res.Total)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	var calls int64
	req := runner.RequesterFunc(func(context.Context) error {
		if atomic.AddInt64(&calls, 1) == 3 {
			once.Do(cancel)
		}
		return nil
	})
	res := runner.New(runner.Options{TotalRequests: 100, Requester: req}).Run(ctx)
	if res.Total != 3 {
		t.Fatalf("Total = %d, want 3 after cancel", res.Total)
	}
}

type recordingLogger struct {
	mu   sync.Mutex
	errs []error
}

func (l *recordingLogger) LogFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func TestWithLoggingRecordsFailuresOnly(t *testing.T) {
	logger := &recordingLogger{}
	req := runner.WithLogging(&fakeRequester{failEvery: 2}, logger)
	res := runner.New(runner.Options{TotalRequests: 6, Requester: req}).Run(context.Background())
	if res.Errors != 3 {
		t.Fatalf("Errors = %d, want 3", res.Errors)
	}
	if len(logger.errs) != 3 {
		t.Fatalf("logged %d failures, want 3", len(logger.errs))
	}
}

func TestWithLoggingNilLoggerPassthrough(t *testing.T) {
	inner := &fakeRequester{}
	if got := runner.WithLogging(inner, nil); got != runner.Requester(inner) {
		t.Fatal("nil logger should return the inner requester")
	}
}
