package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Result captures execution summary.
type Result struct {
	Total    int64
	Errors   int64
	Duration time.Duration
}

// RequestsPerSec is Total divided by Duration in seconds. It is 0 when no
// request ran or no time elapsed.
func (r Result) RequestsPerSec() float64 {
	if r.Total <= 0 || r.Duration <= 0 {
		return 0
	}
	return float64(r.Total) / r.Duration.Seconds()
}

// Successes is Total minus Errors.
func (r Result) Successes() int64 {
	return r.Total - r.Errors
}

// Runner issues a fixed number of requests and times the batch.
type Runner struct {
	opt     Options
	limiter *rate.Limiter
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, limiter: opt.LimiterFactory(opt.RatePerSecond)}
}

// Run issues exactly TotalRequests requests unless ctx is cancelled first.
// A failing request is counted and the batch continues. Duration spans from
// just before the first request to just after the last one returns.
func (r *Runner) Run(ctx context.Context) Result {
	if r.opt.TotalRequests == 0 || r.opt.Requester == nil {
		return Result{}
	}
	if r.opt.Concurrency == 1 {
		return r.runSequential(ctx)
	}
	return r.runPool(ctx)
}

func (r *Runner) runSequential(ctx context.Context) Result {
	var res Result
	start := time.Now()
	for i := 0; i < r.opt.TotalRequests; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}
		res.Total++
		if err := r.opt.Requester.Do(ctx); err != nil {
			res.Errors++
		}
	}
	res.Duration = time.Since(start)
	return res
}

func (r *Runner) runPool(ctx context.Context) Result {
	var total int64
	var errs int64

	permits := make(chan struct{})
	start := time.Now()

	// Scheduler: serializes pacing so workers never overshoot the rate.
	go func() {
		defer close(permits)
		for i := 0; i < r.opt.TotalRequests; i++ {
			if err := r.limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case permits <- struct{}{}:
				atomic.AddInt64(&total, 1)
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Concurrency)
	for i := 0; i < r.opt.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for range permits {
				if err := r.opt.Requester.Do(ctx); err != nil {
					atomic.AddInt64(&errs, 1)
				}
			}
		}()
	}
	wg.Wait()

	return Result{
		Total:    atomic.LoadInt64(&total),
		Errors:   atomic.LoadInt64(&errs),
		Duration: time.Since(start),
	}
}
