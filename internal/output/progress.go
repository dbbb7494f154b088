package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/ledgerprobe/internal/metrics"
)

// Snapshotter yields statistics for a given elapsed time.
type Snapshotter interface {
	Stats(elapsed time.Duration) metrics.Stats
}

// ProgressReporter redraws a one-line progress summary on an interval.
type ProgressReporter struct {
	source   Snapshotter
	planned  int
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a reporter for a run of planned requests.
func NewProgressReporter(source Snapshotter, planned int, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		source:   source,
		planned:  planned,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins drawing in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return
	}
	p.start = time.Now()
	go p.run()
}

// Stop draws a final line and halts updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer)
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.done:
			fmt.Fprint(p.writer, p.line())
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	stats := p.source.Stats(time.Since(p.start))
	return fmt.Sprintf("\rRequests: %d/%d | Successes: %d | Failures: %d | RPS: %.1f",
		stats.Total, p.planned, stats.Successes, stats.Failures, stats.RequestsPerSec)
}
