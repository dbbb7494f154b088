// Package history keeps a bounded JSON log of past runs. Writers from
// separate processes are serialized with an advisory file lock.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/torosent/ledgerprobe/internal/output"
)

// MaxEntries bounds the number of runs kept, newest first.
const MaxEntries = 100

const lockRetryDelay = 25 * time.Millisecond

// Entry is one recorded run.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Target      string    `json:"target"`
	API         string    `json:"api"`
	Scenario    string    `json:"scenario"`
	Phase       string    `json:"phase"`
	Passed      bool      `json:"passed"`
	AbortReason string    `json:"abort_reason,omitempty"`
	Summary     Summary   `json:"summary"`
}

type Summary struct {
	TotalRequests  int64   `json:"total_requests"`
	Success        int64   `json:"success"`
	Fail           int64   `json:"fail"`
	DurationMs     float64 `json:"duration_ms"`
	RequestsPerSec float64 `json:"requests_per_sec"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	MaxLatencyMs   float64 `json:"max_latency_ms"`
}

// FromReport builds an Entry from a finished run report.
func FromReport(r output.Report) Entry {
	e := Entry{
		ID:          r.RunID,
		Timestamp:   r.StartedAt,
		Target:      r.Target,
		API:         r.API,
		Scenario:    r.Scenario,
		Phase:       r.Phase,
		Passed:      r.Passed(),
		AbortReason: r.AbortReason,
	}
	if r.Stats != nil {
		e.Summary = Summary{
			TotalRequests:  r.Stats.Total,
			Success:        r.Stats.Successes,
			Fail:           r.Stats.Failures,
			DurationMs:     r.Stats.DurationMs,
			RequestsPerSec: r.Stats.RequestsPerSec,
			AvgLatencyMs:   r.Stats.MeanLatencyMs,
			MaxLatencyMs:   r.Stats.MaxLatencyMs,
		}
	}
	return e
}

type Store struct {
	path string
	lock *flock.Flock
}

// Open returns a Store backed by path, creating its directory.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create dir: %w", err)
		}
	}
	return &Store{path: path, lock: flock.New(path + ".lock")}, nil
}

func (s *Store) Path() string { return s.path }

// Append records e as the newest entry and drops the oldest entries beyond
// MaxEntries.
func (s *Store) Append(ctx context.Context, e Entry) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("history: lock %s: %w", s.path, err)
	}
	if !locked {
		return fmt.Errorf("history: lock %s: not acquired", s.path)
	}
	defer s.lock.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	items = append([]Entry{e}, items...)
	if len(items) > MaxEntries {
		items = items[:MaxEntries]
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("history: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("history: replace: %w", err)
	}
	return nil
}

// List returns the recorded runs, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("history: lock %s: %w", s.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("history: lock %s: not acquired", s.path)
	}
	defer s.lock.Unlock()
	return s.read()
}

// Get returns the entry with the given run id.
func (s *Store) Get(ctx context.Context, id string) (Entry, bool, error) {
	items, err := s.List(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return Entry{}, false, nil
}

func (s *Store) read() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: read: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []Entry
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", s.path, err)
	}
	return items, nil
}
