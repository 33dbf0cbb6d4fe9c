package contracts

import (
	"fmt"
	"sync"
	"time"
)

// BatchReport accumulates per-security outcomes for one pipeline stage
// run. Safe for concurrent use by worker goroutines.
type BatchReport struct {
	Stage     string
	StartedAt time.Time

	mu      sync.Mutex
	success []string
	skipped map[string]string
	failed  map[string]error
}

// NewBatchReport creates a report for the named stage.
func NewBatchReport(stage string) *BatchReport {
	return &BatchReport{
		Stage:     stage,
		StartedAt: time.Now(),
		skipped:   make(map[string]string),
		failed:    make(map[string]error),
	}
}

// Success records a completed security.
func (r *BatchReport) Success(ticker string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success = append(r.success, ticker)
}

// Skip records a security that was intentionally not processed.
func (r *BatchReport) Skip(ticker, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[ticker] = reason
}

// Fail records a security that errored.
func (r *BatchReport) Fail(ticker string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[ticker] = err
}

// Counts returns the success, skip, and failure totals.
func (r *BatchReport) Counts() (success, skipped, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.success), len(r.skipped), len(r.failed)
}

// Failures returns a copy of the failure map.
func (r *BatchReport) Failures() map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]error, len(r.failed))
	for k, v := range r.failed {
		out[k] = v
	}
	return out
}

// Summary formats a one-line summary for logging.
func (r *BatchReport) Summary() string {
	ok, skip, fail := r.Counts()
	return fmt.Sprintf("%s: %d ok, %d skipped, %d failed in %s",
		r.Stage, ok, skip, fail, time.Since(r.StartedAt).Round(time.Millisecond))
}
