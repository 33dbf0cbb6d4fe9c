package scheduler

import (
	"context"
	"time"
)

// Job is one schedulable unit of pipeline work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
	// Schedule is a cron expression, e.g. "0 30 22 * * 1-5".
	Schedule() string
}

// JobResult records one execution.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps a bounded window of recent executions.
type JobHistory struct {
	Results []JobResult
}

const historyWindow = 100

func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyWindow {
		h.Results = h.Results[len(h.Results)-historyWindow:]
	}
}

// Latest returns the most recent result, nil when never run.
func (h *JobHistory) Latest() *JobResult {
	if len(h.Results) == 0 {
		return nil
	}
	return &h.Results[len(h.Results)-1]
}

// SuccessRate returns the fraction of successful runs in the window.
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	ok := 0
	for _, r := range h.Results {
		if r.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(h.Results))
}
