package scheduler

import (
	"context"
	"sync"
	"time"
)

// Job is a unit of scheduled work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Schedule is a cron expression with a leading seconds field,
	// e.g. "0 0 */6 * * *" (6시간마다) or "@hourly"
	Schedule() string

	Run(ctx context.Context) error
}

// JobResult is one execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Attempts  int           `json:"attempts"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory is how many results are kept per job
const maxHistory = 100

// JobHistory keeps the latest results of one job. Safe for concurrent use.
type JobHistory struct {
	mu      sync.RWMutex
	results []JobResult
}

// Add appends a result, dropping the oldest beyond maxHistory
func (h *JobHistory) Add(result JobResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, result)
	if over := len(h.results) - maxHistory; over > 0 {
		h.results = append([]JobResult(nil), h.results[over:]...)
	}
}

// Len returns the number of kept results
func (h *JobHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.results)
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > len(h.results) {
		n = len(h.results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return append([]JobResult(nil), h.results[len(h.results)-n:]...)
}

// Failed returns every kept failure
func (h *JobHistory) Failed() []JobResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	failed := make([]JobResult, 0)
	for _, r := range h.results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// Stats summarizes the kept results
func (h *JobHistory) Stats(jobName string) JobStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := JobStats{JobName: jobName, TotalRuns: len(h.results)}
	if len(h.results) == 0 {
		return stats
	}

	for _, r := range h.results {
		if r.Success {
			last := r.EndTime
			stats.LastSuccessAt = &last
		} else {
			stats.FailedRuns++
		}
	}
	stats.SuccessRate = float64(stats.TotalRuns-stats.FailedRuns) / float64(stats.TotalRuns)

	latest := h.results[len(h.results)-1]
	stats.LastRun = &latest.StartTime
	stats.LastSuccess = latest.Success
	stats.LastDuration = latest.Duration
	stats.LastError = latest.Error
	return stats
}

// JobStats represents job statistics
type JobStats struct {
	JobName       string        `json:"job_name"`
	TotalRuns     int           `json:"total_runs"`
	SuccessRate   float64       `json:"success_rate"`
	FailedRuns    int           `json:"failed_runs"`
	LastRun       *time.Time    `json:"last_run,omitempty"`
	LastSuccess   bool          `json:"last_success"`
	LastSuccessAt *time.Time    `json:"last_success_at,omitempty"`
	LastDuration  time.Duration `json:"last_duration"`
	LastError     string        `json:"last_error,omitempty"`
}
