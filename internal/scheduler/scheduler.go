package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄러는 여기서만 관리
type Scheduler struct {
	cron      *cron.Cron
	logger    *logger.Logger
	jobs      map[string]cron.EntryID
	histories map[string]*JobHistory
	mu        sync.RWMutex

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration

	// Lifecycle of running jobs
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets how many times a failed job is retried and the delay between attempts
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

// WithTimeout bounds a single attempt (0 = no bound)
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// New creates a new scheduler
func New(log *logger.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds()), // Support seconds in cron expressions
		logger:     log.Component("scheduler"),
		jobs:       make(map[string]cron.EntryID),
		histories:  make(map[string]*JobHistory),
		maxRetries: 3,
		retryDelay: 1 * time.Minute,
		timeout:    10 * time.Minute,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check if job already exists
	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("job %s already exists", job.Name())
	}

	entryID, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(s.ctx, job.Name(), job)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", job.Name(), err)
	}

	s.jobs[job.Name()] = entryID
	if _, ok := s.histories[job.Name()]; !ok {
		s.histories[job.Name()] = &JobHistory{}
	}

	s.logger.WithFields(map[string]interface{}{
		"job":      job.Name(),
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(entryID)
	delete(s.jobs, jobName)

	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a job immediately and waits for it (outside of schedule)
func (s *Scheduler) RunJob(ctx context.Context, jobName string, job Job) error {
	s.mu.Lock()
	if _, exists := s.histories[jobName]; !exists {
		s.histories[jobName] = &JobHistory{}
	}
	s.mu.Unlock()

	s.logger.WithField("job", jobName).Info("Running job manually")
	result := s.runJob(ctx, jobName, job)
	if !result.Success {
		return fmt.Errorf("job %s: %s", jobName, result.Error)
	}
	return nil
}

// runJob executes a job with retry logic
func (s *Scheduler) runJob(ctx context.Context, jobName string, job Job) JobResult {
	s.wg.Add(1)
	defer s.wg.Done()

	startTime := time.Now()

	var lastErr error
	success := false
	attempts := 0

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.WithFields(map[string]interface{}{
				"job":     jobName,
				"attempt": attempt,
			}).Warn("Retrying job")

			if !s.wait(ctx) {
				lastErr = ctx.Err()
				break
			}
		}

		attempts++
		lastErr = s.attempt(ctx, job)
		if lastErr == nil {
			success = true
			break
		}

		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		}).Error("Job failed")
	}

	endTime := time.Now()
	duration := endTime.Sub(startTime)

	result := JobResult{
		JobName:   jobName,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
		Success:   success,
		Attempts:  attempts,
	}
	if lastErr != nil && !success {
		result.Error = lastErr.Error()
	}

	if history, err := s.history(jobName); err == nil {
		history.Add(result)
	}

	if success {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration,
		}).Info("Job completed successfully")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration,
			"error":    result.Error,
		}).Error("Job failed after all retries")
	}

	return result
}

func (s *Scheduler) attempt(ctx context.Context, job Job) error {
	if s.timeout <= 0 {
		return job.Run(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return job.Run(attemptCtx)
}

// wait sleeps for retryDelay; false when ctx ends first
func (s *Scheduler) wait(ctx context.Context) bool {
	if s.retryDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// History returns the kept results of a job, oldest first
func (s *Scheduler) History(jobName string) ([]JobResult, error) {
	history, err := s.history(jobName)
	if err != nil {
		return nil, err
	}
	return history.Latest(maxHistory), nil
}

// Jobs returns the scheduled job names
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		jobs = append(jobs, name)
	}
	sort.Strings(jobs)
	return jobs
}

// Stats returns statistics for a job
func (s *Scheduler) Stats(jobName string) (JobStats, error) {
	history, err := s.history(jobName)
	if err != nil {
		return JobStats{}, err
	}
	return history.Stats(jobName), nil
}

func (s *Scheduler) history(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.histories[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}
	return history, nil
}
