// Package scheduler implements background job scheduling for CPTrack Hub.
// It owns a named-job registry with per-job enable/disable, immediate
// manual triggering and a status query, driving the recurring tracker
// refresh, cohort refresh and stale-profile cleanup runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Job is a unit of scheduled work.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job. The context is cancelled on scheduler shutdown.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// Schedule defines when a job should run.
type Schedule interface {
	// Next returns the next run time after t.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrJobAlreadyExists is returned for a duplicate job name.
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrJobNotFound is returned when a job name is unknown.
	ErrJobNotFound = errors.New("job not found")

	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrNotRunning is returned when Stop is called on a stopped scheduler.
	ErrNotRunning = errors.New("scheduler is not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// scheduledJob wraps a Job with its schedule and run state.
type scheduledJob struct {
	job       Job
	schedule  Schedule
	enabled   bool
	running   bool
	lastRun   time.Time
	lastError error
	nextRun   time.Time
	runCount  int64
	failCount int64
}

// Scheduler manages and executes named recurring jobs. It is constructed
// once at process start and passed by reference to whatever needs to
// trigger manual runs; there is no package-level registry.
type Scheduler struct {
	mu sync.RWMutex

	logger *slog.Logger

	jobs    map[string]*scheduledJob
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger: logger,
		jobs:   make(map[string]*scheduledJob),
	}
}

// Register adds a job with the given schedule. Jobs are enabled on
// registration and start firing once Start is called.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	s.jobs[name] = &scheduledJob{
		job:      job,
		schedule: schedule,
		enabled:  true,
		nextRun:  schedule.Next(time.Now()),
	}

	s.logger.Info("job registered",
		"job", name,
		"schedule", schedule.String(),
		"description", job.Description(),
	)
	return nil
}

// Enable turns a job back on and reschedules it.
func (s *Scheduler) Enable(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	sj.enabled = true
	sj.nextRun = sj.schedule.Next(time.Now())
	s.logger.Info("job enabled", "job", jobName, "next_run", sj.nextRun.Format(time.RFC3339))
	return nil
}

// Disable stops a job from firing; it stays registered.
func (s *Scheduler) Disable(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	sj.enabled = false
	s.logger.Info("job disabled", "job", jobName)
	return nil
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs", len(s.jobs))

	s.wg.Add(1)
	go s.runLoop()
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// runLoop checks for due jobs once per second.
func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.fireDueJobs()
		}
	}
}

// fireDueJobs runs every enabled, non-running job whose time has come.
func (s *Scheduler) fireDueJobs() {
	now := time.Now()

	s.mu.Lock()
	var due []*scheduledJob
	for _, sj := range s.jobs {
		if sj.enabled && !sj.running && !sj.nextRun.IsZero() && now.After(sj.nextRun) {
			sj.running = true
			sj.lastRun = now
			sj.nextRun = sj.schedule.Next(now)
			sj.runCount++
			due = append(due, sj)
		}
	}
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go s.execute(sj)
	}
}

// execute runs a single job and records the outcome.
func (s *Scheduler) execute(sj *scheduledJob) {
	defer s.wg.Done()

	name := sj.job.Name()
	started := time.Now()
	s.logger.Info("job started", "job", name)

	err := sj.job.Run(s.ctx)
	duration := time.Since(started)

	s.mu.Lock()
	sj.running = false
	sj.lastError = err
	if err != nil {
		sj.failCount++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed", "job", name, "duration", duration.String(), "error", err)
	} else {
		s.logger.Info("job completed", "job", name, "duration", duration.String())
	}
}

// HasJob reports whether a job with the given name is registered.
func (s *Scheduler) HasJob(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[name]
	return ok
}

// RunNow immediately executes a job by name, ignoring its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) error {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	started := time.Now()
	s.logger.Info("manual job run started", "job", jobName)

	err := sj.job.Run(ctx)

	s.mu.Lock()
	sj.lastRun = started
	sj.lastError = err
	sj.runCount++
	if err != nil {
		sj.failCount++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("manual job run failed", "job", jobName, "error", err)
		return err
	}
	s.logger.Info("manual job run completed", "job", jobName, "duration", time.Since(started).String())
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo describes one registered job for status queries.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	Enabled     bool      `json:"enabled"`
	Running     bool      `json:"running"`
	LastRun     time.Time `json:"lastRun"`
	NextRun     time.Time `json:"nextRun"`
	RunCount    int64     `json:"runCount"`
	FailCount   int64     `json:"failCount"`
	LastError   string    `json:"lastError,omitempty"`
}

// ListJobs returns information about all registered jobs, sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		info := JobInfo{
			Name:        name,
			Description: sj.job.Description(),
			Schedule:    sj.schedule.String(),
			Enabled:     sj.enabled,
			Running:     sj.running,
			LastRun:     sj.lastRun,
			NextRun:     sj.nextRun,
			RunCount:    sj.runCount,
			FailCount:   sj.failCount,
		}
		if sj.lastError != nil {
			info.LastError = sj.lastError.Error()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
