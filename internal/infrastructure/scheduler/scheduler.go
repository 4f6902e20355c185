package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Task is the work behind a named job
type Task func(ctx context.Context) error

// Job is one run of a registered task
type Job struct {
	ID          uint64
	Name        string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

func (j *Job) start(now time.Time) {
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

func (j *Job) complete(now time.Time) {
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

func (j *Job) fail(now time.Time, err error) {
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err.Error()
}

// ShouldRetry returns true if the job failed and has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

func (j *Job) scheduleRetry(now time.Time, delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	next := now.Add(delay)
	j.NextRetryAt = &next
	j.Error = ""
}

// RunObserver is told about every finished attempt
type RunObserver func(job string, err error)

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithRunObserver registers a callback for finished attempts
func WithRunObserver(fn RunObserver) Option {
	return func(s *Scheduler) {
		s.observe = fn
	}
}

// Scheduler runs registered tasks on a small worker pool with retries
type Scheduler struct {
	config  config.SchedulerConfig
	logger  *zap.Logger
	clock   clockwork.Clock
	observe RunObserver

	tasks  map[string]Task
	jobs   chan *Job
	nextID atomic.Uint64

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg config.SchedulerConfig, logger *zap.Logger, opts ...Option) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		config: cfg,
		logger: logger,
		clock:  clockwork.NewRealClock(),
		tasks:  make(map[string]Task),
		jobs:   make(chan *Job, 32),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a named task. Registering a name twice replaces the task.
func (s *Scheduler) Register(name string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = task
}

// Names returns the registered task names in order
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namesLocked()
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Strings("jobs", s.namesLocked()),
	)
	return nil
}

func (s *Scheduler) namesLocked() []string {
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stop cancels running jobs and pending retries and waits for the workers
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues one run of the named task and returns the job id
func (s *Scheduler) Submit(name string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return 0, ErrSchedulerNotRunning
	}
	if _, ok := s.tasks[name]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	job := &Job{
		ID:         s.nextID.Add(1),
		Name:       name,
		Status:     JobStatusPending,
		MaxRetries: s.config.RetryAttempts,
	}
	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted", zap.Uint64("job_id", job.ID), zap.String("job", name))
		return job.ID, nil
	default:
		return 0, ErrJobQueueFull
	}
}

// SubmitAll queues one run of every registered task
func (s *Scheduler) SubmitAll() error {
	for _, name := range s.Names() {
		if _, err := s.Submit(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	s.mu.Lock()
	task := s.tasks[job.Name]
	s.mu.Unlock()

	job.start(s.clock.Now())
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.Uint64("job_id", job.ID),
		zap.String("job", job.Name),
	)
	log.Info("Processing job", zap.Int("attempt", job.RetryCount+1))

	jobCtx := ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	err := s.run(jobCtx, task)
	if s.observe != nil {
		s.observe(job.Name, err)
	}
	if err == nil {
		job.complete(s.clock.Now())
		log.Info("Job completed successfully")
		return
	}

	job.fail(s.clock.Now(), err)
	log.Error("Job failed", zap.Error(err))
	if ctx.Err() != nil || !job.ShouldRetry() {
		return
	}

	job.scheduleRetry(s.clock.Now(), s.config.RetryDelay)
	log.Info("Job scheduled for retry",
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
	)
	s.wg.Add(1)
	go s.requeueAfter(ctx, job, s.config.RetryDelay)
}

// run calls the task and turns a panic into an error
func (s *Scheduler) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return task(ctx)
}

func (s *Scheduler) requeueAfter(ctx context.Context, job *Job, delay time.Duration) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-s.clock.After(delay):
	}

	select {
	case s.jobs <- job:
	case <-ctx.Done():
	default:
		s.logger.Warn("Failed to re-queue job for retry", zap.Uint64("job_id", job.ID), zap.String("job", job.Name))
	}
}

// RunNow runs the named task on the caller's goroutine without retries
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}
	err := s.run(ctx, task)
	if s.observe != nil {
		s.observe(name, err)
	}
	return err
}
