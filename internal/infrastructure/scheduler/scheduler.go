// Package scheduler runs periodic housekeeping tasks on a small worker pool.
// Each registered task fires on its own interval and failed runs are queued
// again after a delay.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is periodic work. Run receives a context bounded by Config.JobTimeout.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Config struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:       2,
		QueueSize:     32,
		JobTimeout:    time.Minute,
		RetryAttempts: 2,
		RetryDelay:    30 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = def.JobTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	c.RetryAttempts = max(c.RetryAttempts, 0)
	return c
}

// Scheduler owns the registered tasks, their tickers and the worker pool.
// It can be started again after Stop.
type Scheduler struct {
	config Config
	logger *zap.Logger

	mu      sync.Mutex
	tasks   map[string]Task
	lastRun map[string]Job
	queue   chan *Job // nil while stopped
	halt    context.CancelFunc

	inflight sync.WaitGroup
}

func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		config:  config.withDefaults(),
		logger:  logger.Named("scheduler"),
		tasks:   make(map[string]Task),
		lastRun: make(map[string]Job),
	}
}

// Register adds a task. A task added while running gets no ticker until the
// next Start, but Submit accepts it immediately.
func (s *Scheduler) Register(task Task) error {
	if task.Name == "" || task.Interval <= 0 || task.Run == nil {
		return fmt.Errorf("%w: %q", ErrInvalidTask, task.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.tasks[task.Name]; taken {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, task.Name)
	}
	s.tasks[task.Name] = task
	return nil
}

// Start launches the workers and one ticker per task. Starting a running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil {
		return nil
	}

	ctx, s.halt = context.WithCancel(ctx)
	s.queue = make(chan *Job, s.config.QueueSize)
	queue := s.queue

	for id := range s.config.Workers {
		s.spawn(func() { s.work(ctx, id, queue) })
	}
	for _, task := range s.tasks {
		s.spawn(func() { s.tick(ctx, task) })
	}

	s.logger.Info("Scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("tasks", len(s.tasks)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and pending retries, then waits for every
// goroutine to exit or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.queue == nil {
		s.mu.Unlock()
		return nil
	}
	s.queue = nil
	s.halt()
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// Submit queues an out-of-band run of a registered task.
func (s *Scheduler) Submit(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		return ErrSchedulerNotRunning
	}
	if _, ok := s.tasks[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	return s.pushLocked(NewJob(name, s.config.RetryAttempts))
}

// LastRun returns a copy of the task's most recently finished job.
func (s *Scheduler) LastRun(name string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.lastRun[name]
	return job, ok
}

func (s *Scheduler) spawn(fn func()) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		fn()
	}()
}

func (s *Scheduler) push(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushLocked(job)
}

func (s *Scheduler) pushLocked(job *Job) error {
	if s.queue == nil {
		return ErrSchedulerNotRunning
	}
	select {
	case s.queue <- job:
		s.logger.Debug("Job queued",
			zap.String("task", job.Task),
			zap.Stringer("job_id", job.ID),
			zap.Int("retry", job.RetryCount),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) tick(ctx context.Context, task Task) {
	t := time.NewTicker(task.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if err := s.push(NewJob(task.Name, s.config.RetryAttempts)); err != nil {
			s.logger.Warn("Skipped scheduled run", zap.String("task", task.Name), zap.Error(err))
		}
	}
}

func (s *Scheduler) work(ctx context.Context, id int, queue <-chan *Job) {
	log := s.logger.With(zap.Int("worker_id", id))
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-queue:
			s.execute(ctx, log, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, log *zap.Logger, job *Job) {
	s.mu.Lock()
	task, ok := s.tasks[job.Task]
	s.mu.Unlock()
	if !ok {
		return
	}

	job.begin()
	runCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := task.Run(runCtx)
	cancel()
	job.finish(err)

	s.mu.Lock()
	s.lastRun[job.Task] = *job
	s.mu.Unlock()

	log = log.With(zap.String("task", job.Task), zap.Stringer("job_id", job.ID))
	if err == nil {
		log.Debug("Job succeeded", zap.Duration("took", job.CompletedAt.Sub(*job.StartedAt)))
		return
	}
	log.Error("Job failed", zap.Int("retry", job.RetryCount), zap.Error(err))
	if job.retryable() && ctx.Err() == nil {
		next := job.nextAttempt()
		s.spawn(func() { s.retryLater(ctx, next) })
	}
}

func (s *Scheduler) retryLater(ctx context.Context, job *Job) {
	wait := time.NewTimer(s.config.RetryDelay)
	defer wait.Stop()
	select {
	case <-ctx.Done():
		return
	case <-wait.C:
	}
	if err := s.push(job); err != nil {
		s.logger.Warn("Dropped job retry",
			zap.String("task", job.Task),
			zap.Stringer("job_id", job.ID),
			zap.Error(err),
		)
	}
}
