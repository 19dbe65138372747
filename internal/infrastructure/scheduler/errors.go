package scheduler

import "errors"

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	// ErrJobQueueFull means every worker is busy and the queue is at capacity.
	ErrJobQueueFull  = errors.New("job queue is full")
	ErrUnknownTask   = errors.New("unknown task")
	ErrDuplicateTask = errors.New("task already registered")
	// ErrInvalidTask is returned for a task missing its name, interval or body.
	ErrInvalidTask = errors.New("invalid task")
)
