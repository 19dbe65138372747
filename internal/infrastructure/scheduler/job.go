package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is where a Job is in its lifecycle.
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one run of a Task. Retries keep the ID and bump RetryCount.
type Job struct {
	ID          uuid.UUID
	Task        string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

func NewJob(task string, maxRetries int) *Job {
	return &Job{ID: uuid.New(), Task: task, Status: JobStatusPending, MaxRetries: maxRetries}
}

func (j *Job) begin() {
	now := time.Now()
	*j = Job{
		ID:         j.ID,
		Task:       j.Task,
		Status:     JobStatusRunning,
		StartedAt:  &now,
		RetryCount: j.RetryCount,
		MaxRetries: j.MaxRetries,
	}
}

// finish records the outcome; a nil err is a success.
func (j *Job) finish(err error) {
	now := time.Now()
	j.CompletedAt = &now
	if err != nil {
		j.Status, j.Error = JobStatusFailed, err.Error()
		return
	}
	j.Status = JobStatusSuccess
}

func (j *Job) retryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// nextAttempt returns a pending copy of a failed job
func (j *Job) nextAttempt() *Job {
	return &Job{
		ID:         j.ID,
		Task:       j.Task,
		Status:     JobStatusPending,
		RetryCount: j.RetryCount + 1,
		MaxRetries: j.MaxRetries,
	}
}
