package models

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job represents an async operation (migration run, replay).
type Job struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`   // "migration-run", "replay"
	Status     string     `json:"status"` // "running", "completed", "failed", "cancelled"
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Output     []string   `json:"output"`

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the job-scoped context; cancelling the job cancels it.
// The context is created with the job, so a cancel that lands before the
// worker goroutine starts is still observed.
func (j *Job) Context() context.Context {
	return j.ctx
}

// AppendLog adds a log line to the job output.
func (j *Job) AppendLog(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Output = append(j.Output, line)
}

// LogsSince returns log lines starting from the given index.
func (j *Job) LogsSince(offset int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if offset >= len(j.Output) {
		return nil
	}
	lines := make([]string, len(j.Output)-offset)
	copy(lines, j.Output[offset:])
	return lines
}

// Complete marks the job as completed.
func (j *Job) Complete() {
	j.finish("completed", "")
}

// Fail marks the job as failed with an error message.
func (j *Job) Fail(err string) {
	j.finish("failed", err)
}

// Cancel signals the job's context and marks it cancelled.
func (j *Job) Cancel() {
	j.cancel()
	j.finish("cancelled", "")
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status != "running"
}

// CurrentStatus returns the status under the job lock.
func (j *Job) CurrentStatus() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

func (j *Job) finish(status, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != "running" {
		return
	}
	j.Status = status
	j.Error = errMsg
	now := time.Now()
	j.FinishedAt = &now
}

// JobStore is an in-memory thread-safe store for jobs.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create adds a new job, assigning it a UUID.
func (s *JobStore) Create(jobType string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    "running",
		StartedAt: time.Now(),
		Output:    []string{},
		ctx:       ctx,
		cancel:    cancel,
	}
	s.jobs[j.ID] = j
	return j
}

// Get returns a job by ID.
func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// List returns all jobs, most recent first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		result = append(result, j)
	}
	// Sort by started_at descending
	for i := 0; i < len(result); i++ {
		for k := i + 1; k < len(result); k++ {
			if result[k].StartedAt.After(result[i].StartedAt) {
				result[i], result[k] = result[k], result[i]
			}
		}
	}
	return result
}
