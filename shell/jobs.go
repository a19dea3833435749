package shell

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// JobStatus is a terminal or in-flight state for a submitted job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
	JobFailed    JobStatus = "failed"
)

// Job is the job-manager's record for one asynchronous command invocation.
type Job struct {
	ID              string
	Label           string
	Started         time.Time
	Finished        time.Time
	CancelRequested *atomic.Bool

	mu     sync.Mutex
	status JobStatus
	result interface{}
	err    error
	done   chan struct{}
}

// Status returns the job's current terminal-or-running status.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Result returns the job's final value and error. Callers should check
// Status first; Result blocks for nothing and returns zero values for a
// still-running job.
func (j *Job) Result() (interface{}, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Wait blocks until the job reaches a terminal status or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) finish(status JobStatus, result interface{}, err error) {
	j.mu.Lock()
	j.status = status
	j.result = result
	j.err = err
	j.Finished = time.Now()
	j.mu.Unlock()
	close(j.done)
}

// JobManager submits long-running asynchronous work and tracks it by id.
// The table is guarded by a single mutex.
type JobManager struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewJobManager() *JobManager {
	return &JobManager{jobs: map[string]*Job{}}
}

// Work is the body of an asynchronous command; it must poll cancelled
// cooperatively to support cancellation.
type Work func(ctx context.Context, cancelled *atomic.Bool) (interface{}, error)

// Submit starts work in its own goroutine and returns its Job immediately.
func (jm *JobManager) Submit(ctx context.Context, label string, work Work) *Job {
	job := &Job{
		ID:              uuid.NewString(),
		Label:           label,
		Started:         time.Now(),
		CancelRequested: atomic.NewBool(false),
		status:          JobRunning,
		done:            make(chan struct{}),
	}

	jm.mu.Lock()
	jm.jobs[job.ID] = job
	jm.mu.Unlock()

	go func() {
		result, err := work(ctx, job.CancelRequested)
		switch {
		case job.CancelRequested.Load():
			job.finish(JobCancelled, result, err)
		case err != nil:
			job.finish(JobFailed, nil, err)
		default:
			job.finish(JobCompleted, result, nil)
		}
	}()

	return job
}

// List returns every tracked job, most recently started first.
func (jm *JobManager) List() []*Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	out := make([]*Job, 0, len(jm.jobs))
	for _, j := range jm.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Started.After(out[k].Started) })
	return out
}

// Get looks up a job by id.
func (jm *JobManager) Get(id string) (*Job, bool) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	j, ok := jm.jobs[id]
	return j, ok
}

// Cancel requests cooperative cancellation of a running job. Returns false
// if no such job exists.
func (jm *JobManager) Cancel(id string) bool {
	jm.mu.Lock()
	j, ok := jm.jobs[id]
	jm.mu.Unlock()
	if !ok {
		return false
	}
	j.CancelRequested.Store(true)
	return true
}
