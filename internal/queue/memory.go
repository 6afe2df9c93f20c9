package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a synchronous in-process Queue. Jobs with a registered handler
// run inline on Enqueue, including their retries (without the delay); jobs
// without a handler are only recorded. Tests use it to substitute the worker
// pool and assert on what was enqueued.
type Memory struct {
	mu          sync.Mutex
	handlers    map[string]Handler
	jobs        []Job
	maxAttempts int
}

func NewMemory() *Memory {
	return &Memory{
		handlers:    make(map[string]Handler),
		maxAttempts: 3,
	}
}

// Register binds a handler to a job name.
func (m *Memory) Register(name string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[name] = h
}

func (m *Memory) Enqueue(ctx context.Context, job Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	handler, ok := m.handlers[job.Name]
	m.mu.Unlock()

	if !ok {
		return nil
	}

	var err error
	for attempt := job.Attempt; attempt < m.maxAttempts; attempt++ {
		job.Attempt = attempt
		if err = handler(ctx, job); err == nil {
			return nil
		}
		if errors.Is(err, ErrTerminal) {
			return nil
		}
	}
	// Exhausted retries; asynchronous callers never observe job failures.
	return nil
}

// Jobs returns a copy of everything enqueued so far.
func (m *Memory) Jobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, len(m.jobs))
	copy(out, m.jobs)
	return out
}

// JobsNamed filters recorded jobs by handler name.
func (m *Memory) JobsNamed(name string) []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Job
	for _, j := range m.jobs {
		if j.Name == name {
			out = append(out, j)
		}
	}
	return out
}

// Reset clears the recorded job log.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = nil
}
