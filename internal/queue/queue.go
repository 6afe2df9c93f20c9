// Package queue provides the asynchronous job pipeline: an at-least-once
// queue interface, a Redis-backed implementation, and the worker pool that
// drains it. The queue handle is always injected; there is no process-wide
// registration state.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Job is one unit of asynchronous work. Name selects the handler, Key is the
// partition hint for FIFO ordering, and Payload is handler-defined JSON.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Key        string          `json:"key,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Status tracks a job through its lifecycle. Delivered and Failed are
// terminal.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusRunning        Status = "running"
	StatusDelivered      Status = "delivered"
	StatusRetryScheduled Status = "retry_scheduled"
	StatusFailed         Status = "failed"
)

// Handler processes a dequeued job. A nil return acknowledges the job; an
// error wrapping ErrTerminal fails it permanently, any other error makes it
// eligible for retry.
type Handler func(ctx context.Context, job Job) error

// ErrTerminal marks a job failure that retrying cannot fix (for example a
// referenced entity that does not exist and will not materialize later).
var ErrTerminal = errors.New("terminal job failure")

// Queue accepts jobs for asynchronous execution. Delivery is at-least-once.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}
