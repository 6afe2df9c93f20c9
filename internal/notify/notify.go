// Package notify delivers per-event task notifications asynchronously
// through the job queue.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rmottanelli/clareza/internal/queue"
)

// JobName is the queue handler name for notification jobs.
const JobName = "send_task_notification"

type Type string

const (
	TypeTaskAssigned        Type = "task_assigned"
	TypeTaskCompleted       Type = "task_completed"
	TypeTaskDueSoon         Type = "task_due_soon"
	TypeTaskOverdue         Type = "task_overdue"
	TypeDependencyCompleted Type = "dependency_completed"
)

var (
	// ErrTransientDelivery marks a delivery failure worth retrying, such as
	// the downstream channel being briefly unavailable.
	ErrTransientDelivery = errors.New("transient delivery failure")

	// ErrPermanentDelivery marks a delivery failure that retrying cannot fix.
	ErrPermanentDelivery = errors.New("permanent delivery failure")
)

// Payload is the queue payload for one notification.
type Payload struct {
	TaskID      string         `json:"task_id"`
	Type        Type           `json:"type"`
	RecipientID string         `json:"recipient_id"`
	Data        map[string]any `json:"data,omitempty"`
}

// Dispatcher enqueues notification jobs. Sending is fire-and-forget from the
// caller's perspective; failures surface only in worker logs.
type Dispatcher struct {
	q queue.Queue
}

func NewDispatcher(q queue.Queue) *Dispatcher {
	return &Dispatcher{q: q}
}

// Send enqueues one notification for recipientID about taskID. Jobs are
// keyed by recipient so one recipient's notifications keep submission order.
func (d *Dispatcher) Send(ctx context.Context, taskID string, typ Type, recipientID string, data map[string]any) error {
	payload, err := json.Marshal(Payload{
		TaskID:      taskID,
		Type:        typ,
		RecipientID: recipientID,
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("encoding notification payload: %w", err)
	}
	return d.q.Enqueue(ctx, queue.Job{
		Name:    JobName,
		Key:     recipientID,
		Payload: payload,
	})
}
