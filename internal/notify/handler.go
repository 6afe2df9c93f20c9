package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/queue"
	"github.com/rmottanelli/clareza/internal/repository"
)

// Delivery is a fully resolved notification handed to a Deliverer.
type Delivery struct {
	Task      *domain.Task
	Recipient *domain.User
	Type      Type
	Data      map[string]any
}

// Deliverer pushes a resolved notification to its channel (email, chat, …).
// Implementations return ErrTransientDelivery-wrapped errors for failures
// worth retrying.
type Deliverer interface {
	Deliver(ctx context.Context, d Delivery) error
}

// Handler resolves notification jobs against the entity store and hands them
// to a Deliverer. A missing task or recipient is a terminal failure: the
// referenced entity will not materialize later.
type Handler struct {
	tasks     repository.TaskRepo
	users     repository.UserRepo
	deliverer Deliverer
	log       zerolog.Logger
}

func NewHandler(tasks repository.TaskRepo, users repository.UserRepo, deliverer Deliverer, log zerolog.Logger) *Handler {
	return &Handler{tasks: tasks, users: users, deliverer: deliverer, log: log}
}

// HandleSend is the queue handler for JobName jobs.
func (h *Handler) HandleSend(ctx context.Context, job queue.Job) error {
	var p Payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decoding notification payload: %w", queue.ErrTerminal)
	}

	task, err := h.tasks.GetByID(ctx, p.TaskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.log.Error().Str("task_id", p.TaskID).Str("type", string(p.Type)).
				Msg("notification target task not found")
			return fmt.Errorf("task %s: %w", p.TaskID, queue.ErrTerminal)
		}
		return err
	}

	recipient, err := h.users.GetByID(ctx, p.RecipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.log.Error().Str("recipient_id", p.RecipientID).Str("type", string(p.Type)).
				Msg("notification recipient not found")
			return fmt.Errorf("recipient %s: %w", p.RecipientID, queue.ErrTerminal)
		}
		return err
	}

	if err := h.deliverer.Deliver(ctx, Delivery{
		Task:      task,
		Recipient: recipient,
		Type:      p.Type,
		Data:      p.Data,
	}); err != nil {
		if errors.Is(err, ErrPermanentDelivery) {
			return fmt.Errorf("delivering %s to %s: %w", p.Type, recipient.Email, queue.ErrTerminal)
		}
		// Transient and unclassified failures go back through the retry path.
		return fmt.Errorf("delivering %s to %s: %w", p.Type, recipient.Email, err)
	}

	h.log.Info().Str("type", string(p.Type)).Str("recipient", recipient.Email).
		Str("task", task.Name).Msg("notification delivered")
	return nil
}

// LogDeliverer writes notifications to the log. It stands in for a real
// email/chat integration, mirroring what the backend ships with today.
type LogDeliverer struct {
	log zerolog.Logger
}

func NewLogDeliverer(log zerolog.Logger) *LogDeliverer {
	return &LogDeliverer{log: log}
}

func (d *LogDeliverer) Deliver(_ context.Context, dl Delivery) error {
	d.log.Info().
		Str("type", string(dl.Type)).
		Str("recipient", dl.Recipient.Email).
		Str("task", dl.Task.Name).
		Interface("data", dl.Data).
		Msg("notification")
	return nil
}
