package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/notify"
	"github.com/rmottanelli/clareza/internal/repository"
)

// pendingSend is a notification deferred until the rule's transaction has
// committed; sending is never synchronous with the mutation.
type pendingSend struct {
	taskID      string
	typ         notify.Type
	recipientID string
	data        map[string]any
}

// execute applies one rule's action to the event target. All mutations for
// the rule commit in a single transaction; notifications and chained events
// go out only after the commit.
func (e *Engine) execute(ctx context.Context, rule *domain.AutomationRule, ev Event) error {
	action, err := ParseAction(rule.Action, rule.Params)
	if err != nil {
		return err
	}

	var (
		sends         []pendingSend
		completedTask *domain.Task
	)

	err = e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		projects := repository.NewSQLiteProjectRepo(tx)

		task, err := tasks.GetByID(ctx, ev.TargetID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		switch a := action.(type) {
		case MoveToSection:
			if _, err := projects.GetSection(ctx, a.SectionID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					e.log.Debug().Str("rule_id", rule.ID).Str("section_id", a.SectionID).
						Msg("move_to_section target section missing, skipping")
					return nil
				}
				return err
			}
			task.SectionID = &a.SectionID
			task.ModifiedAt = now
			return tasks.Update(ctx, task)

		case AssignTask:
			task.AssigneeID = a.AssigneeID
			task.ModifiedAt = now
			if err := tasks.Update(ctx, task); err != nil {
				return err
			}
			if a.AssigneeID != nil {
				sends = append(sends, pendingSend{
					taskID:      task.ID,
					typ:         notify.TypeTaskAssigned,
					recipientID: *a.AssigneeID,
				})
			}
			return nil

		case MarkComplete:
			if task.Completed {
				// Idempotent: no second completion, no second fan-out.
				return nil
			}
			task.Completed = true
			task.CompletedAt = &now
			task.ModifiedAt = now
			if err := tasks.Update(ctx, task); err != nil {
				return err
			}
			completedTask = task
			return nil

		case AddToProject:
			if _, err := projects.GetByID(ctx, a.ProjectID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					e.log.Debug().Str("rule_id", rule.ID).Str("project_id", a.ProjectID).
						Msg("add_to_project target project missing, skipping")
					return nil
				}
				return err
			}
			if err := tasks.AddToProject(ctx, task.ID, a.ProjectID); err != nil {
				return err
			}
			task.ModifiedAt = now
			return tasks.Update(ctx, task)

		case SetDueDate:
			task.DueOn = &a.DueOn
			task.ModifiedAt = now
			return tasks.Update(ctx, task)

		case AddComment:
			records := repository.NewSQLiteActivityRepo(tx)
			return records.Create(ctx, &domain.ActivityRecord{
				ID:          uuid.New().String(),
				EventType:   domain.EventCommentAdded,
				ActorID:     ev.ActorID,
				TargetID:    task.ID,
				TargetType:  "task",
				ProjectID:   ev.ProjectID,
				WorkspaceID: task.WorkspaceID,
				Data:        map[string]any{"text": a.Text, "rule_id": rule.ID},
				CreatedAt:   now,
			})

		case SendNotification:
			recipient := a.RecipientID
			if recipient == "" && task.AssigneeID != nil {
				recipient = *task.AssigneeID
			}
			if recipient == "" {
				e.log.Debug().Str("rule_id", rule.ID).Msg("send_notification has no recipient, skipping")
				return nil
			}
			sends = append(sends, pendingSend{
				taskID:      task.ID,
				typ:         a.Type,
				recipientID: recipient,
				data:        map[string]any{"rule_id": rule.ID},
			})
			return nil

		default:
			// ParseAction guarantees the closed set; this is unreachable.
			return fmt.Errorf("%T: %w", action, ErrUnknownAction)
		}
	})
	if err != nil {
		return err
	}

	for _, s := range sends {
		if err := e.dispatcher.Send(ctx, s.taskID, s.typ, s.recipientID, s.data); err != nil {
			e.log.Error().Err(err).Str("rule_id", rule.ID).Msg("enqueuing rule notification failed")
		}
	}

	if completedTask != nil {
		// Automation-triggered completions re-enter the pipeline so rules
		// can chain, one depth level further in.
		e.OnTaskCompleted(ctx, completedTask, ev.ActorID, ev.ProjectID, ev.ChainDepth+1)
	}
	return nil
}
