package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmottanelli/clareza/internal/automation"
	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/notify"
	"github.com/rmottanelli/clareza/internal/repository"
)

const dueDateFormat = "2006-01-02"

type dueDateService struct {
	conn       db.DBTX
	engine     *automation.Engine
	dispatcher *notify.Dispatcher
	log        zerolog.Logger
}

func NewDueDateService(conn db.DBTX, engine *automation.Engine, dispatcher *notify.Dispatcher, log zerolog.Logger) DueDateService {
	return &dueDateService{conn: conn, engine: engine, dispatcher: dispatcher, log: log}
}

// CheckDueDates scans open tasks due tomorrow and tasks already past due.
// Assignees get a notification per task and each task feeds the matching
// trigger into the automation pipeline. Per-task failures are logged and do
// not stop the scan.
func (s *dueDateService) CheckDueDates(ctx context.Context) (*DueDateReport, error) {
	tasks := repository.NewSQLiteTaskRepo(s.conn)
	now := time.Now().UTC()
	report := &DueDateReport{}

	// The window is inclusive on both ends; a single day scans as [d, d].
	tomorrow := now.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	dueSoon, err := tasks.ListDueBetween(ctx, tomorrow, tomorrow)
	if err != nil {
		return nil, err
	}
	for _, t := range dueSoon {
		s.handle(ctx, t, notify.TypeTaskDueSoon, domain.TriggerDueDateApproach)
		report.DueSoon++
	}

	overdue, err := tasks.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, t := range overdue {
		s.handle(ctx, t, notify.TypeTaskOverdue, domain.TriggerTaskOverdue)
		report.Overdue++
	}

	s.log.Info().Int("due_soon", report.DueSoon).Int("overdue", report.Overdue).
		Msg("due date scan complete")
	return report, nil
}

func (s *dueDateService) handle(ctx context.Context, t *domain.Task, notifyType notify.Type, trigger domain.TriggerType) {
	data := map[string]any{}
	if t.DueOn != nil {
		data["due_on"] = t.DueOn.Format(dueDateFormat)
	}

	if t.AssigneeID != nil {
		if err := s.dispatcher.Send(ctx, t.ID, notifyType, *t.AssigneeID, data); err != nil {
			s.log.Error().Err(err).Str("task_id", t.ID).Msg("enqueuing due date notification failed")
		}
	}

	var projectID *string
	ids, err := repository.NewSQLiteTaskRepo(s.conn).ProjectIDs(ctx, t.ID)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", t.ID).Msg("resolving task projects failed")
	} else if len(ids) > 0 {
		projectID = &ids[0]
	}

	err = s.engine.Enqueue(ctx, automation.Event{
		Type:        trigger,
		TargetID:    t.ID,
		TargetType:  "task",
		WorkspaceID: t.WorkspaceID,
		ProjectID:   projectID,
		Data:        data,
	})
	if err != nil {
		s.log.Error().Err(err).Str("task_id", t.ID).Str("trigger", string(trigger)).
			Msg("enqueuing due date event failed")
	}
}
