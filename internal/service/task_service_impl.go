package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmottanelli/clareza/internal/automation"
	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/graph"
	"github.com/rmottanelli/clareza/internal/notify"
	"github.com/rmottanelli/clareza/internal/repository"
)

type taskService struct {
	conn       db.DBTX
	uow        db.UnitOfWork
	engine     *automation.Engine
	deps       *graph.Manager
	dispatcher *notify.Dispatcher
	log        zerolog.Logger
	observer   UseCaseObserver
}

func NewTaskService(
	conn db.DBTX,
	uow db.UnitOfWork,
	engine *automation.Engine,
	deps *graph.Manager,
	dispatcher *notify.Dispatcher,
	log zerolog.Logger,
	observers ...UseCaseObserver,
) TaskService {
	return &taskService{
		conn:       conn,
		uow:        uow,
		engine:     engine,
		deps:       deps,
		dispatcher: dispatcher,
		log:        log,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *taskService) Create(ctx context.Context, t *domain.Task, projectID *string, actorID *string) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.ModifiedAt = now

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		if err := tasks.Create(ctx, t); err != nil {
			return err
		}
		if projectID != nil {
			projects := repository.NewSQLiteProjectRepo(tx)
			if _, err := projects.GetByID(ctx, *projectID); err != nil {
				return fmt.Errorf("placing task in project %s: %w", *projectID, err)
			}
			if err := tasks.AddToProject(ctx, t.ID, *projectID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.emit(ctx, automation.Event{
		Type:        domain.TriggerTaskCreated,
		TargetID:    t.ID,
		TargetType:  "task",
		ActorID:     actorID,
		WorkspaceID: t.WorkspaceID,
		ProjectID:   projectID,
	})
}

func (s *taskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return repository.NewSQLiteTaskRepo(s.conn).GetByID(ctx, id)
}

func (s *taskService) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	return repository.NewSQLiteTaskRepo(s.conn).ListByProject(ctx, projectID)
}

// Update persists the given task state and classifies what changed against
// the stored state: an assignee change emits task_assigned, a section change
// emits task_moved, and any other difference emits one field_changed event
// naming the fields. Completion does not flow through here; use Complete.
func (s *taskService) Update(ctx context.Context, t *domain.Task, actorID *string) error {
	var (
		assigneeChanged bool
		sectionChanged  bool
		changedFields   []string
	)

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		before, err := tasks.GetByID(ctx, t.ID)
		if err != nil {
			return err
		}

		assigneeChanged = !sameRef(before.AssigneeID, t.AssigneeID)
		sectionChanged = !sameRef(before.SectionID, t.SectionID)
		if before.Name != t.Name {
			changedFields = append(changedFields, "name")
		}
		if before.Notes != t.Notes {
			changedFields = append(changedFields, "notes")
		}
		if !sameTime(before.DueOn, t.DueOn) {
			changedFields = append(changedFields, "due_on")
		}
		if !sameTime(before.StartOn, t.StartOn) {
			changedFields = append(changedFields, "start_on")
		}
		if !sameRef(before.ParentID, t.ParentID) {
			changedFields = append(changedFields, "parent_id")
		}

		// Completion state is owned by Complete; keep the stored value.
		t.Completed = before.Completed
		t.CompletedAt = before.CompletedAt
		t.CreatedAt = before.CreatedAt
		t.ModifiedAt = time.Now().UTC()
		return tasks.Update(ctx, t)
	})
	if err != nil {
		return err
	}

	projectID, err := s.primaryProject(ctx, t.ID)
	if err != nil {
		return err
	}

	base := automation.Event{
		TargetID:    t.ID,
		TargetType:  "task",
		ActorID:     actorID,
		WorkspaceID: t.WorkspaceID,
		ProjectID:   projectID,
	}
	if assigneeChanged {
		ev := base
		ev.Type = domain.TriggerTaskAssigned
		ev.Data = map[string]any{"assignee_id": derefOrNil(t.AssigneeID)}
		if err := s.emit(ctx, ev); err != nil {
			return err
		}
		if t.AssigneeID != nil {
			s.notifyAssigned(ctx, t.ID, *t.AssigneeID)
		}
	}
	if sectionChanged {
		ev := base
		ev.Type = domain.TriggerTaskMoved
		ev.Data = map[string]any{"section_id": derefOrNil(t.SectionID)}
		if err := s.emit(ctx, ev); err != nil {
			return err
		}
	}
	if len(changedFields) > 0 {
		ev := base
		ev.Type = domain.TriggerFieldChanged
		ev.Data = map[string]any{"fields": changedFields}
		if err := s.emit(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Complete marks the task done. Completing an already-complete task is a
// no-op: no second event, no second notification fan-out.
func (s *taskService) Complete(ctx context.Context, id string, actorID *string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "complete-task",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    map[string]any{"task_id": id},
		})
	}()

	var (
		task        *domain.Task
		alreadyDone bool
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		t, err := tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t.Completed {
			alreadyDone = true
			return nil
		}
		now := time.Now().UTC()
		t.Completed = true
		t.CompletedAt = &now
		t.ModifiedAt = now
		if err := tasks.Update(ctx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil || alreadyDone {
		return err
	}

	projectID, err := s.primaryProject(ctx, id)
	if err != nil {
		return err
	}
	s.engine.OnTaskCompleted(ctx, task, actorID, projectID, 0)
	return nil
}

func (s *taskService) Assign(ctx context.Context, id string, assigneeID *string, actorID *string) error {
	var task *domain.Task
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		t, err := tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if assigneeID != nil {
			users := repository.NewSQLiteUserRepo(tx)
			if _, err := users.GetByID(ctx, *assigneeID); err != nil {
				return fmt.Errorf("assigning to user %s: %w", *assigneeID, err)
			}
		}
		t.AssigneeID = assigneeID
		t.ModifiedAt = time.Now().UTC()
		if err := tasks.Update(ctx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return err
	}

	projectID, err := s.primaryProject(ctx, id)
	if err != nil {
		return err
	}
	if err := s.emit(ctx, automation.Event{
		Type:        domain.TriggerTaskAssigned,
		TargetID:    id,
		TargetType:  "task",
		ActorID:     actorID,
		WorkspaceID: task.WorkspaceID,
		ProjectID:   projectID,
		Data:        map[string]any{"assignee_id": derefOrNil(assigneeID)},
	}); err != nil {
		return err
	}
	if assigneeID != nil {
		s.notifyAssigned(ctx, id, *assigneeID)
	}
	return nil
}

func (s *taskService) MoveToSection(ctx context.Context, id, sectionID string, actorID *string) error {
	var task *domain.Task
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		projects := repository.NewSQLiteProjectRepo(tx)

		t, err := tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := projects.GetSection(ctx, sectionID); err != nil {
			return fmt.Errorf("moving to section %s: %w", sectionID, err)
		}
		t.SectionID = &sectionID
		t.ModifiedAt = time.Now().UTC()
		if err := tasks.Update(ctx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return err
	}

	projectID, err := s.primaryProject(ctx, id)
	if err != nil {
		return err
	}
	return s.emit(ctx, automation.Event{
		Type:        domain.TriggerTaskMoved,
		TargetID:    id,
		TargetType:  "task",
		ActorID:     actorID,
		WorkspaceID: task.WorkspaceID,
		ProjectID:   projectID,
		Data:        map[string]any{"section_id": sectionID},
	})
}

func (s *taskService) AddToProject(ctx context.Context, taskID, projectID string, actorID *string) error {
	var task *domain.Task
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		projects := repository.NewSQLiteProjectRepo(tx)

		t, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if _, err := projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		if err := tasks.AddToProject(ctx, taskID, projectID); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return err
	}

	return s.emit(ctx, automation.Event{
		Type:        domain.TriggerFieldChanged,
		TargetID:    taskID,
		TargetType:  "task",
		ActorID:     actorID,
		WorkspaceID: task.WorkspaceID,
		ProjectID:   &projectID,
		Data:        map[string]any{"fields": []string{"projects"}},
	})
}

func (s *taskService) RemoveFromProject(ctx context.Context, taskID, projectID string, actorID *string) error {
	var task *domain.Task
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		t, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if err := tasks.RemoveFromProject(ctx, taskID, projectID); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return err
	}

	return s.emit(ctx, automation.Event{
		Type:        domain.TriggerFieldChanged,
		TargetID:    taskID,
		TargetType:  "task",
		ActorID:     actorID,
		WorkspaceID: task.WorkspaceID,
		ProjectID:   &projectID,
		Data:        map[string]any{"fields": []string{"projects"}},
	})
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	return repository.NewSQLiteTaskRepo(s.conn).Delete(ctx, id)
}

// AddDependency records that dependentID is blocked by dependencyID, then
// emits a dependency_added event for the dependent. Cycle and duplicate
// checks live in the graph manager; their errors pass through unchanged.
func (s *taskService) AddDependency(ctx context.Context, dependentID, dependencyID string, actorID *string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "add-dependency",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields: map[string]any{
				"dependent_task_id":  dependentID,
				"dependency_task_id": dependencyID,
			},
		})
	}()

	if err = s.deps.AddDependency(ctx, dependentID, dependencyID); err != nil {
		return err
	}
	return s.emitDependencyEvent(ctx, domain.TriggerDependencyAdded, dependentID, dependencyID, actorID)
}

func (s *taskService) RemoveDependency(ctx context.Context, dependentID, dependencyID string, actorID *string) error {
	if err := s.deps.RemoveDependency(ctx, dependentID, dependencyID); err != nil {
		return err
	}
	return s.emitDependencyEvent(ctx, domain.TriggerDependencyRemoved, dependentID, dependencyID, actorID)
}

func (s *taskService) Dependencies(ctx context.Context, taskID string) ([]string, error) {
	return s.deps.DependenciesOf(ctx, taskID)
}

func (s *taskService) Dependents(ctx context.Context, taskID string) ([]string, error) {
	return s.deps.DependentsOf(ctx, taskID)
}

func (s *taskService) emitDependencyEvent(ctx context.Context, trigger domain.TriggerType, dependentID, dependencyID string, actorID *string) error {
	task, err := repository.NewSQLiteTaskRepo(s.conn).GetByID(ctx, dependentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	projectID, err := s.primaryProject(ctx, dependentID)
	if err != nil {
		return err
	}
	return s.emit(ctx, automation.Event{
		Type:        trigger,
		TargetID:    dependentID,
		TargetType:  "task",
		ActorID:     actorID,
		WorkspaceID: task.WorkspaceID,
		ProjectID:   projectID,
		Data:        map[string]any{"dependency_task_id": dependencyID},
	})
}

func (s *taskService) emit(ctx context.Context, ev automation.Event) error {
	if err := s.engine.Enqueue(ctx, ev); err != nil {
		return fmt.Errorf("enqueuing %s event: %w", ev.Type, err)
	}
	return nil
}

// notifyAssigned tells the new assignee about their task. Best effort; the
// assignment itself has already committed.
func (s *taskService) notifyAssigned(ctx context.Context, taskID, assigneeID string) {
	if err := s.dispatcher.Send(ctx, taskID, notify.TypeTaskAssigned, assigneeID, nil); err != nil {
		s.log.Error().Err(err).Str("task_id", taskID).Msg("enqueuing assignment notification failed")
	}
}

// primaryProject picks the event project for a task in several projects:
// the first membership in insertion order, nil when the task is in none.
func (s *taskService) primaryProject(ctx context.Context, taskID string) (*string, error) {
	ids, err := repository.NewSQLiteTaskRepo(s.conn).ProjectIDs(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
