package service

import (
	"context"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/repository"
)

// TaskService is the write surface for tasks. Every mutation emits the
// matching automation event after its transaction commits; rule evaluation
// itself is asynchronous.
type TaskService interface {
	Create(ctx context.Context, t *domain.Task, projectID *string, actorID *string) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task, actorID *string) error
	Complete(ctx context.Context, id string, actorID *string) error
	Assign(ctx context.Context, id string, assigneeID *string, actorID *string) error
	MoveToSection(ctx context.Context, id, sectionID string, actorID *string) error
	AddToProject(ctx context.Context, taskID, projectID string, actorID *string) error
	RemoveFromProject(ctx context.Context, taskID, projectID string, actorID *string) error
	Delete(ctx context.Context, id string) error

	AddDependency(ctx context.Context, dependentID, dependencyID string, actorID *string) error
	RemoveDependency(ctx context.Context, dependentID, dependencyID string, actorID *string) error
	Dependencies(ctx context.Context, taskID string) ([]string, error)
	Dependents(ctx context.Context, taskID string) ([]string, error)
}

// RuleService manages automation rules. Rules are validated on write so the
// engine never loads a rule with an unknown trigger, action, or condition key.
type RuleService interface {
	Create(ctx context.Context, r *domain.AutomationRule) error
	GetByID(ctx context.Context, id string) (*domain.AutomationRule, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.AutomationRule, error)
	Update(ctx context.Context, r *domain.AutomationRule) error
	Deactivate(ctx context.Context, id string) error
}

// ActivityService reads the activity feed and runs the retention sweep.
type ActivityService interface {
	List(ctx context.Context, f repository.ActivityFilter) ([]*domain.ActivityRecord, error)
	Sweep(ctx context.Context, retentionDays int) (int64, error)
}

// DueDateReport summarizes one due-date scan.
type DueDateReport struct {
	DueSoon int
	Overdue int
}

// DueDateService scans for tasks due tomorrow or already overdue, notifying
// assignees and feeding the matching triggers into the automation pipeline.
// Meant to run on a daily schedule.
type DueDateService interface {
	CheckDueDates(ctx context.Context) (*DueDateReport, error)
}
