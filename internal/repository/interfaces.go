package repository

import (
	"context"
	"time"

	"github.com/rmottanelli/clareza/internal/domain"
)

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error

	ProjectIDs(ctx context.Context, taskID string) ([]string, error)
	AddToProject(ctx context.Context, taskID, projectID string) error
	RemoveFromProject(ctx context.Context, taskID, projectID string) error
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error

	CreateSection(ctx context.Context, s *domain.Section) error
	GetSection(ctx context.Context, id string) (*domain.Section, error)
	ListSections(ctx context.Context, projectID string) ([]*domain.Section, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	CreateWorkspace(ctx context.Context, w *domain.Workspace) error
	GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error)
}

type RuleRepo interface {
	Create(ctx context.Context, r *domain.AutomationRule) error
	GetByID(ctx context.Context, id string) (*domain.AutomationRule, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.AutomationRule, error)
	// ListActive returns active rules for (project, trigger) in creation order.
	ListActive(ctx context.Context, projectID string, trigger domain.TriggerType) ([]*domain.AutomationRule, error)
	Update(ctx context.Context, r *domain.AutomationRule) error
	Deactivate(ctx context.Context, id string) error
}

type DependencyRepo interface {
	Create(ctx context.Context, d *domain.Dependency) error
	Delete(ctx context.Context, dependentID, dependencyID string) error
	Exists(ctx context.Context, dependentID, dependencyID string) (bool, error)
	// ListDependencies returns edges where taskID is the dependent
	// (tasks it waits on); ListDependents is the reverse view.
	ListDependencies(ctx context.Context, taskID string) ([]domain.Dependency, error)
	ListDependents(ctx context.Context, taskID string) ([]domain.Dependency, error)
}

// ActivityFilter narrows an activity feed query. Zero values mean "no filter";
// Since bounds the window and Limit/Offset page the result.
type ActivityFilter struct {
	WorkspaceID string
	ProjectID   string
	ActorID     string
	EventType   domain.EventType
	Since       time.Time
	Limit       int
	Offset      int
}

type ActivityRepo interface {
	Create(ctx context.Context, a *domain.ActivityRecord) error
	List(ctx context.Context, f ActivityFilter) ([]*domain.ActivityRecord, error)
	// DeleteOlderThan removes records created before cutoff and reports
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
