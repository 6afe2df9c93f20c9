package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rmottanelli/clareza/internal/domain"
)

var testEmailCounter atomic.Int64

func NewTestWorkspace(name string) *domain.Workspace {
	return &domain.Workspace{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

func NewTestUser(name string) *domain.User {
	n := testEmailCounter.Add(1)
	return &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     fmt.Sprintf("%s%d@example.com", name, n),
		CreatedAt: time.Now().UTC(),
	}
}

// Project options
type ProjectOption func(*domain.Project)

func WithOwner(userID string) ProjectOption {
	return func(p *domain.Project) {
		p.OwnerID = &userID
	}
}

func WithArchived() ProjectOption {
	return func(p *domain.Project) {
		p.Archived = true
	}
}

func NewTestProject(workspaceID, name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Name:        name,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestSection(projectID, name string) *domain.Section {
	return &domain.Section{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// Task options
type TaskOption func(*domain.Task)

func WithAssignee(userID string) TaskOption {
	return func(t *domain.Task) {
		t.AssigneeID = &userID
	}
}

func WithSection(sectionID string) TaskOption {
	return func(t *domain.Task) {
		t.SectionID = &sectionID
	}
}

func WithDueOn(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.DueOn = &d
	}
}

func WithParent(taskID string) TaskOption {
	return func(t *domain.Task) {
		t.ParentID = &taskID
	}
}

func WithCompleted() TaskOption {
	return func(t *domain.Task) {
		now := time.Now().UTC()
		t.Completed = true
		t.CompletedAt = &now
	}
}

func NewTestTask(workspaceID, name string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:          uuid.New().String(),
		Name:        name,
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Rule options
type RuleOption func(*domain.AutomationRule)

func WithConditions(c map[string]any) RuleOption {
	return func(r *domain.AutomationRule) {
		r.Conditions = c
	}
}

func WithParams(p map[string]any) RuleOption {
	return func(r *domain.AutomationRule) {
		r.Params = p
	}
}

func WithInactive() RuleOption {
	return func(r *domain.AutomationRule) {
		r.Active = false
	}
}

func NewTestRule(projectID string, trigger domain.TriggerType, action domain.ActionType, opts ...RuleOption) *domain.AutomationRule {
	r := &domain.AutomationRule{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      fmt.Sprintf("%s -> %s", trigger, action),
		Trigger:   trigger,
		Action:    action,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
