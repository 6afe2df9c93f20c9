package domain

import "time"

type Task struct {
	ID          string
	Name        string
	Notes       string
	AssigneeID  *string
	Completed   bool
	CompletedAt *time.Time

	// Constraints
	DueOn   *time.Time
	StartOn *time.Time

	// Placement
	ParentID    *string
	SectionID   *string
	WorkspaceID string

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// IsOverdue reports whether the task has an elapsed due date and is not done.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueOn != nil && t.DueOn.Before(now.Truncate(24*time.Hour))
}

// IsDueSoon reports whether the task is due within the given horizon and is not done.
func (t *Task) IsDueSoon(now time.Time, horizon time.Duration) bool {
	if t.Completed || t.DueOn == nil {
		return false
	}
	return !t.DueOn.Before(now.Truncate(24*time.Hour)) && t.DueOn.Before(now.Add(horizon))
}
