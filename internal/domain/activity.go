package domain

import "time"

type EventType string

const (
	EventTaskCreated       EventType = "task_created"
	EventTaskUpdated       EventType = "task_updated"
	EventTaskCompleted     EventType = "task_completed"
	EventTaskAssigned      EventType = "task_assigned"
	EventTaskMoved         EventType = "task_moved"
	EventFieldChanged      EventType = "field_changed"
	EventDependencyAdded   EventType = "dependency_added"
	EventDependencyRemoved EventType = "dependency_removed"
	EventCommentAdded      EventType = "comment_added"
)

// ActivityRecord is an immutable audit-log entry for a processed event.
// Records are append-only; the only deletion path is the age-based
// retention sweep.
type ActivityRecord struct {
	ID          string
	EventType   EventType
	ActorID     *string
	TargetID    string
	TargetType  string
	ProjectID   *string
	WorkspaceID string
	Data        map[string]any
	CreatedAt   time.Time
}
