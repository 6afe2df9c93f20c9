package domain

import "time"

type TriggerType string

const (
	TriggerTaskCreated       TriggerType = "task_created"
	TriggerTaskCompleted     TriggerType = "task_completed"
	TriggerTaskAssigned      TriggerType = "task_assigned"
	TriggerTaskMoved         TriggerType = "task_moved"
	TriggerFieldChanged      TriggerType = "field_changed"
	TriggerDueDateApproach   TriggerType = "due_date_approaching"
	TriggerTaskOverdue       TriggerType = "task_overdue"
	TriggerDependencyAdded   TriggerType = "dependency_added"
	TriggerDependencyRemoved TriggerType = "dependency_removed"
)

// ValidTriggerTypes is the canonical set of accepted trigger type strings.
var ValidTriggerTypes = map[TriggerType]bool{
	TriggerTaskCreated:       true,
	TriggerTaskCompleted:     true,
	TriggerTaskAssigned:      true,
	TriggerTaskMoved:         true,
	TriggerFieldChanged:      true,
	TriggerDueDateApproach:   true,
	TriggerTaskOverdue:       true,
	TriggerDependencyAdded:   true,
	TriggerDependencyRemoved: true,
}

type ActionType string

const (
	ActionMoveToSection    ActionType = "move_to_section"
	ActionAssignTask       ActionType = "assign_task"
	ActionMarkComplete     ActionType = "mark_complete"
	ActionAddToProject     ActionType = "add_to_project"
	ActionSetDueDate       ActionType = "set_due_date"
	ActionAddComment       ActionType = "add_comment"
	ActionSendNotification ActionType = "send_notification"
)

// ValidActionTypes is the canonical set of accepted action type strings.
var ValidActionTypes = map[ActionType]bool{
	ActionMoveToSection:    true,
	ActionAssignTask:       true,
	ActionMarkComplete:     true,
	ActionAddToProject:     true,
	ActionSetDueDate:       true,
	ActionAddComment:       true,
	ActionSendNotification: true,
}

// ConditionKeys lists the task fields a rule condition may reference.
// Anything outside this set fails closed at evaluation time.
var ConditionKeys = map[string]bool{
	"assignee_id": true,
	"section_id":  true,
	"completed":   true,
}

// AutomationRule maps a trigger to an action within one project.
// Conditions form a conjunction of equality checks against the target task;
// an empty condition set always matches.
type AutomationRule struct {
	ID         string
	ProjectID  string
	Name       string
	Trigger    TriggerType
	Conditions map[string]any
	Action     ActionType
	Params     map[string]any
	Active     bool
	CreatedAt  time.Time
}
