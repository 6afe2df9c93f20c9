package automation

import (
	"fmt"
	"time"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/notify"
)

// Action is the closed union of automation effects. Each variant carries its
// own typed parameters; ParseAction is the only constructor, so an unknown
// action type can never reach the executor silently.
type Action interface {
	actionType() domain.ActionType
}

type MoveToSection struct {
	SectionID string
}

type AssignTask struct {
	// AssigneeID nil unassigns the task.
	AssigneeID *string
}

type MarkComplete struct{}

type AddToProject struct {
	ProjectID string
}

type SetDueDate struct {
	DueOn time.Time
}

type AddComment struct {
	Text string
}

type SendNotification struct {
	Type notify.Type
	// RecipientID empty falls back to the target task's assignee.
	RecipientID string
}

func (MoveToSection) actionType() domain.ActionType    { return domain.ActionMoveToSection }
func (AssignTask) actionType() domain.ActionType       { return domain.ActionAssignTask }
func (MarkComplete) actionType() domain.ActionType     { return domain.ActionMarkComplete }
func (AddToProject) actionType() domain.ActionType     { return domain.ActionAddToProject }
func (SetDueDate) actionType() domain.ActionType       { return domain.ActionSetDueDate }
func (AddComment) actionType() domain.ActionType       { return domain.ActionAddComment }
func (SendNotification) actionType() domain.ActionType { return domain.ActionSendNotification }

const dueDateLayout = "2006-01-02"

// ParseAction builds the typed action for a rule from its parameter map.
func ParseAction(t domain.ActionType, params map[string]any) (Action, error) {
	switch t {
	case domain.ActionMoveToSection:
		sectionID, ok := stringParam(params, "section_id")
		if !ok {
			return nil, fmt.Errorf("move_to_section requires section_id")
		}
		return MoveToSection{SectionID: sectionID}, nil

	case domain.ActionAssignTask:
		if assigneeID, ok := stringParam(params, "assignee_id"); ok {
			return AssignTask{AssigneeID: &assigneeID}, nil
		}
		return AssignTask{}, nil

	case domain.ActionMarkComplete:
		return MarkComplete{}, nil

	case domain.ActionAddToProject:
		projectID, ok := stringParam(params, "project_id")
		if !ok {
			return nil, fmt.Errorf("add_to_project requires project_id")
		}
		return AddToProject{ProjectID: projectID}, nil

	case domain.ActionSetDueDate:
		raw, ok := stringParam(params, "due_date")
		if !ok {
			return nil, fmt.Errorf("set_due_date requires due_date: %w", ErrInvalidDate)
		}
		due, err := time.Parse(dueDateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing due_date %q: %w", raw, ErrInvalidDate)
		}
		return SetDueDate{DueOn: due}, nil

	case domain.ActionAddComment:
		text, ok := stringParam(params, "text")
		if !ok {
			return nil, fmt.Errorf("add_comment requires text")
		}
		return AddComment{Text: text}, nil

	case domain.ActionSendNotification:
		typ, ok := stringParam(params, "notification_type")
		if !ok {
			return nil, fmt.Errorf("send_notification requires notification_type")
		}
		recipientID, _ := stringParam(params, "recipient_id")
		return SendNotification{Type: notify.Type(typ), RecipientID: recipientID}, nil

	default:
		return nil, fmt.Errorf("%q: %w", t, ErrUnknownAction)
	}
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
