package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/notify"
)

func TestParseActionMoveToSection(t *testing.T) {
	a, err := ParseAction(domain.ActionMoveToSection, map[string]any{"section_id": "s-1"})
	require.NoError(t, err)
	assert.Equal(t, MoveToSection{SectionID: "s-1"}, a)

	_, err = ParseAction(domain.ActionMoveToSection, nil)
	assert.Error(t, err)
}

func TestParseActionAssignTask(t *testing.T) {
	a, err := ParseAction(domain.ActionAssignTask, map[string]any{"assignee_id": "u-1"})
	require.NoError(t, err)
	assign, ok := a.(AssignTask)
	require.True(t, ok)
	require.NotNil(t, assign.AssigneeID)
	assert.Equal(t, "u-1", *assign.AssigneeID)

	// No assignee parameter means unassign.
	a, err = ParseAction(domain.ActionAssignTask, nil)
	require.NoError(t, err)
	assign, ok = a.(AssignTask)
	require.True(t, ok)
	assert.Nil(t, assign.AssigneeID)
}

func TestParseActionMarkComplete(t *testing.T) {
	a, err := ParseAction(domain.ActionMarkComplete, nil)
	require.NoError(t, err)
	assert.Equal(t, MarkComplete{}, a)
}

func TestParseActionAddToProject(t *testing.T) {
	a, err := ParseAction(domain.ActionAddToProject, map[string]any{"project_id": "p-1"})
	require.NoError(t, err)
	assert.Equal(t, AddToProject{ProjectID: "p-1"}, a)

	_, err = ParseAction(domain.ActionAddToProject, map[string]any{})
	assert.Error(t, err)
}

func TestParseActionSetDueDate(t *testing.T) {
	a, err := ParseAction(domain.ActionSetDueDate, map[string]any{"due_date": "2026-09-15"})
	require.NoError(t, err)
	set, ok := a.(SetDueDate)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), set.DueOn)
}

func TestParseActionSetDueDateInvalid(t *testing.T) {
	_, err := ParseAction(domain.ActionSetDueDate, map[string]any{"due_date": "15/09/2026"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseAction(domain.ActionSetDueDate, nil)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseActionAddComment(t *testing.T) {
	a, err := ParseAction(domain.ActionAddComment, map[string]any{"text": "done by rule"})
	require.NoError(t, err)
	assert.Equal(t, AddComment{Text: "done by rule"}, a)

	_, err = ParseAction(domain.ActionAddComment, map[string]any{"text": ""})
	assert.Error(t, err)
}

func TestParseActionSendNotification(t *testing.T) {
	a, err := ParseAction(domain.ActionSendNotification, map[string]any{
		"notification_type": "task_due_soon",
		"recipient_id":      "u-2",
	})
	require.NoError(t, err)
	assert.Equal(t, SendNotification{Type: notify.TypeTaskDueSoon, RecipientID: "u-2"}, a)

	// Recipient is optional; the executor falls back to the assignee.
	a, err = ParseAction(domain.ActionSendNotification, map[string]any{"notification_type": "task_overdue"})
	require.NoError(t, err)
	assert.Equal(t, SendNotification{Type: notify.TypeTaskOverdue}, a)
}

func TestParseActionUnknown(t *testing.T) {
	_, err := ParseAction(domain.ActionType("explode"), nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
