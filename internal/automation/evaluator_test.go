package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/testutil"
)

func TestMatchesEmptyConditions(t *testing.T) {
	rule := testutil.NewTestRule("p-1", domain.TriggerTaskCreated, domain.ActionMarkComplete)
	task := testutil.NewTestTask("ws-1", "anything")

	ok, err := matches(rule, task)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchesAssignee(t *testing.T) {
	rule := testutil.NewTestRule("p-1", domain.TriggerTaskCreated, domain.ActionMarkComplete,
		testutil.WithConditions(map[string]any{"assignee_id": "u-1"}))

	ok, err := matches(rule, testutil.NewTestTask("ws-1", "t", testutil.WithAssignee("u-1")))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches(rule, testutil.NewTestTask("ws-1", "t", testutil.WithAssignee("u-2")))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = matches(rule, testutil.NewTestTask("ws-1", "t"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesNilConditionMeansUnset(t *testing.T) {
	rule := testutil.NewTestRule("p-1", domain.TriggerTaskCreated, domain.ActionMarkComplete,
		testutil.WithConditions(map[string]any{"assignee_id": nil}))

	ok, err := matches(rule, testutil.NewTestTask("ws-1", "t"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches(rule, testutil.NewTestTask("ws-1", "t", testutil.WithAssignee("u-1")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesSection(t *testing.T) {
	rule := testutil.NewTestRule("p-1", domain.TriggerTaskMoved, domain.ActionMarkComplete,
		testutil.WithConditions(map[string]any{"section_id": "s-1"}))

	ok, err := matches(rule, testutil.NewTestTask("ws-1", "t", testutil.WithSection("s-1")))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches(rule, testutil.NewTestTask("ws-1", "t", testutil.WithSection("s-2")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesCompleted(t *testing.T) {
	rule := testutil.NewTestRule("p-1", domain.TriggerFieldChanged, domain.ActionMarkComplete,
		testutil.WithConditions(map[string]any{"completed": false}))

	ok, err := matches(rule, testutil.NewTestTask("ws-1", "t"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches(rule, testutil.NewTestTask("ws-1", "t", testutil.WithCompleted()))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesConjunction(t *testing.T) {
	rule := testutil.NewTestRule("p-1", domain.TriggerTaskCreated, domain.ActionMarkComplete,
		testutil.WithConditions(map[string]any{"assignee_id": "u-1", "section_id": "s-1"}))

	ok, err := matches(rule, testutil.NewTestTask("ws-1", "t",
		testutil.WithAssignee("u-1"), testutil.WithSection("s-1")))
	require.NoError(t, err)
	assert.True(t, ok)

	// One leg failing fails the whole rule.
	ok, err = matches(rule, testutil.NewTestTask("ws-1", "t", testutil.WithAssignee("u-1")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesUnknownKeyFailsClosed(t *testing.T) {
	rule := testutil.NewTestRule("p-1", domain.TriggerTaskCreated, domain.ActionMarkComplete,
		testutil.WithConditions(map[string]any{"priority": "high"}))

	ok, err := matches(rule, testutil.NewTestTask("ws-1", "t"))
	assert.ErrorIs(t, err, ErrInvalidCondition)
	assert.False(t, ok)
}

func TestMatchesWrongValueType(t *testing.T) {
	rule := testutil.NewTestRule("p-1", domain.TriggerTaskCreated, domain.ActionMarkComplete,
		testutil.WithConditions(map[string]any{"completed": "yes"}))

	ok, err := matches(rule, testutil.NewTestTask("ws-1", "t"))
	require.NoError(t, err)
	assert.False(t, ok)
}
