package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/testutil"
)

func TestTaskCreateAndGet(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	repo := NewSQLiteTaskRepo(database)

	assignee := seedUser(t, ctx, database, "ana")
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	task := testutil.NewTestTask(ws.ID, "write report",
		testutil.WithAssignee(assignee.ID), testutil.WithDueOn(due))
	task.Notes = "quarterly numbers"
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "write report", got.Name)
	assert.Equal(t, "quarterly numbers", got.Notes)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, assignee.ID, *got.AssigneeID)
	require.NotNil(t, got.DueOn)
	assert.True(t, due.Equal(*got.DueOn))
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
}

func TestTaskGetNotFound(t *testing.T) {
	ctx, database, _, _ := seed(t)

	_, err := NewSQLiteTaskRepo(database).GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskUpdate(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	repo := NewSQLiteTaskRepo(database)
	task := seedTask(t, ctx, database, ws.ID)

	now := time.Now().UTC()
	task.Name = "renamed"
	task.Completed = true
	task.CompletedAt = &now
	task.ModifiedAt = now
	require.NoError(t, repo.Update(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
}

func TestTaskUpdateNotFound(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	task := testutil.NewTestTask(ws.ID, "never stored")

	err := NewSQLiteTaskRepo(database).Update(ctx, task)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskProjectMembership(t *testing.T) {
	ctx, database, ws, project := seed(t)
	repo := NewSQLiteTaskRepo(database)
	task := seedTask(t, ctx, database, ws.ID)

	require.NoError(t, repo.AddToProject(ctx, task.ID, project.ID))
	// Idempotent on repeat.
	require.NoError(t, repo.AddToProject(ctx, task.ID, project.ID))

	ids, err := repo.ProjectIDs(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{project.ID}, ids)

	inProject, err := repo.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, inProject, 1)
	assert.Equal(t, task.ID, inProject[0].ID)

	require.NoError(t, repo.RemoveFromProject(ctx, task.ID, project.ID))
	ids, err = repo.ProjectIDs(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTaskProjectIDsInsertionOrder(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	repo := NewSQLiteTaskRepo(database)
	projects := NewSQLiteProjectRepo(database)
	task := seedTask(t, ctx, database, ws.ID)

	// IDs chosen so alphabetical order would invert insertion order.
	first := testutil.NewTestProject(ws.ID, "launch")
	first.ID = "zz-" + first.ID
	second := testutil.NewTestProject(ws.ID, "backlog")
	second.ID = "aa-" + second.ID
	require.NoError(t, projects.Create(ctx, first))
	require.NoError(t, projects.Create(ctx, second))

	require.NoError(t, repo.AddToProject(ctx, task.ID, first.ID))
	require.NoError(t, repo.AddToProject(ctx, task.ID, second.ID))
	// Re-adding an existing membership must not reorder it.
	require.NoError(t, repo.AddToProject(ctx, task.ID, first.ID))

	ids, err := repo.ProjectIDs(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, ids)
}

func TestTaskListDueBetween(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	repo := NewSQLiteTaskRepo(database)

	day := func(offset int) time.Time {
		return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	inWindow := seedTask(t, ctx, database, ws.ID, testutil.WithDueOn(day(1)))
	seedTask(t, ctx, database, ws.ID, testutil.WithDueOn(day(5)))
	seedTask(t, ctx, database, ws.ID) // no due date
	seedTask(t, ctx, database, ws.ID, testutil.WithDueOn(day(1)), testutil.WithCompleted())

	got, err := repo.ListDueBetween(ctx, day(1), day(2))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inWindow.ID, got[0].ID)
}

func TestTaskListOverdue(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	repo := NewSQLiteTaskRepo(database)

	asOf := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	overdue := seedTask(t, ctx, database, ws.ID, testutil.WithDueOn(asOf.AddDate(0, 0, -3)))
	seedTask(t, ctx, database, ws.ID, testutil.WithDueOn(asOf.AddDate(0, 0, 3)))
	// Completed tasks are never overdue.
	seedTask(t, ctx, database, ws.ID, testutil.WithDueOn(asOf.AddDate(0, 0, -3)), testutil.WithCompleted())

	got, err := repo.ListOverdue(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, overdue.ID, got[0].ID)
}

func TestTaskDeleteCascadesEdges(t *testing.T) {
	ctx, database, ws, project := seed(t)
	repo := NewSQLiteTaskRepo(database)
	deps := NewSQLiteDependencyRepo(database)

	a := seedTask(t, ctx, database, ws.ID)
	b := seedTask(t, ctx, database, ws.ID)
	require.NoError(t, repo.AddToProject(ctx, a.ID, project.ID))
	require.NoError(t, deps.Create(ctx, &domain.Dependency{DependentTaskID: a.ID, DependencyTaskID: b.ID}))

	require.NoError(t, repo.Delete(ctx, a.ID))

	_, err := repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	edges, err := deps.ListDependents(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)

	ids, err := repo.ProjectIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
