package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/testutil"
)

// seed creates a workspace with one project so task and rule tests have the
// foreign keys they need.
func seed(t *testing.T) (context.Context, *sql.DB, *domain.Workspace, *domain.Project) {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)

	ws := testutil.NewTestWorkspace("acme")
	require.NoError(t, NewSQLiteUserRepo(database).CreateWorkspace(ctx, ws))

	project := testutil.NewTestProject(ws.ID, "launch")
	require.NoError(t, NewSQLiteProjectRepo(database).Create(ctx, project))

	return ctx, database, ws, project
}

func seedUser(t *testing.T, ctx context.Context, database *sql.DB, name string) *domain.User {
	t.Helper()
	u := testutil.NewTestUser(name)
	require.NoError(t, NewSQLiteUserRepo(database).Create(ctx, u))
	return u
}

func seedTask(t *testing.T, ctx context.Context, database *sql.DB, workspaceID string, opts ...testutil.TaskOption) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(workspaceID, "task", opts...)
	require.NoError(t, NewSQLiteTaskRepo(database).Create(ctx, task))
	return task
}
