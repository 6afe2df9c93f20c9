package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/domain"
)

func seedActivity(t *testing.T, ctx context.Context, database *sql.DB, workspaceID string, eventType domain.EventType, createdAt time.Time) *domain.ActivityRecord {
	t.Helper()
	rec := &domain.ActivityRecord{
		ID:          uuid.New().String(),
		EventType:   eventType,
		TargetID:    "t-1",
		TargetType:  "task",
		WorkspaceID: workspaceID,
		Data:        map[string]any{"source": "test"},
		CreatedAt:   createdAt,
	}
	require.NoError(t, NewSQLiteActivityRepo(database).Create(ctx, rec))
	return rec
}

func TestActivityListNewestFirst(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	repo := NewSQLiteActivityRepo(database)

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	old := seedActivity(t, ctx, database, ws.ID, domain.EventTaskCreated, base)
	recent := seedActivity(t, ctx, database, ws.ID, domain.EventTaskCompleted, base.Add(time.Hour))

	got, err := repo.List(ctx, ActivityFilter{WorkspaceID: ws.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recent.ID, got[0].ID)
	assert.Equal(t, old.ID, got[1].ID)
	assert.Equal(t, "test", got[0].Data["source"])
}

func TestActivityListFilters(t *testing.T) {
	ctx, database, ws, project := seed(t)
	repo := NewSQLiteActivityRepo(database)

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	seedActivity(t, ctx, database, ws.ID, domain.EventTaskCreated, base)
	completed := seedActivity(t, ctx, database, ws.ID, domain.EventTaskCompleted, base.Add(time.Minute))

	byType, err := repo.List(ctx, ActivityFilter{EventType: domain.EventTaskCompleted})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, completed.ID, byType[0].ID)

	since, err := repo.List(ctx, ActivityFilter{Since: base.Add(30 * time.Second)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, completed.ID, since[0].ID)

	none, err := repo.List(ctx, ActivityFilter{ProjectID: project.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestActivityListPagination(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	repo := NewSQLiteActivityRepo(database)

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedActivity(t, ctx, database, ws.ID, domain.EventTaskCreated, base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := repo.List(ctx, ActivityFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := repo.List(ctx, ActivityFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.NotEqual(t, page1[0].ID, page2[0].ID)
}

func TestActivityDeleteOlderThan(t *testing.T) {
	ctx, database, ws, _ := seed(t)
	repo := NewSQLiteActivityRepo(database)

	cutoff := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	seedActivity(t, ctx, database, ws.ID, domain.EventTaskCreated, cutoff.AddDate(0, 0, -10))
	seedActivity(t, ctx, database, ws.ID, domain.EventTaskCreated, cutoff.AddDate(0, 0, -1))
	keep := seedActivity(t, ctx, database, ws.ID, domain.EventTaskCreated, cutoff.AddDate(0, 0, 1))

	removed, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := repo.List(ctx, ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, keep.ID, left[0].ID)
}
