package activity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/repository"
	"github.com/rmottanelli/clareza/internal/testutil"
)

func TestRecordWritesEntry(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	records := repository.NewSQLiteActivityRepo(database)
	rec := NewRecorder(records, zerolog.Nop())

	actor := "u-1"
	project := "p-1"
	rec.Record(ctx, domain.EventTaskCompleted, "t-1", "task", &actor, "ws-1", &project,
		map[string]any{"note": "done"})

	got, err := records.List(ctx, repository.ActivityFilter{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventTaskCompleted, got[0].EventType)
	assert.Equal(t, "t-1", got[0].TargetID)
	require.NotNil(t, got[0].ActorID)
	assert.Equal(t, actor, *got[0].ActorID)
	assert.Equal(t, "done", got[0].Data["note"])
	assert.NotEmpty(t, got[0].ID)
}

func TestRecordSwallowsWriteFailures(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	records := repository.NewSQLiteActivityRepo(database)
	rec := NewRecorder(records, zerolog.Nop())

	// Closing the database makes the insert fail; Record must not panic and
	// must not surface the error.
	require.NoError(t, database.Close())
	rec.Record(ctx, domain.EventTaskCreated, "t-1", "task", nil, "ws-1", nil, nil)
}

func TestSweepDeletesOnlyOldRecords(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	records := repository.NewSQLiteActivityRepo(database)
	rec := NewRecorder(records, zerolog.Nop())

	now := time.Now().UTC()
	mk := func(age time.Duration) {
		require.NoError(t, records.Create(ctx, &domain.ActivityRecord{
			ID:          uuid.New().String(),
			EventType:   domain.EventTaskCreated,
			TargetID:    "t-1",
			TargetType:  "task",
			WorkspaceID: "ws-1",
			CreatedAt:   now.Add(-age),
		}))
	}
	mk(45 * 24 * time.Hour)
	mk(31 * 24 * time.Hour)
	mk(2 * 24 * time.Hour)

	removed, err := rec.Sweep(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := records.List(ctx, repository.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestSweepDefaultsRetention(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	records := repository.NewSQLiteActivityRepo(database)
	rec := NewRecorder(records, zerolog.Nop())

	require.NoError(t, records.Create(ctx, &domain.ActivityRecord{
		ID:          uuid.New().String(),
		EventType:   domain.EventTaskCreated,
		TargetID:    "t-1",
		TargetType:  "task",
		WorkspaceID: "ws-1",
		CreatedAt:   time.Now().UTC().Add(-40 * 24 * time.Hour),
	}))

	// Zero and negative windows fall back to the default.
	removed, err := rec.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
