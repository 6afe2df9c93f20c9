package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/activity"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/repository"
)

func newActivityService(e *svcEnv) ActivityService {
	records := repository.NewSQLiteActivityRepo(e.db)
	return NewActivityService(records, activity.NewRecorder(records, zerolog.Nop()))
}

func TestActivityServiceListsFeed(t *testing.T) {
	e := newSvcEnv(t)
	svc := newActivityService(e)

	task := e.newTask(t)
	require.NoError(t, e.tasks.Complete(e.ctx, task.ID, nil))

	feed, err := svc.List(e.ctx, repository.ActivityFilter{WorkspaceID: e.ws.ID})
	require.NoError(t, err)
	require.NotEmpty(t, feed)

	var types []domain.EventType
	for _, rec := range feed {
		types = append(types, rec.EventType)
	}
	assert.Contains(t, types, domain.EventTaskCreated)
	assert.Contains(t, types, domain.EventTaskCompleted)
}

func TestActivityServiceSweep(t *testing.T) {
	e := newSvcEnv(t)
	svc := newActivityService(e)
	records := repository.NewSQLiteActivityRepo(e.db)

	require.NoError(t, records.Create(e.ctx, &domain.ActivityRecord{
		ID:          uuid.New().String(),
		EventType:   domain.EventTaskCreated,
		TargetID:    "t-old",
		TargetType:  "task",
		WorkspaceID: e.ws.ID,
		CreatedAt:   time.Now().UTC().AddDate(0, 0, -60),
	}))
	task := e.newTask(t)

	removed, err := svc.Sweep(e.ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	feed, err := svc.List(e.ctx, repository.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, task.ID, feed[0].TargetID)
}
