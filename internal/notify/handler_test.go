package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/queue"
	"github.com/rmottanelli/clareza/internal/repository"
	"github.com/rmottanelli/clareza/internal/testutil"
)

// fakeDeliverer records deliveries and fails on demand.
type fakeDeliverer struct {
	err       error
	delivered []Delivery
}

func (f *fakeDeliverer) Deliver(_ context.Context, d Delivery) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, d)
	return nil
}

func setupHandler(t *testing.T, deliverer Deliverer) (context.Context, *sql.DB, *Handler, *domain.Task, *domain.User) {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)

	users := repository.NewSQLiteUserRepo(database)
	tasks := repository.NewSQLiteTaskRepo(database)

	ws := testutil.NewTestWorkspace("acme")
	require.NoError(t, users.CreateWorkspace(ctx, ws))
	user := testutil.NewTestUser("ana")
	require.NoError(t, users.Create(ctx, user))
	task := testutil.NewTestTask(ws.ID, "ship it")
	require.NoError(t, tasks.Create(ctx, task))

	h := NewHandler(tasks, users, deliverer, zerolog.Nop())
	return ctx, database, h, task, user
}

func sendJob(t *testing.T, p Payload) queue.Job {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return queue.Job{Name: JobName, Payload: raw}
}

func TestHandleSendDelivers(t *testing.T) {
	fake := &fakeDeliverer{}
	ctx, _, h, task, user := setupHandler(t, fake)

	err := h.HandleSend(ctx, sendJob(t, Payload{
		TaskID:      task.ID,
		Type:        TypeTaskAssigned,
		RecipientID: user.ID,
		Data:        map[string]any{"k": "v"},
	}))
	require.NoError(t, err)

	require.Len(t, fake.delivered, 1)
	d := fake.delivered[0]
	assert.Equal(t, task.ID, d.Task.ID)
	assert.Equal(t, user.Email, d.Recipient.Email)
	assert.Equal(t, TypeTaskAssigned, d.Type)
	assert.Equal(t, "v", d.Data["k"])
}

func TestHandleSendMissingTaskIsTerminal(t *testing.T) {
	ctx, _, h, _, user := setupHandler(t, &fakeDeliverer{})

	err := h.HandleSend(ctx, sendJob(t, Payload{
		TaskID:      "gone",
		Type:        TypeTaskAssigned,
		RecipientID: user.ID,
	}))
	assert.ErrorIs(t, err, queue.ErrTerminal)
}

func TestHandleSendMissingRecipientIsTerminal(t *testing.T) {
	ctx, _, h, task, _ := setupHandler(t, &fakeDeliverer{})

	err := h.HandleSend(ctx, sendJob(t, Payload{
		TaskID:      task.ID,
		Type:        TypeTaskAssigned,
		RecipientID: "gone",
	}))
	assert.ErrorIs(t, err, queue.ErrTerminal)
}

func TestHandleSendPermanentFailureIsTerminal(t *testing.T) {
	ctx, _, h, task, user := setupHandler(t, &fakeDeliverer{err: ErrPermanentDelivery})

	err := h.HandleSend(ctx, sendJob(t, Payload{
		TaskID:      task.ID,
		Type:        TypeTaskCompleted,
		RecipientID: user.ID,
	}))
	assert.ErrorIs(t, err, queue.ErrTerminal)
}

func TestHandleSendTransientFailureRetryable(t *testing.T) {
	ctx, _, h, task, user := setupHandler(t, &fakeDeliverer{err: ErrTransientDelivery})

	err := h.HandleSend(ctx, sendJob(t, Payload{
		TaskID:      task.ID,
		Type:        TypeTaskCompleted,
		RecipientID: user.ID,
	}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, queue.ErrTerminal)
	assert.ErrorIs(t, err, ErrTransientDelivery)
}

func TestHandleSendMalformedPayloadIsTerminal(t *testing.T) {
	ctx, _, h, _, _ := setupHandler(t, &fakeDeliverer{})

	err := h.HandleSend(ctx, queue.Job{Name: JobName, Payload: []byte("nope")})
	assert.ErrorIs(t, err, queue.ErrTerminal)
}
