package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rmottanelli/clareza/internal/activity"
	"github.com/rmottanelli/clareza/internal/automation"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/graph"
	"github.com/rmottanelli/clareza/internal/notify"
	"github.com/rmottanelli/clareza/internal/queue"
	"github.com/rmottanelli/clareza/internal/repository"
	"github.com/rmottanelli/clareza/internal/testutil"
)

// svcEnv is the full stack on an in-memory database with a synchronous queue:
// events emitted by the services run through the automation engine inline.
type svcEnv struct {
	ctx     context.Context
	db      *sql.DB
	mem     *queue.Memory
	engine  *automation.Engine
	graph   *graph.Manager
	tasks   TaskService
	rules   RuleService
	ws      *domain.Workspace
	project *domain.Project
}

func newSvcEnv(t *testing.T) *svcEnv {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	log := zerolog.Nop()

	mem := queue.NewMemory()
	dispatcher := notify.NewDispatcher(mem)
	recorder := activity.NewRecorder(repository.NewSQLiteActivityRepo(database), log)
	engine := automation.NewEngine(database, uow, mem, dispatcher, recorder, log)
	mem.Register(automation.JobName, engine.HandleProcess)

	deps := graph.NewManager(database, uow)

	ws := testutil.NewTestWorkspace("acme")
	require.NoError(t, repository.NewSQLiteUserRepo(database).CreateWorkspace(ctx, ws))
	project := testutil.NewTestProject(ws.ID, "launch")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, project))

	return &svcEnv{
		ctx:     ctx,
		db:      database,
		mem:     mem,
		engine:  engine,
		graph:   deps,
		tasks:   NewTaskService(database, uow, engine, deps, dispatcher, log),
		rules:   NewRuleService(database, uow),
		ws:      ws,
		project: project,
	}
}

func (e *svcEnv) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := testutil.NewTestUser(name)
	require.NoError(t, repository.NewSQLiteUserRepo(e.db).Create(e.ctx, u))
	return u
}

func (e *svcEnv) section(t *testing.T, name string) *domain.Section {
	t.Helper()
	s := testutil.NewTestSection(e.project.ID, name)
	require.NoError(t, repository.NewSQLiteProjectRepo(e.db).CreateSection(e.ctx, s))
	return s
}

func (e *svcEnv) newTask(t *testing.T, opts ...testutil.TaskOption) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(e.ws.ID, "task", opts...)
	require.NoError(t, e.tasks.Create(e.ctx, task, &e.project.ID, nil))
	return task
}

func (e *svcEnv) reload(t *testing.T, id string) *domain.Task {
	t.Helper()
	task, err := e.tasks.GetByID(e.ctx, id)
	require.NoError(t, err)
	return task
}

func (e *svcEnv) notifications(t *testing.T) []notify.Payload {
	t.Helper()
	var out []notify.Payload
	for _, job := range e.mem.JobsNamed(notify.JobName) {
		var p notify.Payload
		require.NoError(t, json.Unmarshal(job.Payload, &p))
		out = append(out, p)
	}
	return out
}

func (e *svcEnv) activityTypes(t *testing.T) []domain.EventType {
	t.Helper()
	records, err := repository.NewSQLiteActivityRepo(e.db).List(e.ctx, repository.ActivityFilter{})
	require.NoError(t, err)
	var types []domain.EventType
	for _, rec := range records {
		types = append(types, rec.EventType)
	}
	return types
}
