package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rmottanelli/clareza/internal/activity"
	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/notify"
	"github.com/rmottanelli/clareza/internal/queue"
	"github.com/rmottanelli/clareza/internal/repository"
)

// Engine is the automation core: it selects candidate rules for an event,
// evaluates their conditions, executes matching actions with per-rule error
// isolation, and appends the activity record.
type Engine struct {
	conn       db.DBTX
	uow        db.UnitOfWork
	q          queue.Queue
	dispatcher *notify.Dispatcher
	recorder   *activity.Recorder
	log        zerolog.Logger
}

func NewEngine(conn db.DBTX, uow db.UnitOfWork, q queue.Queue, dispatcher *notify.Dispatcher, recorder *activity.Recorder, log zerolog.Logger) *Engine {
	return &Engine{
		conn:       conn,
		uow:        uow,
		q:          q,
		dispatcher: dispatcher,
		recorder:   recorder,
		log:        log,
	}
}

// Result summarizes one event's trip through the rule loop.
type Result struct {
	RulesMatched int
	RulesFired   int
}

// Enqueue submits an event for asynchronous processing, keyed by target so
// one task's events keep submission order.
func (e *Engine) Enqueue(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return e.q.Enqueue(ctx, queue.Job{
		Name:    JobName,
		Key:     ev.TargetID,
		Payload: payload,
	})
}

// HandleProcess is the queue handler for JobName jobs.
func (e *Engine) HandleProcess(ctx context.Context, job queue.Job) error {
	var ev Event
	if err := json.Unmarshal(job.Payload, &ev); err != nil {
		return fmt.Errorf("decoding event: %w", queue.ErrTerminal)
	}
	_, err := e.ProcessEvent(ctx, ev)
	return err
}

// ProcessEvent runs the rule loop for one event and appends the activity
// record regardless of the loop's outcome. Per-rule failures are logged and
// isolated; an error return means the whole job failed before the loop and
// is eligible for queue retry.
func (e *Engine) ProcessEvent(ctx context.Context, ev Event) (Result, error) {
	var res Result

	if ev.ChainDepth > MaxChainDepth {
		e.log.Warn().Str("event", string(ev.Type)).Str("target_id", ev.TargetID).
			Int("chain_depth", ev.ChainDepth).Msg("rule chain depth exceeded, skipping rule evaluation")
		e.record(ctx, ev)
		return res, nil
	}

	rules := repository.NewSQLiteRuleRepo(e.conn)
	candidates, err := selectCandidates(ctx, rules, ev)
	if err != nil {
		return res, fmt.Errorf("selecting candidate rules: %w", err)
	}

	if len(candidates) > 0 && ev.TargetType == "task" {
		tasks := repository.NewSQLiteTaskRepo(e.conn)
		for _, rule := range candidates {
			// Fresh snapshot per rule: earlier rules in the batch may have
			// mutated the target, and conditions evaluate committed state only.
			snapshot, err := tasks.GetByID(ctx, ev.TargetID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					e.log.Warn().Str("target_id", ev.TargetID).Msg("event target vanished, skipping rules")
					break
				}
				return res, fmt.Errorf("loading event target: %w", err)
			}

			ok, err := matches(rule, snapshot)
			if err != nil {
				e.log.Error().Err(err).Str("rule_id", rule.ID).Msg("rule condition rejected, failing closed")
				continue
			}
			if !ok {
				continue
			}
			res.RulesMatched++

			if err := e.execute(ctx, rule, ev); err != nil {
				e.log.Error().Err(err).Str("rule_id", rule.ID).Str("action", string(rule.Action)).
					Msg("rule action failed")
				continue
			}
			res.RulesFired++
			e.log.Info().Str("rule_id", rule.ID).Str("target_id", ev.TargetID).
				Str("action", string(rule.Action)).Msg("rule fired")
		}
	}

	e.record(ctx, ev)
	return res, nil
}

func (e *Engine) record(ctx context.Context, ev Event) {
	e.recorder.Record(ctx, domain.EventType(ev.Type), ev.TargetID, ev.TargetType,
		ev.ActorID, ev.WorkspaceID, ev.ProjectID, ev.Data)
}

// OnTaskCompleted runs the side effects every completion path shares. The
// assignee (when set) is notified of the completion and dependents with
// assignees are told their blocking dependency resolved; a task_completed
// event then (re-)enters the pipeline at the given chain depth.
func (e *Engine) OnTaskCompleted(ctx context.Context, task *domain.Task, actorID *string, projectID *string, chainDepth int) {
	deps := repository.NewSQLiteDependencyRepo(e.conn)
	tasks := repository.NewSQLiteTaskRepo(e.conn)

	if task.AssigneeID != nil {
		err := e.dispatcher.Send(ctx, task.ID, notify.TypeTaskCompleted, *task.AssigneeID,
			map[string]any{"task_name": task.Name})
		if err != nil {
			e.log.Error().Err(err).Str("task_id", task.ID).Msg("enqueuing task_completed notification failed")
		}
	}

	edges, err := deps.ListDependents(ctx, task.ID)
	if err != nil {
		e.log.Error().Err(err).Str("task_id", task.ID).Msg("listing dependents for completion fan-out failed")
	}
	for _, edge := range edges {
		dependent, err := tasks.GetByID(ctx, edge.DependentTaskID)
		if err != nil {
			e.log.Error().Err(err).Str("task_id", edge.DependentTaskID).Msg("loading dependent failed")
			continue
		}
		if dependent.AssigneeID == nil {
			// Dependents without assignees are skipped, not errors.
			continue
		}
		err = e.dispatcher.Send(ctx, dependent.ID, notify.TypeDependencyCompleted, *dependent.AssigneeID,
			map[string]any{"completed_dependency": task.Name})
		if err != nil {
			e.log.Error().Err(err).Str("task_id", dependent.ID).Msg("enqueuing dependency_completed failed")
		}
	}

	if chainDepth > MaxChainDepth {
		e.log.Warn().Str("task_id", task.ID).Int("chain_depth", chainDepth).
			Msg("rule chain depth exceeded, not re-emitting completion event")
		return
	}
	ev := Event{
		Type:        domain.TriggerTaskCompleted,
		TargetID:    task.ID,
		TargetType:  "task",
		ActorID:     actorID,
		WorkspaceID: task.WorkspaceID,
		ProjectID:   projectID,
		ChainDepth:  chainDepth,
	}
	if err := e.Enqueue(ctx, ev); err != nil {
		e.log.Error().Err(err).Str("task_id", task.ID).Msg("enqueuing completion event failed")
	}
}
