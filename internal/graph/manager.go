// Package graph owns the directed dependency-edge set between tasks. It is
// the sole writer of that edge set and guarantees it stays acyclic.
package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/repository"
)

// Manager validates and applies dependency-edge mutations. The cycle check
// and the insert run inside one transaction under a process-level mutex, so
// two concurrent adds cannot both pass the check against a stale view and
// jointly introduce a cycle.
type Manager struct {
	conn db.DBTX
	uow  db.UnitOfWork

	mu sync.Mutex
}

func NewManager(conn db.DBTX, uow db.UnitOfWork) *Manager {
	return &Manager{conn: conn, uow: uow}
}

// AddDependency records that dependentID is blocked by dependencyID.
// It fails with repository.ErrNotFound if either task is missing, with
// ErrDuplicateEdge if the edge exists, and with a *CycleError if the edge
// would make dependentID reachable from itself.
func (m *Manager) AddDependency(ctx context.Context, dependentID, dependencyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		deps := repository.NewSQLiteDependencyRepo(tx)

		dependent, err := tasks.GetByID(ctx, dependentID)
		if err != nil {
			return err
		}
		if _, err := tasks.GetByID(ctx, dependencyID); err != nil {
			return err
		}

		exists, err := deps.Exists(ctx, dependentID, dependencyID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("dependency %s -> %s: %w", dependentID, dependencyID, ErrDuplicateEdge)
		}

		cyclic, err := wouldCycle(ctx, deps, dependentID, dependencyID)
		if err != nil {
			return err
		}
		if cyclic {
			return &CycleError{DependentID: dependentID, DependencyID: dependencyID}
		}

		if err := deps.Create(ctx, &domain.Dependency{
			DependentTaskID:  dependentID,
			DependencyTaskID: dependencyID,
		}); err != nil {
			return err
		}

		dependent.ModifiedAt = time.Now().UTC()
		return tasks.Update(ctx, dependent)
	})
}

// RemoveDependency deletes the edge atomically; repository.ErrNotFound if it
// does not exist.
func (m *Manager) RemoveDependency(ctx context.Context, dependentID, dependencyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tasks := repository.NewSQLiteTaskRepo(tx)
		deps := repository.NewSQLiteDependencyRepo(tx)

		if err := deps.Delete(ctx, dependentID, dependencyID); err != nil {
			return err
		}

		dependent, err := tasks.GetByID(ctx, dependentID)
		if err != nil {
			return err
		}
		dependent.ModifiedAt = time.Now().UTC()
		return tasks.Update(ctx, dependent)
	})
}

// WouldCycle reports whether adding the edge dependentID -> dependencyID
// would close a cycle. Pure read; the graph is not mutated.
func (m *Manager) WouldCycle(ctx context.Context, dependentID, dependencyID string) (bool, error) {
	deps := repository.NewSQLiteDependencyRepo(m.conn)
	return wouldCycle(ctx, deps, dependentID, dependencyID)
}

// DependenciesOf returns the ids of tasks that taskID waits on. Unknown ids
// yield an empty slice, consistent with a task that has no edges.
func (m *Manager) DependenciesOf(ctx context.Context, taskID string) ([]string, error) {
	deps := repository.NewSQLiteDependencyRepo(m.conn)
	edges, err := deps.ListDependencies(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.DependencyTaskID)
	}
	return ids, nil
}

// DependentsOf returns the ids of tasks blocked by taskID, the reverse view
// of the same edge set.
func (m *Manager) DependentsOf(ctx context.Context, taskID string) ([]string, error) {
	deps := repository.NewSQLiteDependencyRepo(m.conn)
	edges, err := deps.ListDependents(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.DependentTaskID)
	}
	return ids, nil
}

// wouldCycle walks forward from dependencyID through existing dependency
// edges looking for dependentID. A self-edge is an immediate cycle. The
// visited set bounds the walk even on already-malformed data.
func wouldCycle(ctx context.Context, deps repository.DependencyRepo, dependentID, dependencyID string) (bool, error) {
	if dependentID == dependencyID {
		return true, nil
	}

	visited := map[string]bool{}
	stack := []string{dependencyID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true

		edges, err := deps.ListDependencies(ctx, current)
		if err != nil {
			return false, err
		}
		for _, e := range edges {
			if e.DependencyTaskID == dependentID {
				return true, nil
			}
			if !visited[e.DependencyTaskID] {
				stack = append(stack, e.DependencyTaskID)
			}
		}
	}
	return false, nil
}
