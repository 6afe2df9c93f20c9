package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
)

// SQLiteDependencyRepo implements DependencyRepo over the task_dependencies
// edge table. Both edge views derive from the same rows; nothing is stored
// twice.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

func NewSQLiteDependencyRepo(conn db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: conn}
}

func (r *SQLiteDependencyRepo) Create(ctx context.Context, d *domain.Dependency) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_dependencies (dependent_task_id, dependency_task_id) VALUES (?, ?)`,
		d.DependentTaskID, d.DependencyTaskID)
	if err != nil {
		return fmt.Errorf("inserting dependency: %w", err)
	}
	return nil
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, dependentID, dependencyID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM task_dependencies WHERE dependent_task_id = ? AND dependency_task_id = ?`,
		dependentID, dependencyID)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("dependency %s -> %s: %w", dependentID, dependencyID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteDependencyRepo) Exists(ctx context.Context, dependentID, dependencyID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_dependencies WHERE dependent_task_id = ? AND dependency_task_id = ?`,
		dependentID, dependencyID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking dependency: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteDependencyRepo) ListDependencies(ctx context.Context, taskID string) ([]domain.Dependency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT dependent_task_id, dependency_task_id FROM task_dependencies
		 WHERE dependent_task_id = ? ORDER BY dependency_task_id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	defer rows.Close()
	return r.scanDependencies(rows)
}

func (r *SQLiteDependencyRepo) ListDependents(ctx context.Context, taskID string) ([]domain.Dependency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT dependent_task_id, dependency_task_id FROM task_dependencies
		 WHERE dependency_task_id = ? ORDER BY dependent_task_id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing dependents: %w", err)
	}
	defer rows.Close()
	return r.scanDependencies(rows)
}

// scanDependencies scans multiple dependency rows from *sql.Rows.
func (r *SQLiteDependencyRepo) scanDependencies(rows *sql.Rows) ([]domain.Dependency, error) {
	var deps []domain.Dependency
	for rows.Next() {
		var d domain.Dependency
		if err := rows.Scan(&d.DependentTaskID, &d.DependencyTaskID); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}
