package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, name, notes, assignee_id, completed, completed_at,
		due_on, start_on, parent_id, section_id, workspace_id, created_at, modified_at`

// taskColumnsAliased is the same column list prefixed with "t." for join queries.
const taskColumnsAliased = `t.id, t.name, t.notes, t.assignee_id, t.completed, t.completed_at,
		t.due_on, t.start_on, t.parent_id, t.section_id, t.workspace_id, t.created_at, t.modified_at`

const dateLayout = "2006-01-02"

// SQLiteTaskRepo implements TaskRepo against a DBTX, so it works both on the
// root handle and inside a transaction.
type SQLiteTaskRepo struct {
	db db.DBTX
}

func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Notes, nullableString(t.AssigneeID),
		boolToInt(t.Completed), nullableTimeToString(t.CompletedAt, time.RFC3339),
		nullableTimeToString(t.DueOn, dateLayout), nullableTimeToString(t.StartOn, dateLayout),
		nullableString(t.ParentID), nullableString(t.SectionID), t.WorkspaceID,
		t.CreatedAt.Format(time.RFC3339), t.ModifiedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading task: %w", err)
	}
	return t, nil
}

func (r *SQLiteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumnsAliased + ` FROM tasks t
		JOIN task_projects tp ON tp.task_id = t.id
		WHERE tp.project_id = ?
		ORDER BY t.created_at, t.id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE completed = 0 AND due_on IS NOT NULL AND due_on >= ? AND due_on <= ?
		ORDER BY due_on, id`
	rows, err := r.db.QueryContext(ctx, query, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("listing due tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE completed = 0 AND due_on IS NOT NULL AND due_on < ?
		ORDER BY due_on, id`
	rows, err := r.db.QueryContext(ctx, query, asOf.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("listing overdue tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET name = ?, notes = ?, assignee_id = ?, completed = ?,
		completed_at = ?, due_on = ?, start_on = ?, parent_id = ?, section_id = ?,
		modified_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Name, t.Notes, nullableString(t.AssigneeID), boolToInt(t.Completed),
		nullableTimeToString(t.CompletedAt, time.RFC3339),
		nullableTimeToString(t.DueOn, dateLayout), nullableTimeToString(t.StartOn, dateLayout),
		nullableString(t.ParentID), nullableString(t.SectionID),
		t.ModifiedAt.Format(time.RFC3339), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

// ProjectIDs returns the task's project memberships oldest-first.
func (r *SQLiteTaskRepo) ProjectIDs(ctx context.Context, taskID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id FROM task_projects WHERE task_id = ? ORDER BY rowid`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing task projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning project id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project ids: %w", err)
	}
	return ids, nil
}

func (r *SQLiteTaskRepo) AddToProject(ctx context.Context, taskID, projectID string) error {
	// INSERT OR IGNORE keeps membership idempotent.
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO task_projects (task_id, project_id) VALUES (?, ?)`,
		taskID, projectID)
	if err != nil {
		return fmt.Errorf("adding task to project: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) RemoveFromProject(ctx context.Context, taskID, projectID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM task_projects WHERE task_id = ? AND project_id = ?`, taskID, projectID)
	if err != nil {
		return fmt.Errorf("removing task from project: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var assignee, completedAt, dueOn, startOn, parentID, sectionID sql.NullString
	var completed int
	var createdAt, modifiedAt string

	if err := row.Scan(&t.ID, &t.Name, &t.Notes, &assignee, &completed, &completedAt,
		&dueOn, &startOn, &parentID, &sectionID, &t.WorkspaceID,
		&createdAt, &modifiedAt); err != nil {
		return nil, err
	}

	t.AssigneeID = stringOrNil(assignee)
	t.Completed = intToBool(completed)
	t.CompletedAt = parseNullableTime(completedAt, time.RFC3339)
	t.DueOn = parseNullableTime(dueOn, dateLayout)
	t.StartOn = parseNullableTime(startOn, dateLayout)
	t.ParentID = stringOrNil(parentID)
	t.SectionID = stringOrNil(sectionID)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}
