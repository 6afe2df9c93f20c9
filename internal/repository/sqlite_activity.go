package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
)

// SQLiteActivityRepo implements ActivityRepo. The feed is append-only; there
// is no update path, and the only delete path is the retention sweep.
type SQLiteActivityRepo struct {
	db db.DBTX
}

func NewSQLiteActivityRepo(conn db.DBTX) *SQLiteActivityRepo {
	return &SQLiteActivityRepo{db: conn}
}

func (r *SQLiteActivityRepo) Create(ctx context.Context, a *domain.ActivityRecord) error {
	data, err := mapToJSON(a.Data)
	if err != nil {
		return fmt.Errorf("encoding activity data: %w", err)
	}
	query := `INSERT INTO activity_feed
		(id, event_type, actor_id, target_id, target_type, project_id, workspace_id, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, string(a.EventType), nullableString(a.ActorID), a.TargetID, a.TargetType,
		nullableString(a.ProjectID), a.WorkspaceID, data, a.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting activity record: %w", err)
	}
	return nil
}

func (r *SQLiteActivityRepo) List(ctx context.Context, f ActivityFilter) ([]*domain.ActivityRecord, error) {
	query := `SELECT id, event_type, actor_id, target_id, target_type, project_id, workspace_id, data, created_at
		FROM activity_feed WHERE 1=1`
	var args []any

	if !f.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.Since.Format(time.RFC3339))
	}
	if f.WorkspaceID != "" {
		query += ` AND workspace_id = ?`
		args = append(args, f.WorkspaceID)
	}
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.ActorID != "" {
		query += ` AND actor_id = ?`
		args = append(args, f.ActorID)
	}
	if f.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, string(f.EventType))
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, f.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var records []*domain.ActivityRecord
	for rows.Next() {
		var a domain.ActivityRecord
		var eventType, createdAt string
		var actor, project, data sql.NullString
		if err := rows.Scan(&a.ID, &eventType, &actor, &a.TargetID, &a.TargetType,
			&project, &a.WorkspaceID, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity record: %w", err)
		}
		a.EventType = domain.EventType(eventType)
		a.ActorID = stringOrNil(actor)
		a.ProjectID = stringOrNil(project)
		if a.Data, err = jsonToMap(data); err != nil {
			return nil, fmt.Errorf("decoding activity data: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity records: %w", err)
	}
	return records, nil
}

func (r *SQLiteActivityRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_feed WHERE created_at < ?`, cutoff.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("deleting old activity records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting old activity records: %w", err)
	}
	return n, nil
}
