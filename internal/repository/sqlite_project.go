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

// SQLiteProjectRepo implements ProjectRepo, covering projects and their sections.
type SQLiteProjectRepo struct {
	db db.DBTX
}

func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (id, workspace_id, name, notes, owner_id, archived, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.WorkspaceID, p.Name, p.Notes, nullableString(p.OwnerID),
		boolToInt(p.Archived), p.CreatedAt.Format(time.RFC3339), p.ModifiedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, notes, owner_id, archived, created_at, modified_at
		 FROM projects WHERE id = ?`, id)

	var p domain.Project
	var owner sql.NullString
	var archived int
	var createdAt, modifiedAt string
	err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Notes, &owner, &archived, &createdAt, &modifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	p.OwnerID = stringOrNil(owner)
	p.Archived = intToBool(archived)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)
	return &p, nil
}

func (r *SQLiteProjectRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, notes, owner_id, archived, created_at, modified_at
		 FROM projects WHERE workspace_id = ? ORDER BY created_at, id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		var owner sql.NullString
		var archived int
		var createdAt, modifiedAt string
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Notes, &owner, &archived, &createdAt, &modifiedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.OwnerID = stringOrNil(owner)
		p.Archived = intToBool(archived)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, notes = ?, owner_id = ?, archived = ?, modified_at = ? WHERE id = ?`,
		p.Name, p.Notes, nullableString(p.OwnerID), boolToInt(p.Archived),
		p.ModifiedAt.Format(time.RFC3339), p.ID)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteProjectRepo) Archive(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET archived = 1, modified_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("archiving project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archiving project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteProjectRepo) CreateSection(ctx context.Context, s *domain.Section) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sections (id, project_id, name, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.ProjectID, s.Name, s.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting section: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetSection(ctx context.Context, id string) (*domain.Section, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, created_at FROM sections WHERE id = ?`, id)

	var s domain.Section
	var createdAt string
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("section %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading section: %w", err)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func (r *SQLiteProjectRepo) ListSections(ctx context.Context, projectID string) ([]*domain.Section, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, name, created_at FROM sections WHERE project_id = ? ORDER BY created_at, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	defer rows.Close()

	var sections []*domain.Section
	for rows.Next() {
		var s domain.Section
		var createdAt string
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sections = append(sections, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}
	return sections, nil
}
