package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrations is the ordered list of schema statements. Statements are
// idempotent (IF NOT EXISTS) so the full list re-runs on every startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS workspaces (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id           TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		notes        TEXT NOT NULL DEFAULT '',
		owner_id     TEXT REFERENCES users(id),
		archived     INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		modified_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_workspace ON projects(workspace_id)`,

	`CREATE TABLE IF NOT EXISTS sections (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sections_project ON sections(project_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		notes        TEXT NOT NULL DEFAULT '',
		assignee_id  TEXT REFERENCES users(id),
		completed    INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT,
		due_on       TEXT,
		start_on     TEXT,
		parent_id    TEXT REFERENCES tasks(id),
		section_id   TEXT REFERENCES sections(id),
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		created_at   TEXT NOT NULL,
		modified_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_section ON tasks(section_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_on)`,

	`CREATE TABLE IF NOT EXISTS task_projects (
		task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, project_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_projects_project ON task_projects(project_id)`,

	`CREATE TABLE IF NOT EXISTS task_dependencies (
		dependent_task_id  TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		dependency_task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		PRIMARY KEY (dependent_task_id, dependency_task_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_deps_dependency ON task_dependencies(dependency_task_id)`,

	`CREATE TABLE IF NOT EXISTS automation_rules (
		id                 TEXT PRIMARY KEY,
		project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name               TEXT NOT NULL,
		trigger_type       TEXT NOT NULL,
		trigger_conditions TEXT,
		action_type        TEXT NOT NULL,
		action_parameters  TEXT,
		active             INTEGER NOT NULL DEFAULT 1,
		created_at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rules_project_trigger ON automation_rules(project_id, trigger_type, active)`,

	`CREATE TABLE IF NOT EXISTS activity_feed (
		id           TEXT PRIMARY KEY,
		event_type   TEXT NOT NULL,
		actor_id     TEXT,
		target_id    TEXT NOT NULL,
		target_type  TEXT NOT NULL,
		project_id   TEXT,
		workspace_id TEXT NOT NULL,
		data         TEXT,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_workspace ON activity_feed(workspace_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_project ON activity_feed(project_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_feed(created_at)`,
}

// Migrate runs all schema migrations.
func Migrate(database *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := database.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
