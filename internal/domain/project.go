package domain

import "time"

type Project struct {
	ID          string
	WorkspaceID string
	Name        string
	Notes       string
	OwnerID     *string
	Archived    bool
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// Section is a named container for tasks within a project.
type Section struct {
	ID        string
	ProjectID string
	Name      string
	CreatedAt time.Time
}

type Workspace struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
