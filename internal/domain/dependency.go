package domain

// Dependency is a directed edge stating that DependentTaskID cannot be
// considered unblocked until DependencyTaskID is completed.
type Dependency struct {
	DependentTaskID  string
	DependencyTaskID string
}
