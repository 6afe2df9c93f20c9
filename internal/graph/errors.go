package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrCycle indicates the requested edge would close a directed cycle.
	ErrCycle = errors.New("dependency cycle")

	// ErrDuplicateEdge indicates the requested edge already exists.
	ErrDuplicateEdge = errors.New("dependency already exists")
)

// CycleError carries the rejected edge so API callers can report which
// dependency conflicted. It matches errors.Is(err, ErrCycle).
type CycleError struct {
	DependentID  string
	DependencyID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("adding dependency %s -> %s would create a cycle", e.DependentID, e.DependencyID)
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}
