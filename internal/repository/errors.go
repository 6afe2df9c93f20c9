package repository

import "errors"

// ErrNotFound indicates the referenced entity does not exist. Callers match
// it with errors.Is; repositories wrap it with entity context.
var ErrNotFound = errors.New("not found")
