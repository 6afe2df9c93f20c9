package automation

import "errors"

var (
	// ErrInvalidDate indicates a malformed date in a rule's action
	// parameters. The offending rule is skipped; the batch continues.
	ErrInvalidDate = errors.New("invalid date format")

	// ErrInvalidCondition indicates a condition key the evaluator does not
	// recognize. Such rules fail closed rather than firing partially
	// specified.
	ErrInvalidCondition = errors.New("invalid rule condition")

	// ErrUnknownAction indicates an action type outside the closed set.
	ErrUnknownAction = errors.New("unknown action type")
)
