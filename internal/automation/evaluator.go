package automation

import (
	"context"
	"fmt"

	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/repository"
)

// selectCandidates returns the active rules listening for this event, in
// creation order. Events without a project never match: cross-project
// automation is not supported.
func selectCandidates(ctx context.Context, rules repository.RuleRepo, ev Event) ([]*domain.AutomationRule, error) {
	if ev.ProjectID == nil || *ev.ProjectID == "" {
		return nil, nil
	}
	return rules.ListActive(ctx, *ev.ProjectID, ev.Type)
}

// matches evaluates the rule's condition set as a conjunction of equality
// checks against the task snapshot. An empty set always matches. Unknown
// condition keys fail closed with ErrInvalidCondition so a partially
// specified rule never fires.
func matches(rule *domain.AutomationRule, task *domain.Task) (bool, error) {
	for key, expected := range rule.Conditions {
		switch key {
		case "assignee_id":
			if !refEquals(task.AssigneeID, expected) {
				return false, nil
			}
		case "section_id":
			if !refEquals(task.SectionID, expected) {
				return false, nil
			}
		case "completed":
			want, ok := expected.(bool)
			if !ok || task.Completed != want {
				return false, nil
			}
		default:
			return false, fmt.Errorf("condition key %q: %w", key, ErrInvalidCondition)
		}
	}
	return true, nil
}

// refEquals compares a nullable reference against a condition value decoded
// from JSON: nil matches an unset reference, a string matches by equality.
func refEquals(ref *string, expected any) bool {
	if expected == nil {
		return ref == nil
	}
	s, ok := expected.(string)
	if !ok {
		return false
	}
	return ref != nil && *ref == s
}
