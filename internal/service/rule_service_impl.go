package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmottanelli/clareza/internal/automation"
	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/domain"
	"github.com/rmottanelli/clareza/internal/repository"
)

var (
	// ErrInvalidTrigger rejects a rule whose trigger is outside the known set.
	ErrInvalidTrigger = errors.New("invalid trigger type")

	// ErrInvalidConditionKey rejects a rule referencing a condition field the
	// evaluator does not understand. Catching this at write time keeps
	// fail-closed evaluation a rarity rather than a steady state.
	ErrInvalidConditionKey = errors.New("invalid condition key")
)

type ruleService struct {
	conn db.DBTX
	uow  db.UnitOfWork
}

func NewRuleService(conn db.DBTX, uow db.UnitOfWork) RuleService {
	return &ruleService{conn: conn, uow: uow}
}

func (s *ruleService) Create(ctx context.Context, r *domain.AutomationRule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.Active = true
	r.CreatedAt = time.Now().UTC()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		if _, err := projects.GetByID(ctx, r.ProjectID); err != nil {
			return fmt.Errorf("rule project %s: %w", r.ProjectID, err)
		}
		return repository.NewSQLiteRuleRepo(tx).Create(ctx, r)
	})
}

func (s *ruleService) GetByID(ctx context.Context, id string) (*domain.AutomationRule, error) {
	return repository.NewSQLiteRuleRepo(s.conn).GetByID(ctx, id)
}

func (s *ruleService) ListByProject(ctx context.Context, projectID string) ([]*domain.AutomationRule, error) {
	return repository.NewSQLiteRuleRepo(s.conn).ListByProject(ctx, projectID)
}

func (s *ruleService) Update(ctx context.Context, r *domain.AutomationRule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	return repository.NewSQLiteRuleRepo(s.conn).Update(ctx, r)
}

func (s *ruleService) Deactivate(ctx context.Context, id string) error {
	return repository.NewSQLiteRuleRepo(s.conn).Deactivate(ctx, id)
}

// validateRule checks a rule against the closed trigger, action, and
// condition-key sets. Action parameters are parsed the same way the executor
// will parse them, so a rule that stores cleanly also fires cleanly.
func validateRule(r *domain.AutomationRule) error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.ProjectID == "" {
		return fmt.Errorf("rule project is required")
	}
	if !domain.ValidTriggerTypes[r.Trigger] {
		return fmt.Errorf("%q: %w", r.Trigger, ErrInvalidTrigger)
	}
	if _, err := automation.ParseAction(r.Action, r.Params); err != nil {
		return err
	}
	for key := range r.Conditions {
		if !domain.ConditionKeys[key] {
			return fmt.Errorf("%q: %w", key, ErrInvalidConditionKey)
		}
	}
	return nil
}
