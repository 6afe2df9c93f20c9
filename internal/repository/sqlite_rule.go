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

const ruleColumns = `id, project_id, name, trigger_type, trigger_conditions,
		action_type, action_parameters, active, created_at`

// SQLiteRuleRepo implements RuleRepo. Conditions and action parameters are
// stored as JSON text and decoded at this boundary.
type SQLiteRuleRepo struct {
	db db.DBTX
}

func NewSQLiteRuleRepo(conn db.DBTX) *SQLiteRuleRepo {
	return &SQLiteRuleRepo{db: conn}
}

func (r *SQLiteRuleRepo) Create(ctx context.Context, rule *domain.AutomationRule) error {
	conditions, err := mapToJSON(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encoding rule conditions: %w", err)
	}
	params, err := mapToJSON(rule.Params)
	if err != nil {
		return fmt.Errorf("encoding rule parameters: %w", err)
	}
	query := `INSERT INTO automation_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		rule.ID, rule.ProjectID, rule.Name, string(rule.Trigger), conditions,
		string(rule.Action), params, boolToInt(rule.Active),
		rule.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting automation rule: %w", err)
	}
	return nil
}

func (r *SQLiteRuleRepo) GetByID(ctx context.Context, id string) (*domain.AutomationRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM automation_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("automation rule %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading automation rule: %w", err)
	}
	return rule, nil
}

func (r *SQLiteRuleRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.AutomationRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM automation_rules
		 WHERE project_id = ? ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing automation rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *SQLiteRuleRepo) ListActive(ctx context.Context, projectID string, trigger domain.TriggerType) ([]*domain.AutomationRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM automation_rules
		 WHERE project_id = ? AND trigger_type = ? AND active = 1
		 ORDER BY created_at, id`, projectID, string(trigger))
	if err != nil {
		return nil, fmt.Errorf("listing active rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *SQLiteRuleRepo) Update(ctx context.Context, rule *domain.AutomationRule) error {
	conditions, err := mapToJSON(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encoding rule conditions: %w", err)
	}
	params, err := mapToJSON(rule.Params)
	if err != nil {
		return fmt.Errorf("encoding rule parameters: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE automation_rules SET name = ?, trigger_type = ?, trigger_conditions = ?,
		 action_type = ?, action_parameters = ?, active = ? WHERE id = ?`,
		rule.Name, string(rule.Trigger), conditions, string(rule.Action), params,
		boolToInt(rule.Active), rule.ID)
	if err != nil {
		return fmt.Errorf("updating automation rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating automation rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("automation rule %s: %w", rule.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRuleRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE automation_rules SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivating automation rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivating automation rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("automation rule %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanRule(row rowScanner) (*domain.AutomationRule, error) {
	var rule domain.AutomationRule
	var trigger, action, createdAt string
	var conditions, params sql.NullString
	var active int

	if err := row.Scan(&rule.ID, &rule.ProjectID, &rule.Name, &trigger, &conditions,
		&action, &params, &active, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if rule.Conditions, err = jsonToMap(conditions); err != nil {
		return nil, fmt.Errorf("decoding rule conditions: %w", err)
	}
	if rule.Params, err = jsonToMap(params); err != nil {
		return nil, fmt.Errorf("decoding rule parameters: %w", err)
	}
	rule.Trigger = domain.TriggerType(trigger)
	rule.Action = domain.ActionType(action)
	rule.Active = intToBool(active)
	rule.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rule, nil
}

func scanRules(rows *sql.Rows) ([]*domain.AutomationRule, error) {
	var rules []*domain.AutomationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning automation rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating automation rules: %w", err)
	}
	return rules, nil
}
