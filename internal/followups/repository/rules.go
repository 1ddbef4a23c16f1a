package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Rule represents the follow-up rule database model.
type Rule struct {
	ID               uuid.UUID       `db:"id"`
	Name             string          `db:"name"`
	TriggerEvent     string          `db:"trigger_event"`
	EntityType       string          `db:"entity_type"`
	DaysOffset       int             `db:"days_offset"`
	ActionType       string          `db:"action_type"`
	Priority         string          `db:"priority"`
	TemplateID       *uuid.UUID      `db:"template_id"`
	AssignedToType   string          `db:"assigned_to_type"`
	AssignedToUserID *uuid.UUID      `db:"assigned_to_user_id"`
	IsActive         bool            `db:"is_active"`
	Conditions       json.RawMessage `db:"conditions"`
	CreatedBy        uuid.UUID       `db:"created_by"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// Template represents the follow-up template database model.
type Template struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	Title         string    `db:"title"`
	Content       string    `db:"content"`
	TriggerOn     string    `db:"trigger_on"`
	Applicability string    `db:"applicability"`
	Priority      string    `db:"priority"`
	DaysOffset    int       `db:"days_offset"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

const (
	ruleNotFoundMsg     = "follow-up rule not found"
	templateNotFoundMsg = "follow-up template not found"
)

const ruleColumns = `id, name, trigger_event, entity_type, days_offset, action_type, priority,
	template_id, assigned_to_type, assigned_to_user_id, is_active, conditions, created_by, created_at, updated_at`

const templateColumns = `id, name, title, content, trigger_on, applicability, priority, days_offset,
	is_active, created_at, updated_at`

// RuleRepository provides database operations for rules and templates.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRules creates a new rule repository.
func NewRules(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

func scanRule(row pgx.Row) (*Rule, error) {
	var r Rule
	err := row.Scan(
		&r.ID, &r.Name, &r.TriggerEvent, &r.EntityType, &r.DaysOffset, &r.ActionType, &r.Priority,
		&r.TemplateID, &r.AssignedToType, &r.AssignedToUserID, &r.IsActive, &r.Conditions, &r.CreatedBy,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRule inserts a new follow-up rule.
func (r *RuleRepository) CreateRule(ctx context.Context, rule *Rule) error {
	query := `
		INSERT INTO followup_rules (
			id, name, trigger_event, entity_type, days_offset, action_type, priority,
			template_id, assigned_to_type, assigned_to_user_id, is_active, conditions, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err := r.pool.Exec(ctx, query,
		rule.ID, rule.Name, rule.TriggerEvent, rule.EntityType, rule.DaysOffset, rule.ActionType, rule.Priority,
		rule.TemplateID, rule.AssignedToType, rule.AssignedToUserID, rule.IsActive, rule.Conditions, rule.CreatedBy,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create followup rule: %w", err)
	}

	return nil
}

// GetRule retrieves a rule by its ID.
func (r *RuleRepository) GetRule(ctx context.Context, id uuid.UUID) (*Rule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM followup_rules WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(ruleNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get followup rule: %w", err)
	}

	return rule, nil
}

// UpdateRule updates an existing rule.
func (r *RuleRepository) UpdateRule(ctx context.Context, rule *Rule) error {
	query := `
		UPDATE followup_rules SET
			name = $2,
			days_offset = $3,
			action_type = $4,
			priority = $5,
			template_id = $6,
			assigned_to_type = $7,
			assigned_to_user_id = $8,
			is_active = $9,
			conditions = $10,
			updated_at = $11
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		rule.ID, rule.Name, rule.DaysOffset, rule.ActionType, rule.Priority,
		rule.TemplateID, rule.AssignedToType, rule.AssignedToUserID, rule.IsActive, rule.Conditions, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update followup rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}

	return nil
}

// Deactivate soft-deactivates a rule so it stops materializing actions.
func (r *RuleRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE followup_rules SET is_active = FALSE, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate followup rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}

	return nil
}

// DeleteRule hard-deletes a rule. Callers must first verify no actions
// reference it; referenced rules are deactivated instead.
func (r *RuleRepository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM followup_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete followup rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}

	return nil
}

// ListRules retrieves all rules, active first, newest within each group.
func (r *RuleRepository) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM followup_rules ORDER BY is_active DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list followup rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// RulesForTrigger retrieves the active rules matching a trigger event and
// entity type. Inactive rules never show up here.
func (r *RuleRepository) RulesForTrigger(ctx context.Context, triggerEvent, entityType string) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM followup_rules
		WHERE trigger_event = $1 AND entity_type = $2 AND is_active = TRUE
		ORDER BY created_at ASC`,
		triggerEvent, entityType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for trigger: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

func collectRules(rows pgx.Rows) ([]Rule, error) {
	var items []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan followup rule: %w", err)
		}
		items = append(items, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate followup rules: %w", err)
	}

	return items, nil
}

// CreateTemplate inserts a new follow-up template.
func (r *RuleRepository) CreateTemplate(ctx context.Context, t *Template) error {
	query := `
		INSERT INTO followup_templates (
			id, name, title, content, trigger_on, applicability, priority, days_offset, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Name, t.Title, t.Content, t.TriggerOn, t.Applicability, t.Priority, t.DaysOffset,
		t.IsActive, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create followup template: %w", err)
	}

	return nil
}

// GetTemplate retrieves a template by its ID.
func (r *RuleRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM followup_templates WHERE id = $1`, id,
	).Scan(
		&t.ID, &t.Name, &t.Title, &t.Content, &t.TriggerOn, &t.Applicability, &t.Priority, &t.DaysOffset,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(templateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get followup template: %w", err)
	}

	return &t, nil
}

// UpdateTemplate updates a template. Historical actions keep the content
// they were materialized with; only future materializations change.
func (r *RuleRepository) UpdateTemplate(ctx context.Context, t *Template) error {
	query := `
		UPDATE followup_templates SET
			name = $2,
			title = $3,
			content = $4,
			priority = $5,
			days_offset = $6,
			is_active = $7,
			updated_at = $8
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		t.ID, t.Name, t.Title, t.Content, t.Priority, t.DaysOffset, t.IsActive, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update followup template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMsg)
	}

	return nil
}

// ListTemplates retrieves all templates.
func (r *RuleRepository) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM followup_templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list followup templates: %w", err)
	}
	defer rows.Close()

	var items []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Title, &t.Content, &t.TriggerOn, &t.Applicability, &t.Priority, &t.DaysOffset,
			&t.IsActive, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan followup template: %w", err)
		}
		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate followup templates: %w", err)
	}

	return items, nil
}

// ToResponse converts a Rule to its transport representation.
func (r *Rule) ToResponse() transport.RuleResponse {
	return transport.RuleResponse{
		ID:               r.ID,
		Name:             r.Name,
		TriggerEvent:     transport.TriggerEvent(r.TriggerEvent),
		EntityType:       transport.EntityType(r.EntityType),
		DaysOffset:       r.DaysOffset,
		ActionType:       transport.ActionType(r.ActionType),
		Priority:         transport.Priority(r.Priority),
		TemplateID:       r.TemplateID,
		AssignedToType:   transport.AssignedToType(r.AssignedToType),
		AssignedToUserID: r.AssignedToUserID,
		IsActive:         r.IsActive,
		Conditions:       r.Conditions,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ToResponse converts a Template to its transport representation.
func (t *Template) ToResponse() transport.TemplateResponse {
	return transport.TemplateResponse{
		ID:            t.ID,
		Name:          t.Name,
		Title:         t.Title,
		Content:       t.Content,
		TriggerOn:     transport.TriggerEvent(t.TriggerOn),
		Applicability: transport.EntityType(t.Applicability),
		Priority:      transport.Priority(t.Priority),
		DaysOffset:    t.DaysOffset,
		IsActive:      t.IsActive,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
