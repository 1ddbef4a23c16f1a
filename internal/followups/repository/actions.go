package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Action represents the follow-up action database model.
type Action struct {
	ID            uuid.UUID  `db:"id"`
	Title         string     `db:"title"`
	Description   *string    `db:"description"`
	DueDate       time.Time  `db:"due_date"`
	Priority      string     `db:"priority"`
	ActionType    string     `db:"action_type"`
	AssignedTo    uuid.UUID  `db:"assigned_to"`
	AssignedBy    uuid.UUID  `db:"assigned_by"`
	Status        string     `db:"status"`
	Completed     bool       `db:"completed"`
	CompletedAt   *time.Time `db:"completed_at"`
	ReminderSent  bool       `db:"reminder_sent"`
	ReminderDate  *time.Time `db:"reminder_date"`
	CandidateID   *uuid.UUID `db:"candidate_id"`
	ApplicationID *uuid.UUID `db:"application_id"`
	JobID         *uuid.UUID `db:"job_id"`
	TalentPoolID  *uuid.UUID `db:"talent_pool_id"`
	RuleID        *uuid.UUID `db:"rule_id"`
	Notes         *string    `db:"notes"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

const actionNotFoundMsg = "follow-up action not found"

const actionColumns = `id, title, description, due_date, priority, action_type, assigned_to, assigned_by,
	status, completed, completed_at, reminder_sent, reminder_date,
	candidate_id, application_id, job_id, talent_pool_id, rule_id, notes, created_at, updated_at`

// ActionRepository provides database operations for follow-up actions.
type ActionRepository struct {
	pool *pgxpool.Pool
}

// NewActions creates a new follow-up action repository.
func NewActions(pool *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{pool: pool}
}

func scanAction(row pgx.Row) (*Action, error) {
	var a Action
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.DueDate, &a.Priority, &a.ActionType, &a.AssignedTo, &a.AssignedBy,
		&a.Status, &a.Completed, &a.CompletedAt, &a.ReminderSent, &a.ReminderDate,
		&a.CandidateID, &a.ApplicationID, &a.JobID, &a.TalentPoolID, &a.RuleID, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new follow-up action.
func (r *ActionRepository) Create(ctx context.Context, a *Action) error {
	query := `
		INSERT INTO followup_actions (
			id, title, description, due_date, priority, action_type, assigned_to, assigned_by,
			status, completed, completed_at, reminder_sent, reminder_date,
			candidate_id, application_id, job_id, talent_pool_id, rule_id, notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Title, a.Description, a.DueDate, a.Priority, a.ActionType, a.AssignedTo, a.AssignedBy,
		a.Status, a.Completed, a.CompletedAt, a.ReminderSent, a.ReminderDate,
		a.CandidateID, a.ApplicationID, a.JobID, a.TalentPoolID, a.RuleID, a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create followup action: %w", err)
	}

	return nil
}

// GetByID retrieves a follow-up action by its ID.
func (r *ActionRepository) GetByID(ctx context.Context, id uuid.UUID) (*Action, error) {
	query := `SELECT ` + actionColumns + ` FROM followup_actions WHERE id = $1`

	a, err := scanAction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(actionNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get followup action: %w", err)
	}

	return a, nil
}

// Update updates the mutable fields of a follow-up action.
func (r *ActionRepository) Update(ctx context.Context, a *Action) error {
	query := `
		UPDATE followup_actions SET
			title = $2,
			description = $3,
			due_date = $4,
			priority = $5,
			action_type = $6,
			assigned_to = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		a.ID, a.Title, a.Description, a.DueDate, a.Priority, a.ActionType, a.AssignedTo, a.Notes, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update followup action: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(actionNotFoundMsg)
	}

	return nil
}

// UpdateStatusFrom transitions an action's status with a compare-and-set
// guard on the expected current status. Returns false when no row matched,
// meaning the action is missing or a concurrent writer got there first.
func (r *ActionRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to transport.ActionStatus, completedAt *time.Time) (bool, error) {
	completed := to == transport.StatusCompleted
	if !completed {
		completedAt = nil
	}

	query := `
		UPDATE followup_actions SET
			status = $3,
			completed = $4,
			completed_at = $5,
			updated_at = now()
		WHERE id = $1 AND status = $2`

	result, err := r.pool.Exec(ctx, query, id, string(from), string(to), completed, completedAt)
	if err != nil {
		return false, fmt.Errorf("failed to update followup action status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetNotes overwrites the notes of a follow-up action.
func (r *ActionRepository) SetNotes(ctx context.Context, id uuid.UUID, notes string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE followup_actions SET notes = $2, updated_at = now() WHERE id = $1`,
		id, notes,
	)
	if err != nil {
		return fmt.Errorf("failed to set followup action notes: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(actionNotFoundMsg)
	}

	return nil
}

// MarkReminderSent claims the reminder flag for an action. The reminder_sent
// guard makes the claim atomic: a second sweep sees zero rows affected and
// skips the item.
func (r *ActionRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE followup_actions
		SET reminder_sent = TRUE, reminder_date = $2, updated_at = now()
		WHERE id = $1 AND reminder_sent = FALSE`,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// DueForReminder lists actions that are due, still open, and have no
// reminder sent yet.
func (r *ActionRepository) DueForReminder(ctx context.Context, now time.Time, limit int) ([]Action, error) {
	if limit < 1 {
		limit = 100
	}

	query := `SELECT ` + actionColumns + `
		FROM followup_actions
		WHERE due_date <= $1 AND status IN ('pending', 'in_progress') AND reminder_sent = FALSE
		ORDER BY due_date ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due followup actions: %w", err)
	}
	defer rows.Close()

	return collectActions(rows)
}

// ListParams contains filter parameters for listing follow-up actions.
type ListParams struct {
	UserID           *uuid.UUID
	CandidateID      *uuid.UUID
	ApplicationID    *uuid.UUID
	JobID            *uuid.UUID
	TalentPoolID     *uuid.UUID
	Status           *string
	Priority         *string
	DueBefore        *time.Time
	DueAfter         *time.Time
	Limit            int
	Offset           int
	IncludeCompleted bool
}

// List retrieves follow-up actions ordered by ascending due date. Completed
// actions are excluded unless an explicit status filter or IncludeCompleted
// asks for them.
func (r *ActionRepository) List(ctx context.Context, params ListParams) ([]Action, int, error) {
	baseQuery := `FROM followup_actions WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	addFilter(&baseQuery, &args, &argIndex, params.UserID != nil, " AND assigned_to = $%d", derefUUID(params.UserID))
	addFilter(&baseQuery, &args, &argIndex, params.CandidateID != nil, " AND candidate_id = $%d", derefUUID(params.CandidateID))
	addFilter(&baseQuery, &args, &argIndex, params.ApplicationID != nil, " AND application_id = $%d", derefUUID(params.ApplicationID))
	addFilter(&baseQuery, &args, &argIndex, params.JobID != nil, " AND job_id = $%d", derefUUID(params.JobID))
	addFilter(&baseQuery, &args, &argIndex, params.TalentPoolID != nil, " AND talent_pool_id = $%d", derefUUID(params.TalentPoolID))
	addFilter(&baseQuery, &args, &argIndex, params.Status != nil, " AND status = $%d", derefString(params.Status))
	addFilter(&baseQuery, &args, &argIndex, params.Priority != nil, " AND priority = $%d", derefString(params.Priority))
	addFilter(&baseQuery, &args, &argIndex, params.DueBefore != nil, " AND due_date <= $%d", derefTime(params.DueBefore))
	addFilter(&baseQuery, &args, &argIndex, params.DueAfter != nil, " AND due_date >= $%d", derefTime(params.DueAfter))

	if params.Status == nil && !params.IncludeCompleted {
		baseQuery += " AND status != 'completed'"
	}

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count followup actions: %w", err)
	}

	limit := params.Limit
	if limit < 1 {
		limit = 50
	}

	selectQuery := fmt.Sprintf(`SELECT `+actionColumns+` %s ORDER BY due_date ASC LIMIT $%d OFFSET $%d`,
		baseQuery, argIndex, argIndex+1)
	args = append(args, limit, params.Offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list followup actions: %w", err)
	}
	defer rows.Close()

	items, err := collectActions(rows)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// DeleteCompleted removes completed actions for a user (explicit cleanup).
func (r *ActionRepository) DeleteCompleted(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM followup_actions WHERE assigned_to = $1 AND status = 'completed'`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed followup actions: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountByRule reports how many actions reference a rule. Used to decide
// between hard delete and soft deactivation.
func (r *ActionRepository) CountByRule(ctx context.Context, ruleID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM followup_actions WHERE rule_id = $1`, ruleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count actions for rule: %w", err)
	}

	return count, nil
}

// Stats returns workload counts for one assignee.
func (r *ActionRepository) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (transport.StatsResponse, error) {
	var stats transport.StatsResponse
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status IN ('pending', 'in_progress') AND due_date < $2),
			COUNT(*) FILTER (WHERE status IN ('pending', 'in_progress') AND due_date >= $3 AND due_date < $4),
			COUNT(*) FILTER (WHERE status IN ('pending', 'in_progress')),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM followup_actions WHERE assigned_to = $1`,
		userID, now, dayStart, dayEnd,
	).Scan(&stats.Overdue, &stats.DueToday, &stats.Open, &stats.Completed)
	if err != nil {
		return transport.StatsResponse{}, fmt.Errorf("failed to compute followup stats: %w", err)
	}

	return stats, nil
}

func collectActions(rows pgx.Rows) ([]Action, error) {
	var items []Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan followup action: %w", err)
		}
		items = append(items, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate followup actions: %w", err)
	}

	return items, nil
}

// ToResponse converts an Action to its transport representation.
func (a *Action) ToResponse() transport.ActionResponse {
	return transport.ActionResponse{
		ID:            a.ID,
		Title:         a.Title,
		Description:   a.Description,
		DueDate:       a.DueDate,
		Priority:      transport.Priority(a.Priority),
		ActionType:    transport.ActionType(a.ActionType),
		AssignedTo:    a.AssignedTo,
		AssignedBy:    a.AssignedBy,
		Status:        transport.ActionStatus(a.Status),
		Completed:     a.Completed,
		CompletedAt:   a.CompletedAt,
		ReminderSent:  a.ReminderSent,
		ReminderDate:  a.ReminderDate,
		CandidateID:   a.CandidateID,
		ApplicationID: a.ApplicationID,
		JobID:         a.JobID,
		TalentPoolID:  a.TalentPoolID,
		RuleID:        a.RuleID,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func addFilter(baseQuery *string, args *[]interface{}, argIndex *int, apply bool, clause string, value interface{}) {
	if !apply {
		return
	}
	*baseQuery += fmt.Sprintf(clause, *argIndex)
	*args = append(*args, value)
	*argIndex++
}

func derefUUID(value *uuid.UUID) uuid.UUID {
	if value == nil {
		return uuid.UUID{}
	}
	return *value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}
