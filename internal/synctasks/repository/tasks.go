package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recruit_portal_backend/internal/synctasks/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Task represents the scheduled task database model.
type Task struct {
	ID             uuid.UUID  `db:"id"`
	SyncSettingsID *uuid.UUID `db:"sync_settings_id"`
	EntityType     string     `db:"entity_type"`
	EntityID       string     `db:"entity_id"`
	TaskType       string     `db:"task_type"`
	ScheduledFor   time.Time  `db:"scheduled_for"`
	Status         string     `db:"status"`
	LastError      *string    `db:"last_error"`
	StartedAt      *time.Time `db:"started_at"`
	FinishedAt     *time.Time `db:"finished_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

const taskNotFoundMsg = "scheduled task not found"

const taskColumns = `id, sync_settings_id, entity_type, entity_id, task_type, scheduled_for,
	status, last_error, started_at, finished_at, created_at, updated_at`

// TaskRepository provides database operations for scheduled tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTasks creates a new scheduled task repository.
func NewTasks(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.SyncSettingsID, &t.EntityType, &t.EntityID, &t.TaskType, &t.ScheduledFor,
		&t.Status, &t.LastError, &t.StartedAt, &t.FinishedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateIfAbsent inserts a pending task unless a non-terminal task already
// exists for the same entity and fire time. The unique partial index is the
// duplicate guard; a conflict reports false without error.
func (r *TaskRepository) CreateIfAbsent(ctx context.Context, t *Task) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		INSERT INTO scheduled_tasks (
			id, sync_settings_id, entity_type, entity_id, task_type, scheduled_for,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 'pending', now(), now())
		ON CONFLICT (entity_type, entity_id, scheduled_for)
			WHERE status IN ('pending', 'running') DO NOTHING`,
		t.ID, t.SyncSettingsID, t.EntityType, t.EntityID, t.TaskType, t.ScheduledFor,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create scheduled task: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// GetByID retrieves a scheduled task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(taskNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get scheduled task: %w", err)
	}
	return t, nil
}

// ClaimRunning moves a pending task to running. Exactly one of the
// concurrent claimers wins; everyone else gets false.
func (r *TaskRepository) ClaimRunning(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE scheduled_tasks
		SET status = 'running', started_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim scheduled task: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkCompleted finishes a running task.
func (r *TaskRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE scheduled_tasks
		SET status = 'completed', finished_at = $2, last_error = NULL, updated_at = now()
		WHERE id = $1 AND status = 'running'`,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete scheduled task: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkFailed finishes a running task with an error. The next interval fire
// retries the work through a fresh task.
func (r *TaskRepository) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, reason string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE scheduled_tasks
		SET status = 'failed', finished_at = $2, last_error = $3, updated_at = now()
		WHERE id = $1 AND status = 'running'`,
		id, at, reason,
	)
	if err != nil {
		return false, fmt.Errorf("failed to fail scheduled task: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// UpdateStatusFrom applies a generic guarded transition; cancel and
// re-enable go through here.
func (r *TaskRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to transport.TaskStatus) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE scheduled_tasks
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update scheduled task status: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListParams filters the task listing.
type ListParams struct {
	Status     *string
	EntityType *string
	Limit      int
	Offset     int
}

// List retrieves scheduled tasks, soonest fire time first.
func (r *TaskRepository) List(ctx context.Context, params ListParams) ([]Task, int, error) {
	baseQuery := `FROM scheduled_tasks WHERE 1=1`
	args := []interface{}{}

	if params.Status != nil {
		args = append(args, *params.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if params.EntityType != nil {
		args = append(args, *params.EntityType)
		baseQuery += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count scheduled tasks: %w", err)
	}

	limit := params.Limit
	if limit < 1 {
		limit = 50
	}
	args = append(args, limit, params.Offset)
	query := `SELECT ` + taskColumns + ` ` + baseQuery +
		fmt.Sprintf(" ORDER BY scheduled_for ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scheduled tasks: %w", err)
	}
	defer rows.Close()

	var items []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan scheduled task: %w", err)
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read scheduled tasks: %w", err)
	}
	return items, total, nil
}

// ToResponse converts the database model to its transport representation.
func (t *Task) ToResponse() transport.TaskResponse {
	return transport.TaskResponse{
		ID:             t.ID,
		SyncSettingsID: t.SyncSettingsID,
		EntityType:     t.EntityType,
		EntityID:       t.EntityID,
		TaskType:       t.TaskType,
		ScheduledFor:   t.ScheduledFor,
		Status:         transport.TaskStatus(t.Status),
		LastError:      t.LastError,
		StartedAt:      t.StartedAt,
		FinishedAt:     t.FinishedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
