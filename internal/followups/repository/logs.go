package repository

import (
	"context"
	"fmt"
	"time"

	"recruit_portal_backend/internal/followups/transport"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Log represents one entry in the append-only follow-up audit trail.
type Log struct {
	ID               uuid.UUID  `db:"id"`
	FollowupActionID uuid.UUID  `db:"followup_action_id"`
	ActionType       string     `db:"action_type"`
	UserID           *uuid.UUID `db:"user_id"`
	Details          string     `db:"details"`
	CreatedAt        time.Time  `db:"created_at"`
}

// LogRepository provides append and read operations for the audit trail.
// Entries are never updated or deleted.
type LogRepository struct {
	pool *pgxpool.Pool
}

// NewLogs creates a new audit trail repository.
func NewLogs(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Append writes a new audit entry.
func (r *LogRepository) Append(ctx context.Context, actionID uuid.UUID, logType transport.LogActionType, userID *uuid.UUID, details string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO followup_logs (id, followup_action_id, action_type, user_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		uuid.New(), actionID, string(logType), userID, details,
	)
	if err != nil {
		return fmt.Errorf("failed to append followup log: %w", err)
	}

	return nil
}

// ListForAction retrieves the audit trail for one action, oldest first.
func (r *LogRepository) ListForAction(ctx context.Context, actionID uuid.UUID) ([]Log, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, followup_action_id, action_type, user_id, details, created_at
		FROM followup_logs
		WHERE followup_action_id = $1
		ORDER BY created_at ASC`,
		actionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list followup logs: %w", err)
	}
	defer rows.Close()

	var items []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.FollowupActionID, &l.ActionType, &l.UserID, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan followup log: %w", err)
		}
		items = append(items, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate followup logs: %w", err)
	}

	return items, nil
}

// ToResponse converts a Log to its transport representation.
func (l *Log) ToResponse() transport.LogResponse {
	return transport.LogResponse{
		ID:               l.ID,
		FollowupActionID: l.FollowupActionID,
		ActionType:       transport.LogActionType(l.ActionType),
		UserID:           l.UserID,
		Details:          l.Details,
		CreatedAt:        l.CreatedAt,
	}
}
