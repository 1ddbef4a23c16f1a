package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recruit_portal_backend/internal/submissions/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Submission represents the profile submission watchdog database model.
type Submission struct {
	ID                 uuid.UUID  `db:"id"`
	ApplicationID      uuid.UUID  `db:"application_id"`
	CustomerID         uuid.UUID  `db:"customer_id"`
	SentBy             uuid.UUID  `db:"sent_by"`
	SentAt             time.Time  `db:"sent_at"`
	Status             string     `db:"status"`
	ResponseReceivedAt *time.Time `db:"response_received_at"`
	ResponseDetails    *string    `db:"response_details"`
	FollowupActionID   *uuid.UUID `db:"followup_action_id"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

const submissionNotFoundMsg = "profile submission not found"

const submissionColumns = `id, application_id, customer_id, sent_by, sent_at, status,
	response_received_at, response_details, followup_action_id, created_at, updated_at`

// Repository provides database operations for profile submissions.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new profile submission repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var s Submission
	err := row.Scan(
		&s.ID, &s.ApplicationID, &s.CustomerID, &s.SentBy, &s.SentAt, &s.Status,
		&s.ResponseReceivedAt, &s.ResponseDetails, &s.FollowupActionID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new profile submission record.
func (r *Repository) Create(ctx context.Context, s *Submission) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profile_submission_followups (
			id, application_id, customer_id, sent_by, sent_at, status,
			followup_action_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		s.ID, s.ApplicationID, s.CustomerID, s.SentBy, s.SentAt, s.Status, s.FollowupActionID,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM profile_submission_followups WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(submissionNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get profile submission: %w", err)
	}
	return s, nil
}

// GetByActionID retrieves the submission linked to a follow-up action.
func (r *Repository) GetByActionID(ctx context.Context, actionID uuid.UUID) (*Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM profile_submission_followups WHERE followup_action_id = $1`, actionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(submissionNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get profile submission by action: %w", err)
	}
	return s, nil
}

// UpdateStatusFrom advances a submission only when it is still in the
// expected state. Response metadata is stamped when provided. The false
// return means another writer moved it first.
func (r *Repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to transport.SubmissionStatus, responseAt *time.Time, details *string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE profile_submission_followups
		SET status = $3,
		    response_received_at = COALESCE($4, response_received_at),
		    response_details = COALESCE($5, response_details),
		    updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, from, to, responseAt, details,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update profile submission status: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListStale retrieves followed-up submissions whose profile went out on or
// before the cutoff and that still have no customer response.
func (r *Repository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]Submission, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM profile_submission_followups
		WHERE status = $1 AND sent_at <= $2
		ORDER BY sent_at ASC
		LIMIT $3`,
		transport.SubmissionFollowedUp, cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale submissions: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// ListParams filters the submission listing.
type ListParams struct {
	Status *string
	SentBy *uuid.UUID
	Limit  int
	Offset int
}

// List retrieves submissions, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Submission, int, error) {
	baseQuery := `FROM profile_submission_followups WHERE 1=1`
	args := []interface{}{}

	if params.Status != nil {
		args = append(args, *params.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if params.SentBy != nil {
		args = append(args, *params.SentBy)
		baseQuery += fmt.Sprintf(" AND sent_by = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	limit := params.Limit
	if limit < 1 {
		limit = 50
	}
	args = append(args, limit, params.Offset)
	query := `SELECT ` + submissionColumns + ` ` + baseQuery +
		fmt.Sprintf(" ORDER BY sent_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	items, err := collectSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collectSubmissions(rows pgx.Rows) ([]Submission, error) {
	var items []Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read submissions: %w", err)
	}
	return items, nil
}

// ToResponse converts the database model to its transport representation.
func (s *Submission) ToResponse() transport.SubmissionResponse {
	return transport.SubmissionResponse{
		ID:                 s.ID,
		ApplicationID:      s.ApplicationID,
		CustomerID:         s.CustomerID,
		SentBy:             s.SentBy,
		SentAt:             s.SentAt,
		Status:             transport.SubmissionStatus(s.Status),
		ResponseReceivedAt: s.ResponseReceivedAt,
		ResponseDetails:    s.ResponseDetails,
		FollowupActionID:   s.FollowupActionID,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
