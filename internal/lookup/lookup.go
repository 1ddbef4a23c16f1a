// Package lookup provides read-only joins against entities owned by the
// surrounding application (candidates, applications, jobs, customers,
// talent pools, users). Lookups degrade to a placeholder when the referenced
// row is missing; they never fail a caller over display data.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Placeholder is returned when a referenced entity cannot be resolved.
const Placeholder = "Nicht angegeben"

// Repository provides the read-only entity lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new lookup repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) scanName(ctx context.Context, query string, id uuid.UUID) string {
	var name *string
	err := r.pool.QueryRow(ctx, query, id).Scan(&name)
	if err != nil || name == nil || *name == "" {
		return Placeholder
	}
	return *name
}

// CandidateName resolves a candidate's display name.
func (r *Repository) CandidateName(ctx context.Context, candidateID uuid.UUID) string {
	return r.scanName(ctx,
		`SELECT TRIM(CONCAT(first_name, ' ', last_name)) FROM candidates WHERE id = $1`,
		candidateID,
	)
}

// JobTitle resolves a job's title.
func (r *Repository) JobTitle(ctx context.Context, jobID uuid.UUID) string {
	return r.scanName(ctx, `SELECT title FROM jobs WHERE id = $1`, jobID)
}

// CustomerName resolves a customer's company name.
func (r *Repository) CustomerName(ctx context.Context, customerID uuid.UUID) string {
	return r.scanName(ctx, `SELECT company_name FROM customers WHERE id = $1`, customerID)
}

// TalentPoolName resolves a talent pool's name.
func (r *Repository) TalentPoolName(ctx context.Context, poolID uuid.UUID) string {
	return r.scanName(ctx, `SELECT name FROM talent_pools WHERE id = $1`, poolID)
}

// UserName resolves a user's display name.
func (r *Repository) UserName(ctx context.Context, userID uuid.UUID) string {
	return r.scanName(ctx,
		`SELECT TRIM(CONCAT(first_name, ' ', last_name)) FROM users WHERE id = $1`,
		userID,
	)
}

// UserEmail resolves a user's email address. Unlike the name lookups this
// returns an error: callers decide whether a missing address is fatal.
func (r *Repository) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var address string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(email, '') FROM users WHERE id = $1`, userID).Scan(&address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user email: %w", err)
	}

	return address, nil
}

// ApplicationContext bundles the names around one application for templating.
type ApplicationContext struct {
	CandidateName string
	JobTitle      string
	CustomerName  string
}

// ApplicationContext resolves candidate, job and customer names for an
// application in one query. Missing pieces fall back to the placeholder.
func (r *Repository) ApplicationContext(ctx context.Context, applicationID uuid.UUID) ApplicationContext {
	result := ApplicationContext{
		CandidateName: Placeholder,
		JobTitle:      Placeholder,
		CustomerName:  Placeholder,
	}

	var candidateName, jobTitle, customerName *string
	err := r.pool.QueryRow(ctx, `
		SELECT
			TRIM(CONCAT(c.first_name, ' ', c.last_name)),
			j.title,
			cu.company_name
		FROM applications a
		LEFT JOIN candidates c ON c.id = a.candidate_id
		LEFT JOIN jobs j ON j.id = a.job_id
		LEFT JOIN customers cu ON cu.id = j.customer_id
		WHERE a.id = $1`,
		applicationID,
	).Scan(&candidateName, &jobTitle, &customerName)
	if err != nil {
		return result
	}

	if candidateName != nil && *candidateName != "" {
		result.CandidateName = *candidateName
	}
	if jobTitle != nil && *jobTitle != "" {
		result.JobTitle = *jobTitle
	}
	if customerName != nil && *customerName != "" {
		result.CustomerName = *customerName
	}

	return result
}

// ResolveAssignee resolves the manager or recruiter responsible for an
// entity. A nil result means no resolution was possible and the caller
// should fall back to the triggering actor.
func (r *Repository) ResolveAssignee(ctx context.Context, role string, entityType string, entityID uuid.UUID) (*uuid.UUID, error) {
	var query string
	switch {
	case role == "recruiter" && entityType == "application":
		query = `SELECT recruiter_id FROM applications WHERE id = $1`
	case role == "recruiter" && entityType == "candidate":
		query = `SELECT recruiter_id FROM candidates WHERE id = $1`
	case role == "manager" && entityType == "job":
		query = `SELECT manager_id FROM jobs WHERE id = $1`
	case role == "manager" && entityType == "talent_pool":
		query = `SELECT owner_id FROM talent_pools WHERE id = $1`
	default:
		return nil, nil
	}

	var assignee *uuid.UUID
	err := r.pool.QueryRow(ctx, query, entityID).Scan(&assignee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}

	return assignee, nil
}
