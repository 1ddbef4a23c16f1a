package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recruit_portal_backend/internal/synctasks/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SyncSettings represents the recurring sync configuration database model.
type SyncSettings struct {
	ID                uuid.UUID       `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          string          `db:"entity_id"`
	SyncIntervalType  string          `db:"sync_interval_type"`
	SyncIntervalValue *int            `db:"sync_interval_value"`
	SyncIntervalUnit  *string         `db:"sync_interval_unit"`
	Enabled           bool            `db:"enabled"`
	LastRun           *time.Time      `db:"last_run"`
	Config            json.RawMessage `db:"config"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

const settingsNotFoundMsg = "sync settings not found"

const settingsColumns = `id, entity_type, entity_id, sync_interval_type, sync_interval_value,
	sync_interval_unit, enabled, last_run, config, created_at, updated_at`

// SettingsRepository provides database operations for sync settings.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettings creates a new sync settings repository.
func NewSettings(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func scanSettings(row pgx.Row) (*SyncSettings, error) {
	var s SyncSettings
	err := row.Scan(
		&s.ID, &s.EntityType, &s.EntityID, &s.SyncIntervalType, &s.SyncIntervalValue,
		&s.SyncIntervalUnit, &s.Enabled, &s.LastRun, &s.Config, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new sync setting.
func (r *SettingsRepository) Create(ctx context.Context, s *SyncSettings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sync_settings (
			id, entity_type, entity_id, sync_interval_type, sync_interval_value,
			sync_interval_unit, enabled, config, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		s.ID, s.EntityType, s.EntityID, s.SyncIntervalType, s.SyncIntervalValue,
		s.SyncIntervalUnit, s.Enabled, s.Config,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync settings: %w", err)
	}
	return nil
}

// GetByID retrieves a sync setting by ID.
func (r *SettingsRepository) GetByID(ctx context.Context, id uuid.UUID) (*SyncSettings, error) {
	s, err := scanSettings(r.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM sync_settings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(settingsNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get sync settings: %w", err)
	}
	return s, nil
}

// Update persists interval, enabled flag and config changes.
func (r *SettingsRepository) Update(ctx context.Context, s *SyncSettings) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE sync_settings SET
			sync_interval_type = $2, sync_interval_value = $3, sync_interval_unit = $4,
			enabled = $5, config = $6, updated_at = now()
		WHERE id = $1`,
		s.ID, s.SyncIntervalType, s.SyncIntervalValue, s.SyncIntervalUnit, s.Enabled, s.Config,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync settings: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(settingsNotFoundMsg)
	}
	return nil
}

// Delete removes a sync setting. Historical tasks keep a null reference.
func (r *SettingsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sync_settings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync settings: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(settingsNotFoundMsg)
	}
	return nil
}

// List retrieves all sync settings.
func (r *SettingsRepository) List(ctx context.Context) ([]SyncSettings, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+settingsColumns+` FROM sync_settings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync settings: %w", err)
	}
	defer rows.Close()
	return collectSettings(rows)
}

// ListEnabled retrieves the settings the recurring sweep evaluates.
func (r *SettingsRepository) ListEnabled(ctx context.Context) ([]SyncSettings, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+settingsColumns+` FROM sync_settings WHERE enabled = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled sync settings: %w", err)
	}
	defer rows.Close()
	return collectSettings(rows)
}

// StampLastRun records a successful sync completion.
func (r *SettingsRepository) StampLastRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sync_settings SET last_run = $2, updated_at = now() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to stamp last run: %w", err)
	}
	return nil
}

func collectSettings(rows pgx.Rows) ([]SyncSettings, error) {
	var items []SyncSettings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync settings: %w", err)
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sync settings: %w", err)
	}
	return items, nil
}

// ToResponse converts the database model to its transport representation.
func (s *SyncSettings) ToResponse() transport.SyncSettingsResponse {
	resp := transport.SyncSettingsResponse{
		ID:                s.ID,
		EntityType:        transport.SyncEntityType(s.EntityType),
		EntityID:          s.EntityID,
		SyncIntervalType:  transport.IntervalType(s.SyncIntervalType),
		SyncIntervalValue: s.SyncIntervalValue,
		Enabled:           s.Enabled,
		LastRun:           s.LastRun,
		Config:            s.Config,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.SyncIntervalUnit != nil {
		unit := transport.IntervalUnit(*s.SyncIntervalUnit)
		resp.SyncIntervalUnit = &unit
	}
	return resp
}
