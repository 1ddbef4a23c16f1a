package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SyncEntityType identifies the external system a sync setting drives.
type SyncEntityType string

const (
	EntityJobPortal   SyncEntityType = "job_portal"
	EntitySocialMedia SyncEntityType = "social_media"
	EntityEmail       SyncEntityType = "email"
	EntityMovido      SyncEntityType = "movido"
)

// IntervalType describes how the next fire time is computed.
type IntervalType string

const (
	IntervalHourly IntervalType = "hourly"
	IntervalDaily  IntervalType = "daily"
	IntervalWeekly IntervalType = "weekly"
	IntervalCustom IntervalType = "custom"
)

// IntervalUnit is the unit for custom intervals.
type IntervalUnit string

const (
	UnitMinutes IntervalUnit = "minutes"
	UnitHours   IntervalUnit = "hours"
	UnitDays    IntervalUnit = "days"
)

// TaskStatus tracks a scheduled task through execution.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the task status accepts no further transitions
// besides the cancelled → pending re-enable.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// CreateSyncSettingsRequest is the request body for a new sync setting.
type CreateSyncSettingsRequest struct {
	EntityType        SyncEntityType  `json:"entityType" validate:"required,oneof=job_portal social_media email movido"`
	EntityID          string          `json:"entityId" validate:"required,min=1,max=200"`
	SyncIntervalType  IntervalType    `json:"syncIntervalType" validate:"required,oneof=hourly daily weekly custom"`
	SyncIntervalValue *int            `json:"syncIntervalValue,omitempty" validate:"omitempty,min=1,max=10000"`
	SyncIntervalUnit  *IntervalUnit   `json:"syncIntervalUnit,omitempty" validate:"omitempty,oneof=minutes hours days"`
	Enabled           *bool           `json:"enabled,omitempty"`
	Config            json.RawMessage `json:"config,omitempty"`
}

// UpdateSyncSettingsRequest is the request body for updating a sync setting.
type UpdateSyncSettingsRequest struct {
	SyncIntervalType  *IntervalType   `json:"syncIntervalType,omitempty" validate:"omitempty,oneof=hourly daily weekly custom"`
	SyncIntervalValue *int            `json:"syncIntervalValue,omitempty" validate:"omitempty,min=1,max=10000"`
	SyncIntervalUnit  *IntervalUnit   `json:"syncIntervalUnit,omitempty" validate:"omitempty,oneof=minutes hours days"`
	Enabled           *bool           `json:"enabled,omitempty"`
	Config            json.RawMessage `json:"config,omitempty"`
}

// SyncSettingsResponse is the response body for a sync setting.
type SyncSettingsResponse struct {
	ID                uuid.UUID       `json:"id"`
	EntityType        SyncEntityType  `json:"entityType"`
	EntityID          string          `json:"entityId"`
	SyncIntervalType  IntervalType    `json:"syncIntervalType"`
	SyncIntervalValue *int            `json:"syncIntervalValue,omitempty"`
	SyncIntervalUnit  *IntervalUnit   `json:"syncIntervalUnit,omitempty"`
	Enabled           bool            `json:"enabled"`
	LastRun           *time.Time      `json:"lastRun,omitempty"`
	Config            json.RawMessage `json:"config,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ListTasksRequest is the query parameter set for listing scheduled tasks.
type ListTasksRequest struct {
	Status     *TaskStatus     `form:"status" validate:"omitempty,oneof=pending running completed failed cancelled"`
	EntityType *SyncEntityType `form:"entityType" validate:"omitempty,oneof=job_portal social_media email movido"`
	Limit      int             `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset     int             `form:"offset" validate:"omitempty,min=0"`
}

// TaskResponse is the response body for a scheduled task.
type TaskResponse struct {
	ID             uuid.UUID  `json:"id"`
	SyncSettingsID *uuid.UUID `json:"syncSettingsId,omitempty"`
	EntityType     string     `json:"entityType"`
	EntityID       string     `json:"entityId"`
	TaskType       string     `json:"taskType"`
	ScheduledFor   time.Time  `json:"scheduledFor"`
	Status         TaskStatus `json:"status"`
	LastError      *string    `json:"lastError,omitempty"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
