package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TriggerEvent identifies the business event that fires follow-up rules.
type TriggerEvent string

const (
	TriggerProfileSent          TriggerEvent = "profile_sent"
	TriggerApplicationReceived  TriggerEvent = "application_received"
	TriggerCandidateAddedToPool TriggerEvent = "candidate_added_to_pool"
	TriggerNoContactElapsed     TriggerEvent = "no_contact_period_elapsed"
	TriggerJobExpiring          TriggerEvent = "job_expiring"
	TriggerStatusChanged        TriggerEvent = "status_changed"
)

// EntityType scopes a rule to one kind of trigger subject.
type EntityType string

const (
	EntityCandidate   EntityType = "candidate"
	EntityApplication EntityType = "application"
	EntityJob         EntityType = "job"
	EntityTalentPool  EntityType = "talent_pool"
)

// ActionType defines the kind of follow-up obligation.
type ActionType string

const (
	ActionCall    ActionType = "call"
	ActionEmail   ActionType = "email"
	ActionMeeting ActionType = "meeting"
	ActionTask    ActionType = "task"
)

// Priority defines the urgency of a follow-up action.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ActionStatus defines the lifecycle state of a follow-up action.
type ActionStatus string

const (
	StatusPending    ActionStatus = "pending"
	StatusInProgress ActionStatus = "in_progress"
	StatusCompleted  ActionStatus = "completed"
	StatusCancelled  ActionStatus = "cancelled"
)

// AssignedToType defines how a rule resolves its assignee.
type AssignedToType string

const (
	AssignSpecificUser AssignedToType = "specific_user"
	AssignCreator      AssignedToType = "creator"
	AssignManager      AssignedToType = "manager"
	AssignRecruiter    AssignedToType = "recruiter"
)

// LogActionType tags entries in the follow-up audit trail.
type LogActionType string

const (
	LogCreate   LogActionType = "create"
	LogUpdate   LogActionType = "update"
	LogComplete LogActionType = "complete"
	LogCancel   LogActionType = "cancel"
	LogRemind   LogActionType = "remind"
)

// TriggerSubject is the tagged union identifying the single entity a
// materialized action is linked to.
type TriggerSubject struct {
	Kind EntityType `json:"kind" validate:"required,oneof=candidate application job talent_pool"`
	ID   uuid.UUID  `json:"id" validate:"required"`
}

// BusinessEvent is the ingress payload handed to the rule engine.
type BusinessEvent struct {
	Type        TriggerEvent   `json:"type" validate:"required,oneof=profile_sent application_received candidate_added_to_pool no_contact_period_elapsed job_expiring status_changed"`
	Subject     TriggerSubject `json:"subject" validate:"required"`
	TriggeredBy uuid.UUID      `json:"triggeredBy" validate:"required"`
}

// CreateRuleRequest is the request body for creating a follow-up rule.
type CreateRuleRequest struct {
	Name             string          `json:"name" validate:"required,min=1,max=200"`
	TriggerEvent     TriggerEvent    `json:"triggerEvent" validate:"required,oneof=profile_sent application_received candidate_added_to_pool no_contact_period_elapsed job_expiring status_changed"`
	EntityType       EntityType      `json:"entityType" validate:"required,oneof=candidate application job talent_pool"`
	DaysOffset       int             `json:"daysOffset" validate:"min=-365,max=365"`
	ActionType       ActionType      `json:"actionType" validate:"required,oneof=call email meeting task"`
	Priority         Priority        `json:"priority" validate:"required,oneof=low medium high"`
	TemplateID       *uuid.UUID      `json:"templateId,omitempty"`
	AssignedToType   AssignedToType  `json:"assignedToType" validate:"required,oneof=specific_user creator manager recruiter"`
	AssignedToUserID *uuid.UUID      `json:"assignedToUserId,omitempty"`
	IsActive         *bool           `json:"isActive,omitempty"`
	Conditions       json.RawMessage `json:"conditions,omitempty"`
}

// UpdateRuleRequest is the request body for updating a follow-up rule.
type UpdateRuleRequest struct {
	Name             *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	DaysOffset       *int            `json:"daysOffset,omitempty" validate:"omitempty,min=-365,max=365"`
	ActionType       *ActionType     `json:"actionType,omitempty" validate:"omitempty,oneof=call email meeting task"`
	Priority         *Priority       `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	TemplateID       *uuid.UUID      `json:"templateId,omitempty"`
	AssignedToType   *AssignedToType `json:"assignedToType,omitempty" validate:"omitempty,oneof=specific_user creator manager recruiter"`
	AssignedToUserID *uuid.UUID      `json:"assignedToUserId,omitempty"`
	IsActive         *bool           `json:"isActive,omitempty"`
	Conditions       json.RawMessage `json:"conditions,omitempty"`
}

// RuleResponse is the response body for a follow-up rule.
type RuleResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	TriggerEvent     TriggerEvent    `json:"triggerEvent"`
	EntityType       EntityType      `json:"entityType"`
	DaysOffset       int             `json:"daysOffset"`
	ActionType       ActionType      `json:"actionType"`
	Priority         Priority        `json:"priority"`
	TemplateID       *uuid.UUID      `json:"templateId,omitempty"`
	AssignedToType   AssignedToType  `json:"assignedToType"`
	AssignedToUserID *uuid.UUID      `json:"assignedToUserId,omitempty"`
	IsActive         bool            `json:"isActive"`
	Conditions       json.RawMessage `json:"conditions,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// CreateTemplateRequest is the request body for creating a follow-up template.
type CreateTemplateRequest struct {
	Name          string       `json:"name" validate:"required,min=1,max=200"`
	Title         string       `json:"title" validate:"required,min=1,max=200"`
	Content       string       `json:"content" validate:"max=4000"`
	TriggerOn     TriggerEvent `json:"triggerOn" validate:"required,oneof=profile_sent application_received candidate_added_to_pool no_contact_period_elapsed job_expiring status_changed"`
	Applicability EntityType   `json:"applicability" validate:"required,oneof=candidate application job talent_pool"`
	Priority      Priority     `json:"priority" validate:"required,oneof=low medium high"`
	DaysOffset    int          `json:"daysOffset" validate:"min=-365,max=365"`
}

// UpdateTemplateRequest is the request body for updating a follow-up template.
// Changes only affect future materializations.
type UpdateTemplateRequest struct {
	Name       *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Title      *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content    *string   `json:"content,omitempty" validate:"omitempty,max=4000"`
	Priority   *Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	DaysOffset *int      `json:"daysOffset,omitempty" validate:"omitempty,min=-365,max=365"`
	IsActive   *bool     `json:"isActive,omitempty"`
}

// TemplateResponse is the response body for a follow-up template.
type TemplateResponse struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	TriggerOn     TriggerEvent `json:"triggerOn"`
	Applicability EntityType   `json:"applicability"`
	Priority      Priority     `json:"priority"`
	DaysOffset    int          `json:"daysOffset"`
	IsActive      bool         `json:"isActive"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// CreateActionRequest is the request body for a user-created follow-up action.
type CreateActionRequest struct {
	Title         string     `json:"title" validate:"required,min=1,max=200"`
	Description   string     `json:"description,omitempty" validate:"max=4000"`
	DueDate       time.Time  `json:"dueDate" validate:"required"`
	Priority      Priority   `json:"priority" validate:"required,oneof=low medium high"`
	ActionType    ActionType `json:"actionType" validate:"required,oneof=call email meeting task"`
	AssignedTo    uuid.UUID  `json:"assignedTo" validate:"required"`
	CandidateID   *uuid.UUID `json:"candidateId,omitempty"`
	ApplicationID *uuid.UUID `json:"applicationId,omitempty"`
	JobID         *uuid.UUID `json:"jobId,omitempty"`
	TalentPoolID  *uuid.UUID `json:"talentPoolId,omitempty"`
	Notes         string     `json:"notes,omitempty" validate:"max=4000"`
}

// UpdateActionRequest is the request body for updating mutable action fields.
type UpdateActionRequest struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=4000"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
	Priority    *Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	ActionType  *ActionType `json:"actionType,omitempty" validate:"omitempty,oneof=call email meeting task"`
	AssignedTo  *uuid.UUID  `json:"assignedTo,omitempty"`
	Notes       *string     `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// UpdateActionStatusRequest is the request body for a status transition.
type UpdateActionStatusRequest struct {
	Status      ActionStatus `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Notes       *string      `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// ListActionsRequest is the query parameter set for listing follow-up actions.
type ListActionsRequest struct {
	UserID           *uuid.UUID    `form:"userId"`
	CandidateID      *uuid.UUID    `form:"candidateId"`
	ApplicationID    *uuid.UUID    `form:"applicationId"`
	JobID            *uuid.UUID    `form:"jobId"`
	TalentPoolID     *uuid.UUID    `form:"talentPoolId"`
	Status           *ActionStatus `form:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority         *Priority     `form:"priority" validate:"omitempty,oneof=low medium high"`
	DueBefore        *time.Time    `form:"dueBefore" time_format:"2006-01-02T15:04:05Z07:00"`
	DueAfter         *time.Time    `form:"dueAfter" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit            int           `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset           int           `form:"offset" validate:"omitempty,min=0"`
	IncludeCompleted bool          `form:"includeCompleted"`
}

// ActionResponse is the response body for a follow-up action.
type ActionResponse struct {
	ID            uuid.UUID    `json:"id"`
	Title         string       `json:"title"`
	Description   *string      `json:"description,omitempty"`
	DueDate       time.Time    `json:"dueDate"`
	Priority      Priority     `json:"priority"`
	ActionType    ActionType   `json:"actionType"`
	AssignedTo    uuid.UUID    `json:"assignedTo"`
	AssignedBy    uuid.UUID    `json:"assignedBy"`
	Status        ActionStatus `json:"status"`
	Completed     bool         `json:"completed"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
	ReminderSent  bool         `json:"reminderSent"`
	ReminderDate  *time.Time   `json:"reminderDate,omitempty"`
	CandidateID   *uuid.UUID   `json:"candidateId,omitempty"`
	ApplicationID *uuid.UUID   `json:"applicationId,omitempty"`
	JobID         *uuid.UUID   `json:"jobId,omitempty"`
	TalentPoolID  *uuid.UUID   `json:"talentPoolId,omitempty"`
	RuleID        *uuid.UUID   `json:"ruleId,omitempty"`
	Notes         *string      `json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// ActionDetails embeds resolved subject names for the details listing.
type ActionDetails struct {
	ActionResponse
	CandidateName  *string `json:"candidateName,omitempty"`
	JobTitle       *string `json:"jobTitle,omitempty"`
	CustomerName   *string `json:"customerName,omitempty"`
	TalentPoolName *string `json:"talentPoolName,omitempty"`
	AssignedToName *string `json:"assignedToName,omitempty"`
}

// ActionListResponse is the envelope for action listings.
type ActionListResponse struct {
	Items  []ActionResponse `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// LogResponse is the response body for an audit trail entry.
type LogResponse struct {
	ID               uuid.UUID     `json:"id"`
	FollowupActionID uuid.UUID     `json:"followupActionId"`
	ActionType       LogActionType `json:"actionType"`
	UserID           *uuid.UUID    `json:"userId,omitempty"`
	Details          string        `json:"details"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// StatsResponse summarizes a user's workload for dashboard widgets.
type StatsResponse struct {
	Overdue   int `json:"overdue"`
	DueToday  int `json:"dueToday"`
	Open      int `json:"open"`
	Completed int `json:"completed"`
}
