// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"recruit_portal_backend/platform/events"
	"recruit_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Follow-up Domain Events
// =============================================================================

// FollowupActionCreated is published when a follow-up action is materialized
// by the rule engine or created directly by a user.
type FollowupActionCreated struct {
	BaseEvent
	ActionID   uuid.UUID  `json:"actionId"`
	RuleID     *uuid.UUID `json:"ruleId,omitempty"`
	AssignedTo uuid.UUID  `json:"assignedTo"`
	AssignedBy uuid.UUID  `json:"assignedBy"`
	Title      string     `json:"title"`
	DueDate    time.Time  `json:"dueDate"`
	Priority   string     `json:"priority"`
}

func (e FollowupActionCreated) EventName() string { return "followups.action.created" }

// FollowupActionAssigned is published when an action lands on someone other
// than the actor who triggered it; the notification module handles it.
type FollowupActionAssigned struct {
	BaseEvent
	ActionID   uuid.UUID `json:"actionId"`
	AssignedTo uuid.UUID `json:"assignedTo"`
	AssignedBy uuid.UUID `json:"assignedBy"`
	Title      string    `json:"title"`
	DueDate    time.Time `json:"dueDate"`
	Priority   string    `json:"priority"`
}

func (e FollowupActionAssigned) EventName() string { return "followups.action.assigned" }

// FollowupActionCompleted is published when an action reaches its terminal
// completed state.
type FollowupActionCompleted struct {
	BaseEvent
	ActionID    uuid.UUID `json:"actionId"`
	CompletedBy uuid.UUID `json:"completedBy"`
}

func (e FollowupActionCompleted) EventName() string { return "followups.action.completed" }

// =============================================================================
// Profile Submission Domain Events
// =============================================================================

// ProfileSubmissionCreated is published when a candidate profile is sent to
// a customer and the watchdog record is created.
type ProfileSubmissionCreated struct {
	BaseEvent
	SubmissionID  uuid.UUID `json:"submissionId"`
	ApplicationID uuid.UUID `json:"applicationId"`
	CustomerID    uuid.UUID `json:"customerId"`
	SentBy        uuid.UUID `json:"sentBy"`
}

func (e ProfileSubmissionCreated) EventName() string { return "submissions.created" }

// ProfileSubmissionNoResponse is published when the staleness sweep flags a
// submission as unanswered.
type ProfileSubmissionNoResponse struct {
	BaseEvent
	SubmissionID  uuid.UUID `json:"submissionId"`
	ApplicationID uuid.UUID `json:"applicationId"`
	CustomerID    uuid.UUID `json:"customerId"`
	SentBy        uuid.UUID `json:"sentBy"`
}

func (e ProfileSubmissionNoResponse) EventName() string { return "submissions.no_response" }

// =============================================================================
// Scheduled Task Domain Events
// =============================================================================

// SyncTaskCompleted is published when a scheduled sync task finishes.
type SyncTaskCompleted struct {
	BaseEvent
	TaskID     uuid.UUID `json:"taskId"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	TaskType   string    `json:"taskType"`
}

func (e SyncTaskCompleted) EventName() string { return "synctasks.completed" }

// SyncTaskFailed is published when a scheduled sync task fails; the next
// interval fire retries the work.
type SyncTaskFailed struct {
	BaseEvent
	TaskID     uuid.UUID `json:"taskId"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	TaskType   string    `json:"taskType"`
	Reason     string    `json:"reason"`
}

func (e SyncTaskFailed) EventName() string { return "synctasks.failed" }
