package transport

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus tracks a profile submission through the customer response
// watchdog. Transitions are forward only.
type SubmissionStatus string

const (
	SubmissionPending          SubmissionStatus = "pending"
	SubmissionFollowedUp       SubmissionStatus = "followed_up"
	SubmissionResponseReceived SubmissionStatus = "response_received"
	SubmissionNoResponse       SubmissionStatus = "no_response"
)

// submissionEdges lists the allowed transitions. A submission only reaches
// a terminal state through followed_up: response_received when the customer
// answers, no_response when the staleness sweep gives up on them.
var submissionEdges = map[SubmissionStatus][]SubmissionStatus{
	SubmissionPending:    {SubmissionFollowedUp},
	SubmissionFollowedUp: {SubmissionResponseReceived, SubmissionNoResponse},
}

// CanAdvance reports whether from → to is an allowed transition.
// Re-applying the current status is not an advance.
func CanAdvance(from, to SubmissionStatus) bool {
	return slices.Contains(submissionEdges[from], to)
}

// KnownStatus reports whether the status is part of the watchdog lifecycle.
func KnownStatus(status SubmissionStatus) bool {
	switch status {
	case SubmissionPending, SubmissionFollowedUp, SubmissionResponseReceived, SubmissionNoResponse:
		return true
	}
	return false
}

// CreateSubmissionRequest is the request body for recording a sent profile.
type CreateSubmissionRequest struct {
	ApplicationID uuid.UUID `json:"applicationId" validate:"required"`
	CustomerID    uuid.UUID `json:"customerId" validate:"required"`
}

// UpdateSubmissionStatusRequest is the request body for a watchdog transition.
// no_response is deliberately absent: only the staleness sweep sets it.
type UpdateSubmissionStatusRequest struct {
	Status          SubmissionStatus `json:"status" validate:"required,oneof=pending followed_up response_received"`
	ResponseDetails *string          `json:"responseDetails,omitempty" validate:"omitempty,max=4000"`
}

// ListSubmissionsRequest is the query parameter set for listing submissions.
type ListSubmissionsRequest struct {
	Status *SubmissionStatus `form:"status" validate:"omitempty,oneof=pending followed_up response_received no_response"`
	SentBy *uuid.UUID        `form:"sentBy"`
	Limit  int               `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int               `form:"offset" validate:"omitempty,min=0"`
}

// SubmissionResponse is the response body for a profile submission.
type SubmissionResponse struct {
	ID                 uuid.UUID        `json:"id"`
	ApplicationID      uuid.UUID        `json:"applicationId"`
	CustomerID         uuid.UUID        `json:"customerId"`
	SentBy             uuid.UUID        `json:"sentBy"`
	SentAt             time.Time        `json:"sentAt"`
	Status             SubmissionStatus `json:"status"`
	ResponseReceivedAt *time.Time       `json:"responseReceivedAt,omitempty"`
	ResponseDetails    *string          `json:"responseDetails,omitempty"`
	FollowupActionID   *uuid.UUID       `json:"followupActionId,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}
