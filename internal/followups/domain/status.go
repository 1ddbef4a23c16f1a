// Package domain holds the pure follow-up state machine rules, kept free of
// persistence and transport concerns so they can be tested in isolation.
package domain

import (
	"time"

	"recruit_portal_backend/internal/followups/transport"
)

// validTransitions is the full follow-up action state machine. Terminal
// states have no outgoing edges; idempotent re-entry is handled by callers.
var validTransitions = map[transport.ActionStatus][]transport.ActionStatus{
	transport.StatusPending:    {transport.StatusInProgress, transport.StatusCompleted, transport.StatusCancelled},
	transport.StatusInProgress: {transport.StatusCompleted, transport.StatusCancelled},
	transport.StatusCompleted:  {},
	transport.StatusCancelled:  {},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to transport.ActionStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status transport.ActionStatus) bool {
	return len(validTransitions[status]) == 0
}

// KnownStatus reports whether the status is part of the state machine.
func KnownStatus(status transport.ActionStatus) bool {
	_, ok := validTransitions[status]
	return ok
}

// DueDate computes the due instant for a rule offset: the same wall-clock
// time daysOffset days from now. Negative offsets schedule before an expiry.
func DueDate(now time.Time, daysOffset int) time.Time {
	return now.AddDate(0, 0, daysOffset)
}

// LogTypeForTransition maps a target status to its audit trail tag.
func LogTypeForTransition(to transport.ActionStatus) transport.LogActionType {
	switch to {
	case transport.StatusCompleted:
		return transport.LogComplete
	case transport.StatusCancelled:
		return transport.LogCancel
	default:
		return transport.LogUpdate
	}
}
