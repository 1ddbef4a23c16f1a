// Package notification implements the notification gateway consumed by the
// follow-up engine. The default channel is an in-app notification store;
// an SMTP channel can be layered on top for high-priority reminders.
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Notification is a "notify user" request.
type Notification struct {
	UserID   uuid.UUID
	Title    string
	Message  string
	Type     string
	Priority string
	Link     string
}

// Gateway accepts notify-user requests. A nil id with a nil error does not
// occur: dispatch either yields an id or an error, and callers must not mark
// a reminder as sent unless they got an id back.
type Gateway interface {
	NotifyUser(ctx context.Context, n Notification) (*uuid.UUID, error)
}
