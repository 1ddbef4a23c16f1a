package notification

import (
	"context"
	"fmt"

	"recruit_portal_backend/internal/events"
	"recruit_portal_backend/internal/notification/email"
	"recruit_portal_backend/internal/notification/inapp"
	"recruit_portal_backend/platform/config"
	"recruit_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserEmailReader resolves a user's email address for the SMTP channel.
type UserEmailReader interface {
	UserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// Module is the default Gateway implementation: every notification lands in
// the in-app store; high-priority ones are additionally mailed when email is
// enabled. The in-app insert is the dispatch — the email leg is best effort.
type Module struct {
	repo        *inapp.Repository
	sender      email.Sender
	emailReader UserEmailReader
	baseURL     string
	log         *logger.Logger
}

// New creates the notification module.
func New(pool *pgxpool.Pool, sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		repo:    inapp.NewRepository(pool),
		sender:  sender,
		baseURL: cfg.GetAppBaseURL(),
		log:     log,
	}
}

// SetUserEmailReader wires the optional email address lookup.
func (m *Module) SetUserEmailReader(reader UserEmailReader) {
	m.emailReader = reader
}

// Repository exposes the in-app store for the HTTP handler.
func (m *Module) Repository() *inapp.Repository {
	return m.repo
}

// NotifyUser implements Gateway.
func (m *Module) NotifyUser(ctx context.Context, n Notification) (*uuid.UUID, error) {
	var link *string
	if n.Link != "" {
		link = &n.Link
	}

	created, err := m.repo.Create(ctx, inapp.CreateParams{
		UserID:   n.UserID,
		Title:    n.Title,
		Message:  n.Message,
		Type:     n.Type,
		Priority: n.Priority,
		Link:     link,
	})
	if err != nil {
		return nil, err
	}

	if n.Priority == "high" && m.emailReader != nil {
		m.sendEmailLeg(ctx, n)
	}

	return &created.ID, nil
}

func (m *Module) sendEmailLeg(ctx context.Context, n Notification) {
	address, err := m.emailReader.UserEmail(ctx, n.UserID)
	if err != nil || address == "" {
		return
	}

	body := n.Message
	if n.Link != "" {
		body = fmt.Sprintf("%s\n\n%s%s", n.Message, m.baseURL, n.Link)
	}

	if err := m.sender.SendReminder(ctx, address, n.Title, body); err != nil {
		m.log.Warn("reminder email failed", "user_id", n.UserID, "error", err)
	}
}

// RegisterHandlers subscribes the module to the domain events that produce
// notifications.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.FollowupActionAssigned{}.EventName(), events.HandlerFunc(m.handleActionAssigned))
	bus.Subscribe(events.ProfileSubmissionNoResponse{}.EventName(), events.HandlerFunc(m.handleNoResponse))
}

func (m *Module) handleActionAssigned(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.FollowupActionAssigned)
	if !ok {
		return nil
	}

	_, err := m.NotifyUser(ctx, Notification{
		UserID:   evt.AssignedTo,
		Title:    "Neue Nachfassaktion zugewiesen",
		Message:  fmt.Sprintf("%s (fällig am %s)", evt.Title, evt.DueDate.Format("02.01.2006")),
		Type:     "followup_assigned",
		Priority: evt.Priority,
		Link:     fmt.Sprintf("/followups/%s", evt.ActionID),
	})
	return err
}

func (m *Module) handleNoResponse(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.ProfileSubmissionNoResponse)
	if !ok {
		return nil
	}

	_, err := m.NotifyUser(ctx, Notification{
		UserID:   evt.SentBy,
		Title:    "Keine Rückmeldung vom Kunden",
		Message:  "Ein gesendetes Kandidatenprofil ist seit 5 Tagen unbeantwortet.",
		Type:     "submission_no_response",
		Priority: "medium",
		Link:     fmt.Sprintf("/submissions/%s", evt.SubmissionID),
	})
	return err
}
