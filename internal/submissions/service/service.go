package service

import (
	"context"
	"fmt"
	"time"

	"recruit_portal_backend/internal/events"
	followuptransport "recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/internal/lookup"
	"recruit_portal_backend/internal/submissions/repository"
	"recruit_portal_backend/internal/submissions/transport"
	"recruit_portal_backend/platform/apperr"
	"recruit_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// followupDueDays is how many days after sending a profile the recruiter
// gets a call action to chase the customer.
const followupDueDays = 2

// FollowupActions is the slice of the follow-up service the watchdog needs.
type FollowupActions interface {
	CreateAction(ctx context.Context, req followuptransport.CreateActionRequest, createdBy uuid.UUID) (*followuptransport.ActionResponse, error)
	Complete(ctx context.Context, id uuid.UUID, actingUserID uuid.UUID, notes *string) (*followuptransport.ActionResponse, error)
}

// ApplicationLookups resolves display names for the action notes.
type ApplicationLookups interface {
	ApplicationContext(ctx context.Context, applicationID uuid.UUID) lookup.ApplicationContext
}

// Service tracks customer responses to sent candidate profiles.
type Service struct {
	repo      *repository.Repository
	followups FollowupActions
	lookups   ApplicationLookups
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new profile submission service.
func New(repo *repository.Repository, followups FollowupActions, lookups ApplicationLookups, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		followups: followups,
		lookups:   lookups,
		bus:       bus,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetTimeSource overrides the clock; tests inject fixed time here.
func (s *Service) SetTimeSource(now func() time.Time) {
	s.now = now
}

// Create records a sent candidate profile and schedules the chase call two
// days out. The action and the submission reference each other.
func (s *Service) Create(ctx context.Context, req transport.CreateSubmissionRequest, sentBy uuid.UUID) (*transport.SubmissionResponse, error) {
	sentAt := s.now()
	names := s.lookups.ApplicationContext(ctx, req.ApplicationID)

	action, err := s.followups.CreateAction(ctx, followuptransport.CreateActionRequest{
		Title: fmt.Sprintf("Nachfassen: Profil von %s", names.CandidateName),
		Description: fmt.Sprintf("Profil von %s für die Stelle %s wurde an %s gesendet. Rückmeldung des Kunden prüfen.",
			names.CandidateName, names.JobTitle, names.CustomerName),
		DueDate:       sentAt.AddDate(0, 0, followupDueDays),
		Priority:      followuptransport.PriorityHigh,
		ActionType:    followuptransport.ActionCall,
		AssignedTo:    sentBy,
		ApplicationID: &req.ApplicationID,
	}, sentBy)
	if err != nil {
		return nil, fmt.Errorf("create chase action: %w", err)
	}

	submission := &repository.Submission{
		ID:               uuid.New(),
		ApplicationID:    req.ApplicationID,
		CustomerID:       req.CustomerID,
		SentBy:           sentBy,
		SentAt:           sentAt,
		Status:           string(transport.SubmissionPending),
		FollowupActionID: &action.ID,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ProfileSubmissionCreated{
		BaseEvent:     events.NewBaseEvent(),
		SubmissionID:  submission.ID,
		ApplicationID: submission.ApplicationID,
		CustomerID:    submission.CustomerID,
		SentBy:        sentBy,
	})

	resp := submission.ToResponse()
	return &resp, nil
}

// GetByID retrieves a single submission.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.SubmissionResponse, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := submission.ToResponse()
	return &resp, nil
}

// List retrieves submissions matching the filter.
func (s *Service) List(ctx context.Context, req transport.ListSubmissionsRequest) ([]transport.SubmissionResponse, int, error) {
	params := repository.ListParams{
		SentBy: req.SentBy,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]transport.SubmissionResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}
	return responses, total, nil
}

// UpdateStatus advances a submission through the watchdog lifecycle.
// Transitions only move forward; re-applying the current status is a no-op
// success. A response_received transition stamps the response time, stores
// the details and completes the linked chase action.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateSubmissionStatusRequest, actingUserID uuid.UUID) (*transport.SubmissionResponse, error) {
	if !transport.KnownStatus(req.Status) {
		return nil, apperr.Validation("unknown submission status: " + string(req.Status))
	}
	if req.Status == transport.SubmissionNoResponse {
		return nil, apperr.Validation("no_response is set by the staleness sweep and cannot be requested directly")
	}

	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current := transport.SubmissionStatus(submission.Status)

	if current == req.Status {
		resp := submission.ToResponse()
		return &resp, nil
	}
	if !transport.CanAdvance(current, req.Status) {
		return nil, apperr.Conflict(fmt.Sprintf("submission cannot move from %s to %s", current, req.Status))
	}

	var responseAt *time.Time
	if req.Status == transport.SubmissionResponseReceived {
		at := s.now()
		responseAt = &at
	}

	changed, err := s.repo.UpdateStatusFrom(ctx, id, current, req.Status, responseAt, req.ResponseDetails)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperr.Conflict("submission changed concurrently")
	}

	if req.Status == transport.SubmissionResponseReceived {
		s.completeChaseAction(ctx, submission, actingUserID, req.ResponseDetails)
	}

	return s.GetByID(ctx, id)
}

func (s *Service) completeChaseAction(ctx context.Context, submission *repository.Submission, actingUserID uuid.UUID, details *string) {
	if submission.FollowupActionID == nil {
		return
	}

	note := "Antwort erhalten"
	if details != nil && *details != "" {
		note = "Antwort erhalten: " + *details
	}
	if _, err := s.followups.Complete(ctx, *submission.FollowupActionID, actingUserID, &note); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return
		}
		s.log.Error("complete chase action",
			"submission_id", submission.ID,
			"action_id", *submission.FollowupActionID,
			"error", err,
		)
	}
}

// MarkFollowedUpByAction flips the submission linked to a completed chase
// action from pending to followed_up. Submissions already past that point
// are left alone.
func (s *Service) MarkFollowedUpByAction(ctx context.Context, actionID uuid.UUID) error {
	submission, err := s.repo.GetByActionID(ctx, actionID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}

	current := transport.SubmissionStatus(submission.Status)
	if !transport.CanAdvance(current, transport.SubmissionFollowedUp) {
		return nil
	}

	_, err = s.repo.UpdateStatusFrom(ctx, submission.ID, current, transport.SubmissionFollowedUp, nil, nil)
	return err
}

// ListStale returns followed-up submissions without a customer response
// since the cutoff; the staleness sweep consumes this.
func (s *Service) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]repository.Submission, error) {
	return s.repo.ListStale(ctx, cutoff, limit)
}

// MarkNoResponse flags one stale submission. The conditional update keeps
// concurrent sweeps from double-firing the notification event.
func (s *Service) MarkNoResponse(ctx context.Context, submission *repository.Submission) (bool, error) {
	changed, err := s.repo.UpdateStatusFrom(ctx, submission.ID,
		transport.SubmissionFollowedUp, transport.SubmissionNoResponse, nil, nil)
	if err != nil || !changed {
		return false, err
	}

	s.bus.Publish(ctx, events.ProfileSubmissionNoResponse{
		BaseEvent:     events.NewBaseEvent(),
		SubmissionID:  submission.ID,
		ApplicationID: submission.ApplicationID,
		CustomerID:    submission.CustomerID,
		SentBy:        submission.SentBy,
	})
	return true, nil
}
