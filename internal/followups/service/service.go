package service

import (
	"context"
	"time"

	"recruit_portal_backend/internal/events"
	"recruit_portal_backend/internal/followups/repository"
	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// AssigneeResolver resolves the responsible manager/recruiter for an entity.
// A nil result means unresolved; the engine falls back to the acting user.
type AssigneeResolver interface {
	ResolveAssignee(ctx context.Context, role string, entityType string, entityID uuid.UUID) (*uuid.UUID, error)
}

// SubjectNames resolves display names for action subjects.
type SubjectNames interface {
	CandidateName(ctx context.Context, candidateID uuid.UUID) string
	JobTitle(ctx context.Context, jobID uuid.UUID) string
	TalentPoolName(ctx context.Context, poolID uuid.UUID) string
	UserName(ctx context.Context, userID uuid.UUID) string
}

// SubmissionCascader flips a linked profile submission to followed_up when
// its follow-up action completes.
type SubmissionCascader interface {
	MarkFollowedUpByAction(ctx context.Context, actionID uuid.UUID) error
}

// ActionStore is the persistence surface the service needs for actions.
// *repository.ActionRepository satisfies it.
type ActionStore interface {
	Create(ctx context.Context, a *repository.Action) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Action, error)
	Update(ctx context.Context, a *repository.Action) error
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to transport.ActionStatus, completedAt *time.Time) (bool, error)
	SetNotes(ctx context.Context, id uuid.UUID, notes string) error
	List(ctx context.Context, params repository.ListParams) ([]repository.Action, int, error)
	DeleteCompleted(ctx context.Context, userID uuid.UUID) (int64, error)
	CountByRule(ctx context.Context, ruleID uuid.UUID) (int, error)
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (transport.StatsResponse, error)
}

// LogStore is the persistence surface for the append-only audit trail.
// *repository.LogRepository satisfies it.
type LogStore interface {
	Append(ctx context.Context, actionID uuid.UUID, logType transport.LogActionType, userID *uuid.UUID, details string) error
	ListForAction(ctx context.Context, actionID uuid.UUID) ([]repository.Log, error)
}

// Service provides business logic for follow-up rules, templates and actions.
type Service struct {
	actions  ActionStore
	rules    *repository.RuleRepository
	logs     LogStore
	resolver AssigneeResolver
	names    SubjectNames
	cascader SubmissionCascader
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new follow-ups service.
func New(actions ActionStore, rules *repository.RuleRepository, logs LogStore, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		actions: actions,
		rules:   rules,
		logs:    logs,
		bus:     bus,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetAssigneeResolver wires the manager/recruiter resolution collaborator.
func (s *Service) SetAssigneeResolver(resolver AssigneeResolver) {
	s.resolver = resolver
}

// SetSubjectNames wires the display name lookups for detail listings.
func (s *Service) SetSubjectNames(names SubjectNames) {
	s.names = names
}

// SetSubmissionCascader wires the profile submission cascade.
func (s *Service) SetSubmissionCascader(cascader SubmissionCascader) {
	s.cascader = cascader
}

// SetTimeSource overrides the clock; tests inject fixed time here.
func (s *Service) SetTimeSource(now func() time.Time) {
	s.now = now
}

// GetAction retrieves a single follow-up action.
func (s *Service) GetAction(ctx context.Context, id uuid.UUID) (*transport.ActionResponse, error) {
	action, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := action.ToResponse()
	return &resp, nil
}

// ListActions retrieves follow-up actions matching the filter, ordered by
// ascending due date. Completed actions are excluded unless asked for.
func (s *Service) ListActions(ctx context.Context, req transport.ListActionsRequest) (*transport.ActionListResponse, error) {
	items, total, err := s.actions.List(ctx, listParams(req))
	if err != nil {
		return nil, err
	}

	responses := make([]transport.ActionResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}

	return &transport.ActionListResponse{
		Items:  responses,
		Total:  total,
		Limit:  normalizedLimit(req.Limit),
		Offset: req.Offset,
	}, nil
}

// ListActionsWithDetails retrieves actions with resolved subject names.
func (s *Service) ListActionsWithDetails(ctx context.Context, req transport.ListActionsRequest) ([]transport.ActionDetails, int, error) {
	items, total, err := s.actions.List(ctx, listParams(req))
	if err != nil {
		return nil, 0, err
	}

	details := make([]transport.ActionDetails, 0, len(items))
	for i := range items {
		details = append(details, s.decorate(ctx, &items[i]))
	}

	return details, total, nil
}

func (s *Service) decorate(ctx context.Context, action *repository.Action) transport.ActionDetails {
	d := transport.ActionDetails{ActionResponse: action.ToResponse()}
	if s.names == nil {
		return d
	}

	if action.CandidateID != nil {
		name := s.names.CandidateName(ctx, *action.CandidateID)
		d.CandidateName = &name
	}
	if action.JobID != nil {
		title := s.names.JobTitle(ctx, *action.JobID)
		d.JobTitle = &title
	}
	if action.TalentPoolID != nil {
		name := s.names.TalentPoolName(ctx, *action.TalentPoolID)
		d.TalentPoolName = &name
	}
	assignee := s.names.UserName(ctx, action.AssignedTo)
	d.AssignedToName = &assignee

	return d
}

// Stats returns workload counts for one assignee.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (transport.StatsResponse, error) {
	return s.actions.Stats(ctx, userID, s.now())
}

// Logs retrieves the audit trail for an action, oldest first.
func (s *Service) Logs(ctx context.Context, actionID uuid.UUID) ([]transport.LogResponse, error) {
	items, err := s.logs.ListForAction(ctx, actionID)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.LogResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}

	return responses, nil
}

// CleanupCompleted removes a user's completed actions (explicit user cleanup
// only; nothing else deletes actions).
func (s *Service) CleanupCompleted(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.actions.DeleteCompleted(ctx, userID)
}

func listParams(req transport.ListActionsRequest) repository.ListParams {
	params := repository.ListParams{
		UserID:           req.UserID,
		CandidateID:      req.CandidateID,
		ApplicationID:    req.ApplicationID,
		JobID:            req.JobID,
		TalentPoolID:     req.TalentPoolID,
		DueBefore:        req.DueBefore,
		DueAfter:         req.DueAfter,
		Limit:            normalizedLimit(req.Limit),
		Offset:           req.Offset,
		IncludeCompleted: req.IncludeCompleted,
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := string(*req.Priority)
		params.Priority = &priority
	}
	return params
}

func normalizedLimit(limit int) int {
	if limit < 1 {
		return 50
	}
	return limit
}
