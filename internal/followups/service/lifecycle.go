package service

import (
	"context"
	"fmt"
	"time"

	"recruit_portal_backend/internal/events"
	"recruit_portal_backend/internal/followups/domain"
	"recruit_portal_backend/internal/followups/repository"
	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// CreateAction creates a follow-up action directly, outside the rule engine.
// At most one subject link may be set.
func (s *Service) CreateAction(ctx context.Context, req transport.CreateActionRequest, createdBy uuid.UUID) (*transport.ActionResponse, error) {
	if countSubjects(req.CandidateID, req.ApplicationID, req.JobID, req.TalentPoolID) > 1 {
		return nil, apperr.Validation("an action can reference at most one linked entity")
	}

	now := s.now()
	action := &repository.Action{
		ID:            uuid.New(),
		Title:         req.Title,
		DueDate:       req.DueDate,
		Priority:      string(req.Priority),
		ActionType:    string(req.ActionType),
		AssignedTo:    req.AssignedTo,
		AssignedBy:    createdBy,
		Status:        string(transport.StatusPending),
		CandidateID:   req.CandidateID,
		ApplicationID: req.ApplicationID,
		JobID:         req.JobID,
		TalentPoolID:  req.TalentPoolID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Description != "" {
		d := req.Description
		action.Description = &d
	}
	if req.Notes != "" {
		n := req.Notes
		action.Notes = &n
	}

	if err := s.actions.Create(ctx, action); err != nil {
		return nil, err
	}

	if err := s.logs.Append(ctx, action.ID, transport.LogCreate, &createdBy, "Manuell erstellt"); err != nil {
		s.log.Error("append create log", "action_id", action.ID, "error", err)
	}
	s.publishCreated(ctx, action, createdBy)

	resp := action.ToResponse()
	return &resp, nil
}

// UpdateAction applies a partial update to an action's mutable fields. Status
// changes go through UpdateStatus.
func (s *Service) UpdateAction(ctx context.Context, id uuid.UUID, req transport.UpdateActionRequest, actingUserID uuid.UUID) (*transport.ActionResponse, error) {
	action, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.IsTerminal(transport.ActionStatus(action.Status)) {
		return nil, apperr.Conflict("completed or cancelled actions cannot be edited")
	}

	previousAssignee := action.AssignedTo
	if req.Title != nil {
		action.Title = *req.Title
	}
	if req.Description != nil {
		action.Description = req.Description
	}
	if req.DueDate != nil {
		action.DueDate = *req.DueDate
	}
	if req.Priority != nil {
		action.Priority = string(*req.Priority)
	}
	if req.ActionType != nil {
		action.ActionType = string(*req.ActionType)
	}
	if req.AssignedTo != nil {
		action.AssignedTo = *req.AssignedTo
	}
	if req.Notes != nil {
		action.Notes = req.Notes
	}
	action.UpdatedAt = s.now()

	if err := s.actions.Update(ctx, action); err != nil {
		return nil, err
	}

	if err := s.logs.Append(ctx, action.ID, transport.LogUpdate, &actingUserID, "Aktion aktualisiert"); err != nil {
		s.log.Error("append update log", "action_id", action.ID, "error", err)
	}

	if action.AssignedTo != previousAssignee && action.AssignedTo != actingUserID {
		s.bus.Publish(ctx, events.FollowupActionAssigned{
			BaseEvent:  events.NewBaseEvent(),
			ActionID:   action.ID,
			AssignedTo: action.AssignedTo,
			AssignedBy: actingUserID,
			Title:      action.Title,
			DueDate:    action.DueDate,
			Priority:   action.Priority,
		})
	}

	resp := action.ToResponse()
	return &resp, nil
}

// UpdateStatus transitions an action through the lifecycle state machine.
// Re-applying the terminal state an action is already in succeeds without
// side effects; no second audit entry is written.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateActionStatusRequest, actingUserID uuid.UUID) (*transport.ActionResponse, error) {
	target := req.Status
	if !domain.KnownStatus(target) {
		return nil, apperr.Validation("unknown status: " + string(target))
	}

	action, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current := transport.ActionStatus(action.Status)

	if current == target && domain.IsTerminal(target) {
		resp := action.ToResponse()
		return &resp, nil
	}
	if !domain.CanTransition(current, target) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot transition from %s to %s", current, target))
	}

	var completedAt *time.Time
	if target == transport.StatusCompleted {
		at := s.now()
		if req.CompletedAt != nil {
			at = *req.CompletedAt
		}
		completedAt = &at
	}

	changed, err := s.actions.UpdateStatusFrom(ctx, id, current, target, completedAt)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race; if the other writer landed on the same terminal
		// state this is still a success.
		action, err = s.actions.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if transport.ActionStatus(action.Status) != target {
			return nil, apperr.Conflict(fmt.Sprintf("action changed concurrently, now %s", action.Status))
		}
		resp := action.ToResponse()
		return &resp, nil
	}

	if req.Notes != nil {
		if err := s.actions.SetNotes(ctx, id, *req.Notes); err != nil {
			s.log.Error("set notes", "action_id", id, "error", err)
		}
	}

	logType := domain.LogTypeForTransition(target)
	if err := s.logs.Append(ctx, id, logType, &actingUserID, "Status: "+string(target)); err != nil {
		s.log.Error("append status log", "action_id", id, "error", err)
	}

	if target == transport.StatusCompleted {
		s.bus.Publish(ctx, events.FollowupActionCompleted{
			BaseEvent:   events.NewBaseEvent(),
			ActionID:    id,
			CompletedBy: actingUserID,
		})
		if s.cascader != nil {
			if err := s.cascader.MarkFollowedUpByAction(ctx, id); err != nil {
				s.log.Error("submission cascade on completion", "action_id", id, "error", err)
			}
		}
	}

	return s.GetAction(ctx, id)
}

// Complete marks an action completed, recording optional notes.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actingUserID uuid.UUID, notes *string) (*transport.ActionResponse, error) {
	return s.UpdateStatus(ctx, id, transport.UpdateActionStatusRequest{
		Status: transport.StatusCompleted,
		Notes:  notes,
	}, actingUserID)
}

// Cancel marks an action cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actingUserID uuid.UUID) (*transport.ActionResponse, error) {
	return s.UpdateStatus(ctx, id, transport.UpdateActionStatusRequest{
		Status: transport.StatusCancelled,
	}, actingUserID)
}

func countSubjects(ids ...*uuid.UUID) int {
	n := 0
	for _, id := range ids {
		if id != nil {
			n++
		}
	}
	return n
}
