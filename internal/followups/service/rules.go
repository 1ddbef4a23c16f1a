package service

import (
	"context"
	"fmt"

	"recruit_portal_backend/internal/events"
	"recruit_portal_backend/internal/followups/domain"
	"recruit_portal_backend/internal/followups/repository"
	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// OnBusinessEvent runs the rule engine for one business event: every active
// rule matching the trigger and entity type materializes into one follow-up
// action. A failing rule is logged and skipped so the remaining rules still
// fire.
func (s *Service) OnBusinessEvent(ctx context.Context, evt transport.BusinessEvent) ([]uuid.UUID, error) {
	rules, err := s.rules.RulesForTrigger(ctx, string(evt.Type), string(evt.Subject.Kind))
	if err != nil {
		return nil, fmt.Errorf("load rules for trigger %s: %w", evt.Type, err)
	}

	created := make([]uuid.UUID, 0, len(rules))
	for i := range rules {
		actionID, err := s.Materialize(ctx, &rules[i], evt.Subject, evt.TriggeredBy)
		if err != nil {
			s.log.Error("rule materialization failed",
				"rule_id", rules[i].ID,
				"trigger", evt.Type,
				"subject_id", evt.Subject.ID,
				"error", err,
			)
			continue
		}
		if actionID != nil {
			created = append(created, *actionID)
		}
	}

	return created, nil
}

// Materialize turns one rule into one follow-up action for the given subject.
// Inactive rules never produce actions; the nil, nil return is the no-op.
func (s *Service) Materialize(ctx context.Context, rule *repository.Rule, subject transport.TriggerSubject, actingUserID uuid.UUID) (*uuid.UUID, error) {
	if !rule.IsActive {
		return nil, nil
	}
	if rule.EntityType != string(subject.Kind) {
		return nil, apperr.Validation(fmt.Sprintf("rule targets %s entities, got %s", rule.EntityType, subject.Kind))
	}

	title := "Nachfassaktion: " + rule.Name
	var description *string
	if rule.TemplateID != nil {
		template, err := s.rules.GetTemplate(ctx, *rule.TemplateID)
		switch {
		case err == nil:
			if template.Title != "" {
				title = template.Title
			}
			if template.Content != "" {
				content := template.Content
				description = &content
			}
		case apperr.IsKind(err, apperr.KindNotFound):
			// Dangling template reference; fall back to the rule defaults.
			s.log.Warn("rule references missing template", "rule_id", rule.ID, "template_id", *rule.TemplateID)
		default:
			return nil, err
		}
	}

	assignee, err := s.resolveAssignee(ctx, rule, subject, actingUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	action := &repository.Action{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		DueDate:     domain.DueDate(now, rule.DaysOffset),
		Priority:    rule.Priority,
		ActionType:  rule.ActionType,
		AssignedTo:  assignee,
		AssignedBy:  actingUserID,
		Status:      string(transport.StatusPending),
		RuleID:      &rule.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	linkSubject(action, subject)

	if err := s.actions.Create(ctx, action); err != nil {
		return nil, fmt.Errorf("create action for rule %s: %w", rule.ID, err)
	}

	if err := s.logs.Append(ctx, action.ID, transport.LogCreate, &actingUserID,
		fmt.Sprintf("Automatisch erstellt durch Regel %q", rule.Name)); err != nil {
		s.log.Error("append create log", "action_id", action.ID, "error", err)
	}

	s.publishCreated(ctx, action, actingUserID)

	return &action.ID, nil
}

func (s *Service) resolveAssignee(ctx context.Context, rule *repository.Rule, subject transport.TriggerSubject, actingUserID uuid.UUID) (uuid.UUID, error) {
	switch transport.AssignedToType(rule.AssignedToType) {
	case transport.AssignSpecificUser:
		if rule.AssignedToUserID == nil {
			return uuid.Nil, apperr.Validation("rule assigns to a specific user but none is set")
		}
		return *rule.AssignedToUserID, nil
	case transport.AssignCreator:
		return actingUserID, nil
	case transport.AssignManager, transport.AssignRecruiter:
		if s.resolver == nil {
			return actingUserID, nil
		}
		resolved, err := s.resolver.ResolveAssignee(ctx, rule.AssignedToType, string(subject.Kind), subject.ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("resolve %s for %s %s: %w", rule.AssignedToType, subject.Kind, subject.ID, err)
		}
		if resolved == nil {
			// Nobody responsible on record; the actor keeps the action.
			return actingUserID, nil
		}
		return *resolved, nil
	default:
		return uuid.Nil, apperr.Validation("unknown assignment type: " + rule.AssignedToType)
	}
}

func linkSubject(action *repository.Action, subject transport.TriggerSubject) {
	id := subject.ID
	switch subject.Kind {
	case transport.EntityCandidate:
		action.CandidateID = &id
	case transport.EntityApplication:
		action.ApplicationID = &id
	case transport.EntityJob:
		action.JobID = &id
	case transport.EntityTalentPool:
		action.TalentPoolID = &id
	}
}

func (s *Service) publishCreated(ctx context.Context, action *repository.Action, actingUserID uuid.UUID) {
	s.bus.Publish(ctx, events.FollowupActionCreated{
		BaseEvent:  events.NewBaseEvent(),
		ActionID:   action.ID,
		RuleID:     action.RuleID,
		AssignedTo: action.AssignedTo,
		AssignedBy: actingUserID,
		Title:      action.Title,
		DueDate:    action.DueDate,
		Priority:   action.Priority,
	})
	if action.AssignedTo != actingUserID {
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
}

// CreateRule creates a new follow-up rule.
func (s *Service) CreateRule(ctx context.Context, req transport.CreateRuleRequest, createdBy uuid.UUID) (*transport.RuleResponse, error) {
	if req.AssignedToType == transport.AssignSpecificUser && req.AssignedToUserID == nil {
		return nil, apperr.Validation("assignedToUserId is required for specific_user assignment")
	}
	if req.TemplateID != nil {
		if _, err := s.rules.GetTemplate(ctx, *req.TemplateID); err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return nil, apperr.Validation("referenced template does not exist")
			}
			return nil, err
		}
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := s.now()
	rule := &repository.Rule{
		ID:               uuid.New(),
		Name:             req.Name,
		TriggerEvent:     string(req.TriggerEvent),
		EntityType:       string(req.EntityType),
		DaysOffset:       req.DaysOffset,
		ActionType:       string(req.ActionType),
		Priority:         string(req.Priority),
		TemplateID:       req.TemplateID,
		AssignedToType:   string(req.AssignedToType),
		AssignedToUserID: req.AssignedToUserID,
		IsActive:         isActive,
		Conditions:       req.Conditions,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.rules.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	resp := rule.ToResponse()
	return &resp, nil
}

// GetRule retrieves a single rule.
func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*transport.RuleResponse, error) {
	rule, err := s.rules.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := rule.ToResponse()
	return &resp, nil
}

// ListRules retrieves all rules, active first.
func (s *Service) ListRules(ctx context.Context) ([]transport.RuleResponse, error) {
	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.RuleResponse, 0, len(rules))
	for i := range rules {
		responses = append(responses, rules[i].ToResponse())
	}

	return responses, nil
}

// UpdateRule applies a partial update to a rule.
func (s *Service) UpdateRule(ctx context.Context, id uuid.UUID, req transport.UpdateRuleRequest) (*transport.RuleResponse, error) {
	rule, err := s.rules.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.DaysOffset != nil {
		rule.DaysOffset = *req.DaysOffset
	}
	if req.ActionType != nil {
		rule.ActionType = string(*req.ActionType)
	}
	if req.Priority != nil {
		rule.Priority = string(*req.Priority)
	}
	if req.TemplateID != nil {
		rule.TemplateID = req.TemplateID
	}
	if req.AssignedToType != nil {
		rule.AssignedToType = string(*req.AssignedToType)
	}
	if req.AssignedToUserID != nil {
		rule.AssignedToUserID = req.AssignedToUserID
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.Conditions != nil {
		rule.Conditions = req.Conditions
	}

	if rule.AssignedToType == string(transport.AssignSpecificUser) && rule.AssignedToUserID == nil {
		return nil, apperr.Validation("assignedToUserId is required for specific_user assignment")
	}
	rule.UpdatedAt = s.now()

	if err := s.rules.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}

	resp := rule.ToResponse()
	return &resp, nil
}

// DeleteRule removes a rule. A rule that already materialized actions is
// deactivated instead so the audit trail keeps its reference.
func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	count, err := s.actions.CountByRule(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return s.rules.Deactivate(ctx, id)
	}

	return s.rules.DeleteRule(ctx, id)
}

// CreateTemplate creates a new follow-up template.
func (s *Service) CreateTemplate(ctx context.Context, req transport.CreateTemplateRequest) (*transport.TemplateResponse, error) {
	now := s.now()
	t := &repository.Template{
		ID:            uuid.New(),
		Name:          req.Name,
		Title:         req.Title,
		Content:       req.Content,
		TriggerOn:     string(req.TriggerOn),
		Applicability: string(req.Applicability),
		Priority:      string(req.Priority),
		DaysOffset:    req.DaysOffset,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.rules.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}

	resp := t.ToResponse()
	return &resp, nil
}

// GetTemplate retrieves a single template.
func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*transport.TemplateResponse, error) {
	t, err := s.rules.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := t.ToResponse()
	return &resp, nil
}

// ListTemplates retrieves all templates.
func (s *Service) ListTemplates(ctx context.Context) ([]transport.TemplateResponse, error) {
	templates, err := s.rules.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.TemplateResponse, 0, len(templates))
	for i := range templates {
		responses = append(responses, templates[i].ToResponse())
	}

	return responses, nil
}

// UpdateTemplate applies a partial update to a template.
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, req transport.UpdateTemplateRequest) (*transport.TemplateResponse, error) {
	t, err := s.rules.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Content != nil {
		t.Content = *req.Content
	}
	if req.Priority != nil {
		t.Priority = string(*req.Priority)
	}
	if req.DaysOffset != nil {
		t.DaysOffset = *req.DaysOffset
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	t.UpdatedAt = s.now()

	if err := s.rules.UpdateTemplate(ctx, t); err != nil {
		return nil, err
	}

	resp := t.ToResponse()
	return &resp, nil
}
