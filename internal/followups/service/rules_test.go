package service

import (
	"context"
	"testing"

	"recruit_portal_backend/internal/followups/repository"
	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeResolver struct {
	result  *uuid.UUID
	gotRole string
	gotKind string
}

func (f *fakeResolver) ResolveAssignee(ctx context.Context, role, entityType string, entityID uuid.UUID) (*uuid.UUID, error) {
	f.gotRole = role
	f.gotKind = entityType
	return f.result, nil
}

func TestMaterialize_InactiveRuleCreatesNothing(t *testing.T) {
	s := &Service{}
	rule := &repository.Rule{IsActive: false}

	created, err := s.Materialize(context.Background(), rule, transport.TriggerSubject{Kind: transport.EntityCandidate, ID: uuid.New()}, uuid.New())
	if err != nil {
		t.Fatalf("expected no error for inactive rule, got %v", err)
	}
	if created != nil {
		t.Fatal("expected no action from an inactive rule")
	}
}

func TestMaterialize_EntityMismatchIsRejected(t *testing.T) {
	s := &Service{}
	rule := &repository.Rule{IsActive: true, EntityType: "job"}

	_, err := s.Materialize(context.Background(), rule, transport.TriggerSubject{Kind: transport.EntityCandidate, ID: uuid.New()}, uuid.New())
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for entity mismatch, got %v", err)
	}
}

func TestMaterialize_StampsTimestamps(t *testing.T) {
	actions := &fakeActionStore{}
	logs := &fakeLogStore{}
	s := newLifecycleTestService(actions, logs)
	actor := uuid.New()

	rule := &repository.Rule{
		ID:             uuid.New(),
		Name:           "Nachfassen nach Profilversand",
		TriggerEvent:   "profile_sent",
		EntityType:     "candidate",
		DaysOffset:     2,
		ActionType:     "call",
		Priority:       "high",
		AssignedToType: string(transport.AssignCreator),
		IsActive:       true,
	}

	created, err := s.Materialize(context.Background(), rule, transport.TriggerSubject{Kind: transport.EntityCandidate, ID: uuid.New()}, actor)
	if err != nil {
		t.Fatalf("Materialize returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected an action from an active rule")
	}

	if len(actions.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(actions.created))
	}
	stored := actions.created[0]
	if !stored.CreatedAt.Equal(lifecycleClock()) || !stored.UpdatedAt.Equal(lifecycleClock()) {
		t.Errorf("expected timestamps %s, got created_at=%s updated_at=%s",
			lifecycleClock(), stored.CreatedAt, stored.UpdatedAt)
	}
	if !stored.DueDate.Equal(lifecycleClock().AddDate(0, 0, 2)) {
		t.Errorf("expected due date %s, got %s", lifecycleClock().AddDate(0, 0, 2), stored.DueDate)
	}
}

func TestResolveAssignee_SpecificUser(t *testing.T) {
	s := &Service{}
	target := uuid.New()
	rule := &repository.Rule{AssignedToType: string(transport.AssignSpecificUser), AssignedToUserID: &target}

	got, err := s.resolveAssignee(context.Background(), rule, transport.TriggerSubject{}, uuid.New())
	if err != nil {
		t.Fatalf("resolveAssignee returned error: %v", err)
	}
	if got != target {
		t.Fatalf("expected assignee %s, got %s", target, got)
	}
}

func TestResolveAssignee_SpecificUserWithoutTargetIsRejected(t *testing.T) {
	s := &Service{}
	rule := &repository.Rule{AssignedToType: string(transport.AssignSpecificUser)}

	_, err := s.resolveAssignee(context.Background(), rule, transport.TriggerSubject{}, uuid.New())
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveAssignee_CreatorIsActingUser(t *testing.T) {
	s := &Service{}
	actor := uuid.New()
	rule := &repository.Rule{AssignedToType: string(transport.AssignCreator)}

	got, err := s.resolveAssignee(context.Background(), rule, transport.TriggerSubject{}, actor)
	if err != nil {
		t.Fatalf("resolveAssignee returned error: %v", err)
	}
	if got != actor {
		t.Fatalf("expected actor %s, got %s", actor, got)
	}
}

func TestResolveAssignee_RecruiterFallsBackToActor(t *testing.T) {
	actor := uuid.New()
	rule := &repository.Rule{AssignedToType: string(transport.AssignRecruiter)}
	subject := transport.TriggerSubject{Kind: transport.EntityCandidate, ID: uuid.New()}

	// No resolver wired at all.
	s := &Service{}
	got, err := s.resolveAssignee(context.Background(), rule, subject, actor)
	if err != nil {
		t.Fatalf("resolveAssignee returned error: %v", err)
	}
	if got != actor {
		t.Fatalf("expected fallback to actor, got %s", got)
	}

	// Resolver wired but nobody responsible on record.
	resolver := &fakeResolver{}
	s = &Service{resolver: resolver}
	got, err = s.resolveAssignee(context.Background(), rule, subject, actor)
	if err != nil {
		t.Fatalf("resolveAssignee returned error: %v", err)
	}
	if got != actor {
		t.Fatalf("expected fallback to actor, got %s", got)
	}
	if resolver.gotRole != "recruiter" || resolver.gotKind != "candidate" {
		t.Errorf("resolver called with role=%s kind=%s", resolver.gotRole, resolver.gotKind)
	}
}

func TestResolveAssignee_ManagerUsesResolvedUser(t *testing.T) {
	manager := uuid.New()
	resolver := &fakeResolver{result: &manager}
	s := &Service{resolver: resolver}
	rule := &repository.Rule{AssignedToType: string(transport.AssignManager)}

	got, err := s.resolveAssignee(context.Background(), rule, transport.TriggerSubject{Kind: transport.EntityJob, ID: uuid.New()}, uuid.New())
	if err != nil {
		t.Fatalf("resolveAssignee returned error: %v", err)
	}
	if got != manager {
		t.Fatalf("expected resolved manager %s, got %s", manager, got)
	}
}

func TestResolveAssignee_UnknownTypeIsRejected(t *testing.T) {
	s := &Service{}
	rule := &repository.Rule{AssignedToType: "team"}

	_, err := s.resolveAssignee(context.Background(), rule, transport.TriggerSubject{}, uuid.New())
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
