package service

import (
	"context"
	"testing"
	"time"

	"recruit_portal_backend/internal/events"
	"recruit_portal_backend/internal/followups/repository"
	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeActionStore struct {
	action            *repository.Action
	created           []*repository.Action
	updated           []*repository.Action
	updateStatusCalls int
}

func (f *fakeActionStore) Create(_ context.Context, a *repository.Action) error {
	f.created = append(f.created, a)
	return nil
}

func (f *fakeActionStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Action, error) {
	if f.action == nil || f.action.ID != id {
		return nil, apperr.NotFound("follow-up action not found")
	}
	a := *f.action
	return &a, nil
}

func (f *fakeActionStore) Update(_ context.Context, a *repository.Action) error {
	f.updated = append(f.updated, a)
	return nil
}

func (f *fakeActionStore) UpdateStatusFrom(_ context.Context, _ uuid.UUID, _, _ transport.ActionStatus, _ *time.Time) (bool, error) {
	f.updateStatusCalls++
	return true, nil
}

func (f *fakeActionStore) SetNotes(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakeActionStore) List(_ context.Context, _ repository.ListParams) ([]repository.Action, int, error) {
	return nil, 0, nil
}

func (f *fakeActionStore) DeleteCompleted(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeActionStore) CountByRule(_ context.Context, _ uuid.UUID) (int, error) { return 0, nil }

func (f *fakeActionStore) Stats(_ context.Context, _ uuid.UUID, _ time.Time) (transport.StatsResponse, error) {
	return transport.StatsResponse{}, nil
}

type fakeLogStore struct {
	appended []transport.LogActionType
}

func (f *fakeLogStore) Append(_ context.Context, _ uuid.UUID, logType transport.LogActionType, _ *uuid.UUID, _ string) error {
	f.appended = append(f.appended, logType)
	return nil
}

func (f *fakeLogStore) ListForAction(_ context.Context, _ uuid.UUID) ([]repository.Log, error) {
	return nil, nil
}

func lifecycleClock() time.Time {
	return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
}

func newLifecycleTestService(actions *fakeActionStore, logs *fakeLogStore) *Service {
	return &Service{
		actions: actions,
		logs:    logs,
		bus:     events.NewInMemoryBus(nil),
		now:     lifecycleClock,
	}
}

func TestUpdateStatus_UnknownStatusIsRejected(t *testing.T) {
	s := &Service{}

	_, err := s.UpdateStatus(context.Background(), uuid.New(), transport.UpdateActionStatusRequest{Status: "archived"}, uuid.New())
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestCreateAction_RejectsMultipleSubjects(t *testing.T) {
	s := &Service{}
	candidateID := uuid.New()
	jobID := uuid.New()

	req := transport.CreateActionRequest{
		Title:       "Kandidat anrufen",
		DueDate:     time.Now().Add(48 * time.Hour),
		Priority:    transport.PriorityHigh,
		ActionType:  transport.ActionCall,
		AssignedTo:  uuid.New(),
		CandidateID: &candidateID,
		JobID:       &jobID,
	}

	_, err := s.CreateAction(context.Background(), req, uuid.New())
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for two linked entities, got %v", err)
	}
}

func TestComplete_TerminalReEntryIsNoOp(t *testing.T) {
	actionID := uuid.New()
	completedAt := lifecycleClock().Add(-time.Hour)
	actions := &fakeActionStore{action: &repository.Action{
		ID:          actionID,
		Title:       "Kandidat anrufen",
		Status:      string(transport.StatusCompleted),
		Completed:   true,
		CompletedAt: &completedAt,
	}}
	logs := &fakeLogStore{}
	s := newLifecycleTestService(actions, logs)

	resp, err := s.Complete(context.Background(), actionID, uuid.New(), nil)
	if err != nil {
		t.Fatalf("expected completing a completed action to succeed, got %v", err)
	}
	if resp.Status != transport.StatusCompleted {
		t.Fatalf("expected status completed, got %s", resp.Status)
	}
	if actions.updateStatusCalls != 0 {
		t.Errorf("expected no status write, got %d", actions.updateStatusCalls)
	}
	if len(logs.appended) != 0 {
		t.Errorf("expected no second audit entry, got %d", len(logs.appended))
	}
}

func TestCancel_TerminalReEntryIsNoOp(t *testing.T) {
	actionID := uuid.New()
	actions := &fakeActionStore{action: &repository.Action{
		ID:     actionID,
		Status: string(transport.StatusCancelled),
	}}
	logs := &fakeLogStore{}
	s := newLifecycleTestService(actions, logs)

	resp, err := s.Cancel(context.Background(), actionID, uuid.New())
	if err != nil {
		t.Fatalf("expected cancelling a cancelled action to succeed, got %v", err)
	}
	if resp.Status != transport.StatusCancelled {
		t.Fatalf("expected status cancelled, got %s", resp.Status)
	}
	if actions.updateStatusCalls != 0 || len(logs.appended) != 0 {
		t.Errorf("expected no writes, got %d status calls and %d log entries", actions.updateStatusCalls, len(logs.appended))
	}
}

func TestCreateAction_StampsTimestamps(t *testing.T) {
	actions := &fakeActionStore{}
	s := newLifecycleTestService(actions, &fakeLogStore{})
	assignee := uuid.New()

	resp, err := s.CreateAction(context.Background(), transport.CreateActionRequest{
		Title:      "Kandidat anrufen",
		DueDate:    lifecycleClock().AddDate(0, 0, 2),
		Priority:   transport.PriorityHigh,
		ActionType: transport.ActionCall,
		AssignedTo: assignee,
	}, assignee)
	if err != nil {
		t.Fatalf("CreateAction returned error: %v", err)
	}

	if len(actions.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(actions.created))
	}
	stored := actions.created[0]
	if !stored.CreatedAt.Equal(lifecycleClock()) || !stored.UpdatedAt.Equal(lifecycleClock()) {
		t.Errorf("expected timestamps %s, got created_at=%s updated_at=%s",
			lifecycleClock(), stored.CreatedAt, stored.UpdatedAt)
	}
	if !resp.CreatedAt.Equal(lifecycleClock()) {
		t.Errorf("expected response created_at %s, got %s", lifecycleClock(), resp.CreatedAt)
	}
}

func TestUpdateAction_BumpsUpdatedAt(t *testing.T) {
	actionID := uuid.New()
	assignee := uuid.New()
	actions := &fakeActionStore{action: &repository.Action{
		ID:         actionID,
		Title:      "Kandidat anrufen",
		Status:     string(transport.StatusPending),
		AssignedTo: assignee,
		CreatedAt:  lifecycleClock().Add(-48 * time.Hour),
		UpdatedAt:  lifecycleClock().Add(-48 * time.Hour),
	}}
	s := newLifecycleTestService(actions, &fakeLogStore{})

	newTitle := "Kandidat zurückrufen"
	resp, err := s.UpdateAction(context.Background(), actionID, transport.UpdateActionRequest{Title: &newTitle}, assignee)
	if err != nil {
		t.Fatalf("UpdateAction returned error: %v", err)
	}

	if len(actions.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(actions.updated))
	}
	if !actions.updated[0].UpdatedAt.Equal(lifecycleClock()) {
		t.Errorf("expected updated_at %s, got %s", lifecycleClock(), actions.updated[0].UpdatedAt)
	}
	if !actions.updated[0].CreatedAt.Equal(lifecycleClock().Add(-48 * time.Hour)) {
		t.Errorf("expected created_at untouched, got %s", actions.updated[0].CreatedAt)
	}
	if !resp.UpdatedAt.Equal(lifecycleClock()) {
		t.Errorf("expected response updated_at %s, got %s", lifecycleClock(), resp.UpdatedAt)
	}
}
