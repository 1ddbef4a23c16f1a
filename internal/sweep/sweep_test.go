package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	followuprepo "recruit_portal_backend/internal/followups/repository"
	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/internal/notification"
	submissionrepo "recruit_portal_backend/internal/submissions/repository"
	synctaskrepo "recruit_portal_backend/internal/synctasks/repository"
	synctaskservice "recruit_portal_backend/internal/synctasks/service"
	"recruit_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeConfig struct{}

func (fakeConfig) GetSweepInterval() time.Duration   { return time.Minute }
func (fakeConfig) GetDispatchTimeout() time.Duration { return time.Second }
func (fakeConfig) GetNoResponseAfter() time.Duration { return 5 * 24 * time.Hour }

type fakeReminders struct {
	due       []followuprepo.Action
	dueErr    error
	claimed   []uuid.UUID
	claimWins bool
	claimErr  error
}

func (f *fakeReminders) DueForReminder(ctx context.Context, now time.Time, limit int) ([]followuprepo.Action, error) {
	return f.due, f.dueErr
}

func (f *fakeReminders) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if !f.claimWins {
		return false, nil
	}
	f.claimed = append(f.claimed, id)
	return true, nil
}

type fakeLogs struct {
	entries []uuid.UUID
}

func (f *fakeLogs) Append(ctx context.Context, actionID uuid.UUID, logType transport.LogActionType, userID *uuid.UUID, details string) error {
	f.entries = append(f.entries, actionID)
	return nil
}

type fakeStale struct {
	stale      []submissionrepo.Submission
	staleErr   error
	flagged    []uuid.UUID
	markResult bool
	markErr    error
	gotCutoff  time.Time
}

func (f *fakeStale) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]submissionrepo.Submission, error) {
	f.gotCutoff = cutoff
	return f.stale, f.staleErr
}

func (f *fakeStale) MarkNoResponse(ctx context.Context, submission *submissionrepo.Submission) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.markResult {
		f.flagged = append(f.flagged, submission.ID)
	}
	return f.markResult, nil
}

type fakeRecurring struct {
	due       []synctaskservice.DueSetting
	dueErr    error
	created   bool
	createErr error
	fireAts   []time.Time
}

func (f *fakeRecurring) DueSettings(ctx context.Context, now time.Time) ([]synctaskservice.DueSetting, error) {
	return f.due, f.dueErr
}

func (f *fakeRecurring) CreateDueTask(ctx context.Context, due *synctaskservice.DueSetting, scheduledFor time.Time) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	f.fireAts = append(f.fireAts, scheduledFor)
	return f.created, nil
}

type fakeGateway struct {
	sent    []notification.Notification
	sendErr error
}

func (f *fakeGateway) NotifyUser(ctx context.Context, n notification.Notification) (*uuid.UUID, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, n)
	id := uuid.New()
	return &id, nil
}

func fixedTime() time.Time {
	return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
}

func newTestSweeper(reminders *fakeReminders, logs *fakeLogs, stale *fakeStale, recurring *fakeRecurring, gateway *fakeGateway) *Sweeper {
	s := New(reminders, logs, stale, recurring, gateway, fakeConfig{}, logger.New("test"))
	s.SetTimeSource(fixedTime)
	return s
}

func dueAction() followuprepo.Action {
	return followuprepo.Action{
		ID:         uuid.New(),
		Title:      "Kandidat anrufen",
		Priority:   "high",
		AssignedTo: uuid.New(),
	}
}

func TestRun_SendsReminderAndLogsIt(t *testing.T) {
	reminders := &fakeReminders{due: []followuprepo.Action{dueAction()}, claimWins: true}
	logs := &fakeLogs{}
	gateway := &fakeGateway{}

	s := newTestSweeper(reminders, logs, &fakeStale{}, &fakeRecurring{}, gateway)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RemindersSent != 1 {
		t.Fatalf("expected 1 reminder sent, got %d", result.RemindersSent)
	}
	if len(gateway.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(gateway.sent))
	}
	if gateway.sent[0].Type != "followup_reminder" {
		t.Errorf("expected followup_reminder type, got %s", gateway.sent[0].Type)
	}
	if len(logs.entries) != 1 {
		t.Errorf("expected 1 audit log entry, got %d", len(logs.entries))
	}
}

func TestRun_FailedDispatchLeavesReminderUnclaimed(t *testing.T) {
	reminders := &fakeReminders{due: []followuprepo.Action{dueAction()}, claimWins: true}
	gateway := &fakeGateway{sendErr: errors.New("smtp down")}

	s := newTestSweeper(reminders, &fakeLogs{}, &fakeStale{}, &fakeRecurring{}, gateway)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RemindersSent != 0 {
		t.Errorf("expected 0 reminders sent, got %d", result.RemindersSent)
	}
	if result.RemindersFailed != 1 {
		t.Errorf("expected 1 reminder failed, got %d", result.RemindersFailed)
	}
	if len(reminders.claimed) != 0 {
		t.Errorf("expected no claim after failed dispatch, got %d", len(reminders.claimed))
	}
}

func TestRun_LostClaimCountsNothing(t *testing.T) {
	reminders := &fakeReminders{due: []followuprepo.Action{dueAction()}, claimWins: false}
	logs := &fakeLogs{}

	s := newTestSweeper(reminders, logs, &fakeStale{}, &fakeRecurring{}, &fakeGateway{})

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RemindersSent != 0 {
		t.Errorf("expected 0 reminders sent on lost claim, got %d", result.RemindersSent)
	}
	if result.RemindersFailed != 0 {
		t.Errorf("expected 0 reminders failed on lost claim, got %d", result.RemindersFailed)
	}
	if len(logs.entries) != 0 {
		t.Errorf("expected no audit log on lost claim, got %d", len(logs.entries))
	}
}

func TestRun_StaleCutoffUsesConfiguredWindow(t *testing.T) {
	stale := &fakeStale{
		stale:      []submissionrepo.Submission{{ID: uuid.New()}, {ID: uuid.New()}},
		markResult: true,
	}

	s := newTestSweeper(&fakeReminders{}, &fakeLogs{}, stale, &fakeRecurring{}, &fakeGateway{})

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.NoResponseFlagged != 2 {
		t.Fatalf("expected 2 flagged submissions, got %d", result.NoResponseFlagged)
	}

	wantCutoff := fixedTime().Add(-5 * 24 * time.Hour)
	if !stale.gotCutoff.Equal(wantCutoff) {
		t.Errorf("expected cutoff %v, got %v", wantCutoff, stale.gotCutoff)
	}
}

func TestRun_RacedNoResponseFlagIsNotCounted(t *testing.T) {
	stale := &fakeStale{
		stale:      []submissionrepo.Submission{{ID: uuid.New()}},
		markResult: false,
	}

	s := newTestSweeper(&fakeReminders{}, &fakeLogs{}, stale, &fakeRecurring{}, &fakeGateway{})

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.NoResponseFlagged != 0 {
		t.Errorf("expected 0 flagged submissions, got %d", result.NoResponseFlagged)
	}
}

func TestRun_RecurringDuplicateFireCountsAsSkipped(t *testing.T) {
	fireAt := fixedTime().Add(-10 * time.Minute)
	recurring := &fakeRecurring{
		due: []synctaskservice.DueSetting{
			{Settings: synctaskrepo.SyncSettings{ID: uuid.New()}, FireAt: fireAt},
		},
		created: false,
	}

	s := newTestSweeper(&fakeReminders{}, &fakeLogs{}, &fakeStale{}, recurring, &fakeGateway{})

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.TasksScheduled != 0 {
		t.Errorf("expected 0 tasks scheduled, got %d", result.TasksScheduled)
	}
	if result.TasksSkipped != 1 {
		t.Errorf("expected 1 task skipped, got %d", result.TasksSkipped)
	}
	if len(recurring.fireAts) != 1 || !recurring.fireAts[0].Equal(fireAt) {
		t.Errorf("expected task scheduled for %v, got %v", fireAt, recurring.fireAts)
	}
}

func TestRun_FailingSubSweepDoesNotStopOthers(t *testing.T) {
	reminders := &fakeReminders{dueErr: errors.New("db timeout")}
	recurring := &fakeRecurring{
		due:     []synctaskservice.DueSetting{{Settings: synctaskrepo.SyncSettings{ID: uuid.New()}, FireAt: fixedTime()}},
		created: true,
	}

	s := newTestSweeper(reminders, &fakeLogs{}, &fakeStale{}, recurring, &fakeGateway{})

	result, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failed reminder sweep")
	}
	if result.TasksScheduled != 1 {
		t.Errorf("expected recurring sweep to still run, got %d tasks scheduled", result.TasksScheduled)
	}
}
