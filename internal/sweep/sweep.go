// Package sweep drives the periodic maintenance passes: due reminders,
// stale profile submissions and recurring sync fires. Every pass is
// idempotent; the claim discipline lives in conditional updates and unique
// keys, never in process-local state.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	followuprepo "recruit_portal_backend/internal/followups/repository"
	"recruit_portal_backend/internal/followups/transport"
	"recruit_portal_backend/internal/notification"
	submissionrepo "recruit_portal_backend/internal/submissions/repository"
	synctaskservice "recruit_portal_backend/internal/synctasks/service"
	"recruit_portal_backend/platform/config"
	"recruit_portal_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const batchLimit = 200

// ReminderSource supplies due, unreminded follow-up actions and the
// conditional claim that marks them sent.
type ReminderSource interface {
	DueForReminder(ctx context.Context, now time.Time, limit int) ([]followuprepo.Action, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// ReminderLog appends the remind entry to the action audit trail.
type ReminderLog interface {
	Append(ctx context.Context, actionID uuid.UUID, logType transport.LogActionType, userID *uuid.UUID, details string) error
}

// StaleSource supplies followed-up submissions past the response deadline
// and the guarded transition that flags them.
type StaleSource interface {
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]submissionrepo.Submission, error)
	MarkNoResponse(ctx context.Context, submission *submissionrepo.Submission) (bool, error)
}

// RecurringSource supplies due sync configurations and creates their tasks.
type RecurringSource interface {
	DueSettings(ctx context.Context, now time.Time) ([]synctaskservice.DueSetting, error)
	CreateDueTask(ctx context.Context, settings *synctaskservice.DueSetting, scheduledFor time.Time) (bool, error)
}

// Result counts what one sweep pass did.
type Result struct {
	RemindersSent     int
	RemindersFailed   int
	NoResponseFlagged int
	TasksScheduled    int
	TasksSkipped      int
}

// Sweeper runs the three maintenance passes.
type Sweeper struct {
	reminders ReminderSource
	logs      ReminderLog
	stale     StaleSource
	recurring RecurringSource
	gateway   notification.Gateway
	cfg       config.SweepConfig
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new sweeper.
func New(reminders ReminderSource, logs ReminderLog, stale StaleSource, recurring RecurringSource, gateway notification.Gateway, cfg config.SweepConfig, log *logger.Logger) *Sweeper {
	return &Sweeper{
		reminders: reminders,
		logs:      logs,
		stale:     stale,
		recurring: recurring,
		gateway:   gateway,
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetTimeSource overrides the clock; tests inject fixed time here.
func (s *Sweeper) SetTimeSource(now func() time.Time) {
	s.now = now
}

// Run executes the three sub-sweeps concurrently and merges their counts.
// A sub-sweep failing wholesale does not stop the others; per-item failures
// inside a sub-sweep never stop the remaining items.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	start := s.now()

	var reminderResult, staleResult, recurringResult Result
	var reminderErr, staleErr, recurringErr error

	// One failing sub-sweep must not cancel its siblings, so errors are
	// collected instead of returned through the group.
	var g errgroup.Group
	g.Go(func() error {
		reminderResult, reminderErr = s.sweepReminders(ctx, start)
		return nil
	})
	g.Go(func() error {
		staleResult, staleErr = s.sweepStaleSubmissions(ctx, start)
		return nil
	})
	g.Go(func() error {
		recurringResult, recurringErr = s.sweepRecurring(ctx, start)
		return nil
	})
	_ = g.Wait()

	err := errors.Join(reminderErr, staleErr, recurringErr)

	result := Result{
		RemindersSent:     reminderResult.RemindersSent,
		RemindersFailed:   reminderResult.RemindersFailed,
		NoResponseFlagged: staleResult.NoResponseFlagged,
		TasksScheduled:    recurringResult.TasksScheduled,
		TasksSkipped:      recurringResult.TasksSkipped,
	}

	latency := float64(time.Since(start).Milliseconds())
	s.log.SweepCompleted(result.RemindersSent, result.NoResponseFlagged, result.TasksScheduled, latency)

	return result, err
}

// Loop runs sweeps at the configured interval until the context ends. One
// pass fires immediately on start.
func (s *Sweeper) Loop(ctx context.Context) {
	interval := s.cfg.GetSweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil {
		s.log.Error("sweep pass failed", "error", err)
	}
}

// sweepReminders dispatches one reminder per due action. The reminder_sent
// claim happens only after a successful dispatch, so a failed dispatch is
// retried next pass and a raced claim means another sweeper already sent it.
func (s *Sweeper) sweepReminders(ctx context.Context, now time.Time) (Result, error) {
	var result Result

	due, err := s.reminders.DueForReminder(ctx, now, batchLimit)
	if err != nil {
		return result, fmt.Errorf("list due reminders: %w", err)
	}

	for i := range due {
		action := &due[i]
		if err := s.dispatchReminder(ctx, action); err != nil {
			result.RemindersFailed++
			s.log.Error("reminder dispatch failed", "action_id", action.ID, "error", err)
			continue
		}

		claimed, err := s.reminders.MarkReminderSent(ctx, action.ID, s.now())
		if err != nil {
			result.RemindersFailed++
			s.log.Error("mark reminder sent", "action_id", action.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		result.RemindersSent++
		if err := s.logs.Append(ctx, action.ID, transport.LogRemind, nil, "Erinnerung gesendet"); err != nil {
			s.log.Error("append remind log", "action_id", action.ID, "error", err)
		}
	}

	return result, nil
}

func (s *Sweeper) dispatchReminder(ctx context.Context, action *followuprepo.Action) error {
	dispatchCtx, cancel := context.WithTimeout(ctx, s.cfg.GetDispatchTimeout())
	defer cancel()

	id, err := s.gateway.NotifyUser(dispatchCtx, notification.Notification{
		UserID:   action.AssignedTo,
		Title:    "Erinnerung: " + action.Title,
		Message:  fmt.Sprintf("Die Nachfassaktion %q ist fällig.", action.Title),
		Type:     "followup_reminder",
		Priority: action.Priority,
		Link:     "/followups/" + action.ID.String(),
	})
	if err != nil {
		return err
	}
	if id == nil {
		return fmt.Errorf("gateway returned no notification id")
	}
	return nil
}

// sweepStaleSubmissions flags followed-up submissions with no customer
// response since the configured window (default five days).
func (s *Sweeper) sweepStaleSubmissions(ctx context.Context, now time.Time) (Result, error) {
	var result Result

	cutoff := now.Add(-s.cfg.GetNoResponseAfter())
	stale, err := s.stale.ListStale(ctx, cutoff, batchLimit)
	if err != nil {
		return result, fmt.Errorf("list stale submissions: %w", err)
	}

	for i := range stale {
		flagged, err := s.stale.MarkNoResponse(ctx, &stale[i])
		if err != nil {
			s.log.Error("flag no-response", "submission_id", stale[i].ID, "error", err)
			continue
		}
		if flagged {
			result.NoResponseFlagged++
		}
	}

	return result, nil
}

// sweepRecurring creates the next task for every due sync configuration.
// The unique non-terminal key absorbs duplicate fires across sweepers.
func (s *Sweeper) sweepRecurring(ctx context.Context, now time.Time) (Result, error) {
	var result Result

	due, err := s.recurring.DueSettings(ctx, now)
	if err != nil {
		return result, fmt.Errorf("list due sync settings: %w", err)
	}

	for i := range due {
		created, err := s.recurring.CreateDueTask(ctx, &due[i], due[i].FireAt)
		if err != nil {
			s.log.Error("create due sync task", "sync_settings_id", due[i].Settings.ID, "error", err)
			continue
		}
		if created {
			result.TasksScheduled++
		} else {
			result.TasksSkipped++
		}
	}

	return result, nil
}
