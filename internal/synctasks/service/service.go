package service

import (
	"context"
	"fmt"
	"time"

	"recruit_portal_backend/internal/events"
	"recruit_portal_backend/internal/synctasks/domain"
	"recruit_portal_backend/internal/synctasks/repository"
	"recruit_portal_backend/internal/synctasks/transport"
	"recruit_portal_backend/platform/apperr"
	"recruit_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Task types recorded on scheduled_tasks rows.
const (
	TaskTypeSync         = "sync"
	TaskTypeManualSync   = "manual_sync"
	TaskTypeSchedulerRun = "scheduler_run"
)

// Enqueuer hands a persisted task to the background worker queue.
type Enqueuer interface {
	EnqueueSyncTask(ctx context.Context, taskID uuid.UUID) error
}

// Runner performs the actual sync work for one claimed task.
type Runner interface {
	Run(ctx context.Context, task *repository.Task) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, task *repository.Task) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, task *repository.Task) error { return f(ctx, task) }

// Service manages recurring sync settings and their scheduled tasks.
type Service struct {
	settings *repository.SettingsRepository
	tasks    *repository.TaskRepository
	enqueuer Enqueuer
	runner   Runner
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new sync task service.
func New(settings *repository.SettingsRepository, tasks *repository.TaskRepository, bus events.Bus, log *logger.Logger) *Service {
	s := &Service{
		settings: settings,
		tasks:    tasks,
		bus:      bus,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.runner = RunnerFunc(func(ctx context.Context, task *repository.Task) error {
		log.Info("sync task executed",
			"task_id", task.ID,
			"entity_type", task.EntityType,
			"entity_id", task.EntityID,
			"task_type", task.TaskType,
		)
		return nil
	})
	return s
}

// SetEnqueuer wires the background queue client.
func (s *Service) SetEnqueuer(enqueuer Enqueuer) {
	s.enqueuer = enqueuer
}

// SetRunner replaces the sync execution backend.
func (s *Service) SetRunner(runner Runner) {
	s.runner = runner
}

// SetTimeSource overrides the clock; tests inject fixed time here.
func (s *Service) SetTimeSource(now func() time.Time) {
	s.now = now
}

// CreateSettings creates a recurring sync configuration.
func (s *Service) CreateSettings(ctx context.Context, req transport.CreateSyncSettingsRequest) (*transport.SyncSettingsResponse, error) {
	if _, err := domain.Interval(req.SyncIntervalType, req.SyncIntervalValue, req.SyncIntervalUnit); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	settings := &repository.SyncSettings{
		ID:                uuid.New(),
		EntityType:        string(req.EntityType),
		EntityID:          req.EntityID,
		SyncIntervalType:  string(req.SyncIntervalType),
		SyncIntervalValue: req.SyncIntervalValue,
		Enabled:           enabled,
		Config:            req.Config,
	}
	if req.SyncIntervalUnit != nil {
		unit := string(*req.SyncIntervalUnit)
		settings.SyncIntervalUnit = &unit
	}

	if err := s.settings.Create(ctx, settings); err != nil {
		return nil, err
	}

	resp := settings.ToResponse()
	return &resp, nil
}

// GetSettings retrieves one sync configuration.
func (s *Service) GetSettings(ctx context.Context, id uuid.UUID) (*transport.SyncSettingsResponse, error) {
	settings, err := s.settings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := settings.ToResponse()
	return &resp, nil
}

// ListSettings retrieves all sync configurations.
func (s *Service) ListSettings(ctx context.Context) ([]transport.SyncSettingsResponse, error) {
	items, err := s.settings.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.SyncSettingsResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}
	return responses, nil
}

// UpdateSettings applies a partial update to a sync configuration.
func (s *Service) UpdateSettings(ctx context.Context, id uuid.UUID, req transport.UpdateSyncSettingsRequest) (*transport.SyncSettingsResponse, error) {
	settings, err := s.settings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SyncIntervalType != nil {
		settings.SyncIntervalType = string(*req.SyncIntervalType)
	}
	if req.SyncIntervalValue != nil {
		settings.SyncIntervalValue = req.SyncIntervalValue
	}
	if req.SyncIntervalUnit != nil {
		unit := string(*req.SyncIntervalUnit)
		settings.SyncIntervalUnit = &unit
	}
	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.Config != nil {
		settings.Config = req.Config
	}

	var unit *transport.IntervalUnit
	if settings.SyncIntervalUnit != nil {
		u := transport.IntervalUnit(*settings.SyncIntervalUnit)
		unit = &u
	}
	if _, err := domain.Interval(transport.IntervalType(settings.SyncIntervalType), settings.SyncIntervalValue, unit); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, err
	}

	resp := settings.ToResponse()
	return &resp, nil
}

// DeleteSettings removes a sync configuration.
func (s *Service) DeleteSettings(ctx context.Context, id uuid.UUID) error {
	return s.settings.Delete(ctx, id)
}

// TriggerSyncNow creates and enqueues an immediate ad-hoc sync task for one
// configuration. The regular interval bookkeeping (last_run) is untouched,
// so the recurring schedule is unaffected.
func (s *Service) TriggerSyncNow(ctx context.Context, syncSettingsID uuid.UUID, actingUserID uuid.UUID) (*transport.TaskResponse, error) {
	settings, err := s.settings.GetByID(ctx, syncSettingsID)
	if err != nil {
		return nil, err
	}

	task := &repository.Task{
		ID:             uuid.New(),
		SyncSettingsID: &settings.ID,
		EntityType:     settings.EntityType,
		EntityID:       settings.EntityID,
		TaskType:       TaskTypeManualSync,
		ScheduledFor:   s.now(),
	}
	created, err := s.tasks.CreateIfAbsent(ctx, task)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, apperr.Conflict("a sync for this entity is already pending or running")
	}

	s.log.Info("manual sync triggered",
		"sync_settings_id", syncSettingsID,
		"task_id", task.ID,
		"triggered_by", actingUserID,
	)
	s.enqueue(ctx, task.ID)

	return s.taskResponse(ctx, task.ID)
}

// TriggerSchedulerRun creates and enqueues an immediate scheduler pass.
func (s *Service) TriggerSchedulerRun(ctx context.Context, actingUserID uuid.UUID) (*transport.TaskResponse, error) {
	task := &repository.Task{
		ID:           uuid.New(),
		EntityType:   "scheduler",
		EntityID:     "global",
		TaskType:     TaskTypeSchedulerRun,
		ScheduledFor: s.now(),
	}
	created, err := s.tasks.CreateIfAbsent(ctx, task)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, apperr.Conflict("a scheduler run is already pending or running")
	}

	s.log.Info("scheduler run triggered", "task_id", task.ID, "triggered_by", actingUserID)
	s.enqueue(ctx, task.ID)

	return s.taskResponse(ctx, task.ID)
}

func (s *Service) enqueue(ctx context.Context, taskID uuid.UUID) {
	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.EnqueueSyncTask(ctx, taskID); err != nil {
		// The row stays pending; the next sweep pass enqueues it again.
		s.log.Error("enqueue sync task", "task_id", taskID, "error", err)
	}
}

func (s *Service) taskResponse(ctx context.Context, id uuid.UUID) (*transport.TaskResponse, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := task.ToResponse()
	return &resp, nil
}

// GetTask retrieves one scheduled task.
func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (*transport.TaskResponse, error) {
	return s.taskResponse(ctx, id)
}

// ListTasks retrieves scheduled tasks matching the filter.
func (s *Service) ListTasks(ctx context.Context, req transport.ListTasksRequest) ([]transport.TaskResponse, int, error) {
	params := repository.ListParams{Limit: req.Limit, Offset: req.Offset}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}
	if req.EntityType != nil {
		entityType := string(*req.EntityType)
		params.EntityType = &entityType
	}

	items, total, err := s.tasks.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]transport.TaskResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}
	return responses, total, nil
}

// CancelTask cancels a pending task.
func (s *Service) CancelTask(ctx context.Context, id uuid.UUID) (*transport.TaskResponse, error) {
	return s.transitionTask(ctx, id, transport.TaskCancelled)
}

// ReenableTask moves a cancelled task back to pending.
func (s *Service) ReenableTask(ctx context.Context, id uuid.UUID) (*transport.TaskResponse, error) {
	resp, err := s.transitionTask(ctx, id, transport.TaskPending)
	if err == nil {
		s.enqueue(ctx, id)
	}
	return resp, err
}

func (s *Service) transitionTask(ctx context.Context, id uuid.UUID, to transport.TaskStatus) (*transport.TaskResponse, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current := transport.TaskStatus(task.Status)

	if current == to {
		resp := task.ToResponse()
		return &resp, nil
	}
	if !domain.CanTransitionTask(current, to) {
		return nil, apperr.Conflict(fmt.Sprintf("task cannot move from %s to %s", current, to))
	}

	changed, err := s.tasks.UpdateStatusFrom(ctx, id, current, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperr.Conflict("task changed concurrently")
	}

	return s.taskResponse(ctx, id)
}

// Execute runs one scheduled task end to end: claim, run, finish. Losing
// the pending → running claim means another worker has it; that is a
// success for this caller.
func (s *Service) Execute(ctx context.Context, taskID uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}

	claimed, err := s.tasks.ClaimRunning(ctx, taskID, s.now())
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	runErr := s.runner.Run(ctx, task)
	finishedAt := s.now()

	if runErr != nil {
		if _, err := s.tasks.MarkFailed(ctx, taskID, finishedAt, runErr.Error()); err != nil {
			return err
		}
		s.bus.Publish(ctx, events.SyncTaskFailed{
			BaseEvent:  events.NewBaseEvent(),
			TaskID:     taskID,
			EntityType: task.EntityType,
			EntityID:   task.EntityID,
			TaskType:   task.TaskType,
			Reason:     runErr.Error(),
		})
		s.log.Error("sync task failed", "task_id", taskID, "error", runErr)
		return nil
	}

	if _, err := s.tasks.MarkCompleted(ctx, taskID, finishedAt); err != nil {
		return err
	}
	if task.SyncSettingsID != nil && task.TaskType == TaskTypeSync {
		if err := s.settings.StampLastRun(ctx, *task.SyncSettingsID, finishedAt); err != nil {
			s.log.Error("stamp last run", "sync_settings_id", *task.SyncSettingsID, "error", err)
		}
	}

	s.bus.Publish(ctx, events.SyncTaskCompleted{
		BaseEvent:  events.NewBaseEvent(),
		TaskID:     taskID,
		EntityType: task.EntityType,
		EntityID:   task.EntityID,
		TaskType:   task.TaskType,
	})
	return nil
}

// CreateDueTask inserts the next interval fire for a sync setting; the
// recurring sweep calls this. False means the guard saw a duplicate.
func (s *Service) CreateDueTask(ctx context.Context, due *DueSetting, scheduledFor time.Time) (bool, error) {
	task := &repository.Task{
		ID:             uuid.New(),
		SyncSettingsID: &due.Settings.ID,
		EntityType:     due.Settings.EntityType,
		EntityID:       due.Settings.EntityID,
		TaskType:       TaskTypeSync,
		ScheduledFor:   scheduledFor,
	}
	created, err := s.tasks.CreateIfAbsent(ctx, task)
	if err != nil {
		return false, err
	}
	if created {
		s.enqueue(ctx, task.ID)
	}
	return created, nil
}

// DueSettings evaluates every enabled configuration and returns those whose
// next fire time has arrived, paired with that time.
func (s *Service) DueSettings(ctx context.Context, now time.Time) ([]DueSetting, error) {
	enabled, err := s.settings.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	var due []DueSetting
	for i := range enabled {
		settings := enabled[i]
		var unit *transport.IntervalUnit
		if settings.SyncIntervalUnit != nil {
			u := transport.IntervalUnit(*settings.SyncIntervalUnit)
			unit = &u
		}
		next, err := domain.NextRun(settings.LastRun, now,
			transport.IntervalType(settings.SyncIntervalType), settings.SyncIntervalValue, unit)
		if err != nil {
			s.log.Error("compute next run", "sync_settings_id", settings.ID, "error", err)
			continue
		}
		if !next.After(now) {
			due = append(due, DueSetting{Settings: settings, FireAt: next})
		}
	}
	return due, nil
}

// DueSetting pairs a sync configuration with its computed fire time.
type DueSetting struct {
	Settings repository.SyncSettings
	FireAt   time.Time
}
