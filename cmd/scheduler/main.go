package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recruit_portal_backend/internal/events"
	followuprepo "recruit_portal_backend/internal/followups/repository"
	followupservice "recruit_portal_backend/internal/followups/service"
	"recruit_portal_backend/internal/lookup"
	"recruit_portal_backend/internal/notification"
	"recruit_portal_backend/internal/notification/email"
	"recruit_portal_backend/internal/scheduler"
	submissionrepo "recruit_portal_backend/internal/submissions/repository"
	submissionservice "recruit_portal_backend/internal/submissions/service"
	"recruit_portal_backend/internal/sweep"
	synctaskrepo "recruit_portal_backend/internal/synctasks/repository"
	synctaskservice "recruit_portal_backend/internal/synctasks/service"
	"recruit_portal_backend/platform/config"
	"recruit_portal_backend/platform/db"
	"recruit_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	lookups := lookup.New(pool)

	notificationModule := notification.New(pool, email.NewSender(cfg), cfg, log)
	notificationModule.SetUserEmailReader(lookups)
	notificationModule.RegisterHandlers(eventBus)

	actionRepo := followuprepo.NewActions(pool)
	logRepo := followuprepo.NewLogs(pool)

	followupSvc := followupservice.New(actionRepo, followuprepo.NewRules(pool), logRepo, eventBus, log)
	followupSvc.SetAssigneeResolver(lookups)
	followupSvc.SetSubjectNames(lookups)

	submissionSvc := submissionservice.New(submissionrepo.New(pool), followupSvc, lookups, eventBus, log)
	followupSvc.SetSubmissionCascader(submissionSvc)

	synctaskSvc := synctaskservice.New(
		synctaskrepo.NewSettings(pool),
		synctaskrepo.NewTasks(pool),
		eventBus,
		log,
	)

	sweeper := sweep.New(actionRepo, logRepo, submissionSvc, synctaskSvc, notificationModule, cfg, log)

	// Queue-dispatched scheduler runs trigger a full sweep pass on top of
	// the regular ticker.
	synctaskSvc.SetRunner(synctaskservice.RunnerFunc(func(ctx context.Context, task *synctaskrepo.Task) error {
		if task.TaskType == synctaskservice.TaskTypeSchedulerRun {
			_, err := sweeper.Run(ctx)
			return err
		}
		log.Info("sync task executed",
			"task_id", task.ID,
			"entity_type", task.EntityType,
			"entity_id", task.EntityID,
			"task_type", task.TaskType,
		)
		return nil
	}))

	go sweeper.Loop(ctx)

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; running sweep loop only")
		<-ctx.Done()
		return
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		panic("failed to initialize task queue client: " + err.Error())
	}
	defer func() { _ = client.Close() }()
	synctaskSvc.SetEnqueuer(client)

	worker, err := scheduler.NewWorker(cfg, synctaskSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
