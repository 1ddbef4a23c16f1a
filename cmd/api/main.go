package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recruit_portal_backend/internal/events"
	followuphandler "recruit_portal_backend/internal/followups/handler"
	followuprepo "recruit_portal_backend/internal/followups/repository"
	followupservice "recruit_portal_backend/internal/followups/service"
	apphttp "recruit_portal_backend/internal/http"
	"recruit_portal_backend/internal/http/router"
	"recruit_portal_backend/internal/lookup"
	"recruit_portal_backend/internal/notification"
	"recruit_portal_backend/internal/notification/email"
	notificationhandler "recruit_portal_backend/internal/notification/handler"
	"recruit_portal_backend/internal/scheduler"
	submissionhandler "recruit_portal_backend/internal/submissions/handler"
	submissionrepo "recruit_portal_backend/internal/submissions/repository"
	submissionservice "recruit_portal_backend/internal/submissions/service"
	synctaskhandler "recruit_portal_backend/internal/synctasks/handler"
	synctaskrepo "recruit_portal_backend/internal/synctasks/repository"
	synctaskservice "recruit_portal_backend/internal/synctasks/service"
	"recruit_portal_backend/migrations"
	"recruit_portal_backend/platform/config"
	"recruit_portal_backend/platform/db"
	"recruit_portal_backend/platform/logger"
	"recruit_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	taskEnqueuer, closeEnqueuer := initTaskEnqueuer(cfg, log)
	if closeEnqueuer != nil {
		defer closeEnqueuer()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	lookups := lookup.New(pool)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(pool, email.NewSender(cfg), cfg, log)
	notificationModule.SetUserEmailReader(lookups)
	notificationModule.RegisterHandlers(eventBus)

	followupSvc := followupservice.New(
		followuprepo.NewActions(pool),
		followuprepo.NewRules(pool),
		followuprepo.NewLogs(pool),
		eventBus,
		log,
	)
	followupSvc.SetAssigneeResolver(lookups)
	followupSvc.SetSubjectNames(lookups)

	submissionSvc := submissionservice.New(submissionrepo.New(pool), followupSvc, lookups, eventBus, log)

	// Completing a chase action marks its submission as followed up
	followupSvc.SetSubmissionCascader(submissionSvc)

	synctaskSvc := synctaskservice.New(
		synctaskrepo.NewSettings(pool),
		synctaskrepo.NewTasks(pool),
		eventBus,
		log,
	)
	if taskEnqueuer != nil {
		synctaskSvc.SetEnqueuer(taskEnqueuer)
	}

	followupHandler := followuphandler.New(followupSvc, val)
	submissionHandler := submissionhandler.New(submissionSvc, val)
	synctaskHandler := synctaskhandler.New(synctaskSvc, val)
	notificationHandler := notificationhandler.New(notificationModule.Repository())

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			apphttp.ModuleFunc{ModuleName: "followups", Register: func(rc *apphttp.RouterContext) {
				followupHandler.RegisterRoutes(rc.Protected.Group("/followups"))
				followupHandler.RegisterEventRoutes(rc.Protected.Group("/events"))
			}},
			apphttp.ModuleFunc{ModuleName: "submissions", Register: func(rc *apphttp.RouterContext) {
				submissionHandler.RegisterRoutes(rc.Protected.Group("/submissions"))
			}},
			apphttp.ModuleFunc{ModuleName: "synctasks", Register: func(rc *apphttp.RouterContext) {
				synctaskHandler.RegisterSettingsRoutes(rc.Protected.Group("/sync-settings"))
				synctaskHandler.RegisterTaskRoutes(rc.Protected.Group("/scheduled-tasks"))
			}},
			apphttp.ModuleFunc{ModuleName: "notifications", Register: func(rc *apphttp.RouterContext) {
				notificationHandler.RegisterRoutes(rc.Protected.Group("/notifications"))
			}},
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initTaskEnqueuer builds the asynq client when Redis is configured. Without
// it sync tasks stay pending until the sweeper picks them up again, so the
// API can run without a queue in development.
func initTaskEnqueuer(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; sync task execution disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
