package scheduler

import (
	"context"
	"fmt"

	synctaskservice "recruit_portal_backend/internal/synctasks/service"
	"recruit_portal_backend/platform/config"
	"recruit_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker consumes the task queue and executes scheduled sync tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	svc    *synctaskservice.Service
	log    *logger.Logger
}

// NewWorker creates an asynq worker bound to the sync task service.
func NewWorker(cfg config.SchedulerConfig, svc *synctaskservice.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		svc:    svc,
		log:    log,
	}

	mux.HandleFunc(TaskSyncExecute, w.handleSyncExecute)

	return w, nil
}

func (w *Worker) handleSyncExecute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSyncExecutePayload(task)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return err
	}

	return w.svc.Execute(ctx, taskID)
}

// Run serves the queue until the context ends.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
