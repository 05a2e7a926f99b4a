package scheduler

import (
	"context"
	"fmt"
	"time"

	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// SettingsPurger removes all durable per-user state after a sign-out purge.
type SettingsPurger interface {
	PurgeUser(ctx context.Context, userID uuid.UUID) error
}

// RollupRunner aggregates one calendar day of run metrics.
type RollupRunner interface {
	RollupDay(ctx context.Context, day time.Time) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	settings SettingsPurger
	rollup   RollupRunner
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, settings SettingsPurger, rollup RollupRunner, log *logger.Logger) (*Worker, error) {
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
		server:   server,
		mux:      mux,
		settings: settings,
		rollup:   rollup,
		log:      log,
	}

	mux.HandleFunc(TaskSessionPurge, w.handleSessionPurge)
	mux.HandleFunc(TaskAnalyticsRollup, w.handleAnalyticsRollup)

	return w, nil
}

func (w *Worker) handleSessionPurge(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSessionPurgePayload(task)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return err
	}

	if w.settings == nil {
		return nil
	}

	if err := w.settings.PurgeUser(ctx, userID); err != nil {
		return fmt.Errorf("purge user settings: %w", err)
	}

	w.log.Info("purged user state after sign-out", "userId", userID)
	return nil
}

func (w *Worker) handleAnalyticsRollup(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAnalyticsRollupPayload(task)
	if err != nil {
		return err
	}

	day, err := time.Parse("2006-01-02", payload.Day)
	if err != nil {
		return err
	}

	if w.rollup == nil {
		return nil
	}

	if err := w.rollup.RollupDay(ctx, day); err != nil {
		return fmt.Errorf("rollup day %s: %w", payload.Day, err)
	}

	w.log.Info("completed analytics rollup", "day", payload.Day)
	return nil
}

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
