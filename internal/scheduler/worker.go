package scheduler

import (
	"context"
	"fmt"

	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// FollowUpProcessor performs one due follow-up.
type FollowUpProcessor interface {
	ProcessFollowUp(ctx context.Context, payload FollowUpPayload) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	followUps FollowUpProcessor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, followUps FollowUpProcessor, log *logger.Logger) (*Worker, error) {
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
		Logger: asynqLogger{log},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		followUps: followUps,
		log:       log,
	}

	mux.HandleFunc(TaskFollowUpSend, w.handleFollowUp)

	return w, nil
}

func (w *Worker) handleFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpPayload(task)
	if err != nil {
		// A malformed payload never becomes valid on retry.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return w.followUps.ProcessFollowUp(ctx, payload)
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

// asynqLogger routes asynq's internal logging through the application logger.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Info(args ...any)  { l.log.Info(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Error(args ...any) { l.log.Error(fmt.Sprint(args...), "component", "asynq") }

func (l asynqLogger) Fatal(args ...any) {
	l.log.Error(fmt.Sprint(args...), "component", "asynq", "fatal", true)
}
