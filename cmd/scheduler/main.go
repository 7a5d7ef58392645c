package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bda_portal_backend/internal/analytics"
	"bda_portal_backend/internal/email"
	"bda_portal_backend/internal/events"
	"bda_portal_backend/internal/followups"
	"bda_portal_backend/internal/incentives"
	leadrepo "bda_portal_backend/internal/leads/repository"
	"bda_portal_backend/internal/scheduler"
	"bda_portal_backend/internal/whatsapp"
	"bda_portal_backend/platform/cache"
	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/db"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"
	"bda_portal_backend/platform/observability"

	"github.com/jackc/pgx/v5/pgxpool"
)

const cronJobTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	flushSentry := observability.InitSentry(cfg, log)
	defer flushSentry()

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

	var sharedCache cache.Cache = cache.Noop{}
	if cfg.GetRedisURL() != "" {
		client, err := cache.NewClient(ctx, cfg, "bda:")
		if err != nil {
			log.Warn("redis cache unavailable; analytics warm-up has no effect", "error", err)
		} else {
			defer func() { _ = client.Close() }()
			sharedCache = client
		}
	}

	m := metrics.New()
	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	var wa followups.WhatsAppSender
	if client := whatsapp.NewClient(cfg, cfg.GetPhoneDefaultRegion(), log); client.Enabled() {
		wa = client
	}

	// Worker-side wiring: no HTTP handlers and no enqueueing here.
	followUps := followups.NewModule(pool, leadrepo.New(pool), nil, sender, wa, cfg, m, log).Service()

	incentiveSvc := incentives.NewService(incentives.NewRepository(pool), sharedCache, cfg.GetIncentiveCacheTTL(), eventBus, m, log)
	analyticsSvc := analytics.NewService(analytics.NewRepository(pool), incentiveSvc, sharedCache, cfg.GetAnalyticsCacheTTL(), m, log)

	cron := scheduler.NewCron(log, cronJobTimeout)
	if err := cron.Add("analytics-warmup", cfg.GetAnalyticsWarmupCron(), func(ctx context.Context) error {
		err := analyticsSvc.Warm(ctx)
		observability.CaptureJobError("analytics-warmup", err)
		return err
	}); err != nil {
		log.Error("invalid analytics warm-up schedule", "error", err, "schedule", cfg.GetAnalyticsWarmupCron())
		panic("invalid analytics warm-up schedule: " + err.Error())
	}
	if err := cron.Add("followup-sweep", cfg.GetFollowUpSweepCron(), func(ctx context.Context) error {
		failed, err := followUps.Sweep(ctx)
		observability.CaptureJobError("followup-sweep", err)
		if failed > 0 {
			log.Warn("overdue follow-ups marked failed", "count", failed)
		}
		return err
	}); err != nil {
		log.Error("invalid follow-up sweep schedule", "error", err, "schedule", cfg.GetFollowUpSweepCron())
		panic("invalid follow-up sweep schedule: " + err.Error())
	}
	go cron.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, followUps, log)
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
