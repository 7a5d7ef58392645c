package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bda_portal_backend/internal/adapters/storage"
	"bda_portal_backend/internal/analytics"
	"bda_portal_backend/internal/campaigns"
	"bda_portal_backend/internal/email"
	"bda_portal_backend/internal/events"
	"bda_portal_backend/internal/followups"
	apphttp "bda_portal_backend/internal/http"
	"bda_portal_backend/internal/http/router"
	"bda_portal_backend/internal/incentives"
	"bda_portal_backend/internal/leads"
	"bda_portal_backend/internal/scheduler"
	"bda_portal_backend/internal/webhook"
	"bda_portal_backend/internal/whatsapp"
	"bda_portal_backend/migrations"
	"bda_portal_backend/platform/cache"
	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/db"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"
	"bda_portal_backend/platform/observability"

	"github.com/jackc/pgx/v5/pgxpool"
)

const cachePrefix = "bda:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	flushSentry := observability.InitSentry(cfg, log)
	defer flushSentry()

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

	sharedCache, closeCache := initCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	m := metrics.New()
	eventBus := events.NewInMemoryBus(log)
	events.SubscribeMetrics(eventBus, m)

	followUpQueue, closeQueue := initFollowUpQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// A disabled client must stay a nil interface so callers can detect it.
	var waFollowUps followups.WhatsAppSender
	var waCampaigns campaigns.WhatsAppSender
	if wa := whatsapp.NewClient(cfg, cfg.GetPhoneDefaultRegion(), log); wa.Enabled() {
		waFollowUps, waCampaigns = wa, wa
	} else {
		log.Warn("WHATSAPP_URL not configured; WhatsApp follow-ups and campaigns disabled")
	}

	objects := initStorage(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	incentivesModule := incentives.NewModule(incentives.NewService(
		incentives.NewRepository(pool), sharedCache, cfg.GetIncentiveCacheTTL(), eventBus, m, log))
	if err := incentivesModule.Seed(ctx); err != nil {
		log.Error("failed to seed incentive config", "error", err)
		panic("failed to seed incentive config: " + err.Error())
	}

	leadsModule, err := leads.NewModule(pool, eventBus, incentivesModule.Service(), nil, cfg, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	// Follow-ups read leads and are triggered by the status service, so the
	// scheduler is attached after both exist.
	followUpsModule := followups.NewModule(pool, leadsModule.Reader(), followUpQueue, sender, waFollowUps, cfg, m, log)
	leadsModule.SetFollowUpScheduler(followUpsModule.Service())

	analyticsModule := analytics.NewModule(pool, incentivesModule.Service(), sharedCache, cfg, objects, eventBus, m, log)
	campaignsModule := campaigns.NewModule(pool, leadsModule.Reader(), waCampaigns, sender, cfg, m, log)
	webhookModule := webhook.NewModule(pool, leadsModule.ManagementService(), leadsModule.Reader(), leadsModule.StatusService(), cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Metrics:  m,
		Modules: []apphttp.Module{
			leadsModule,
			incentivesModule,
			followUpsModule,
			analyticsModule,
			campaignsModule,
			webhookModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (cache.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; caching disabled")
		return cache.Noop{}, nil
	}
	client, err := cache.NewClient(ctx, cfg, cachePrefix)
	if err != nil {
		log.Warn("redis cache unavailable; caching disabled", "error", err)
		return cache.Noop{}, nil
	}
	return client, func() { _ = client.Close() }
}

func initFollowUpQueue(cfg config.SchedulerConfig, log *logger.Logger) (followups.Enqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up scheduling disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initStorage returns nil when MinIO is not configured; exports then stream.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.StorageService {
	if !cfg.IsMinIOEnabled() {
		log.Info("MINIO_ENDPOINT not configured; exports are streamed, not archived")
		return nil
	}
	svc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure exports bucket", 5, 2*time.Second, func() error {
		return svc.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinIOBucketExports())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "exportsBucket", cfg.GetMinIOBucketExports())
	return svc
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
