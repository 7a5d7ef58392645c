package analytics

import (
	"context"
	"time"

	"bda_portal_backend/internal/events"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/cache"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"

	"golang.org/x/sync/errgroup"
)

const baseCacheKey = "analytics:bda:base"

// Store reads the aggregate rows.
type Store interface {
	StatusCounts(ctx context.Context, rng Range) ([]StatusCountRow, error)
	PaidPlans(ctx context.Context, rng Range) ([]PaidRow, error)
}

// ConfigLookup supplies incentive configs keyed by plan.
type ConfigLookup interface {
	Lookup(ctx context.Context) (map[domain.PlanName]domain.PlanConfig, error)
}

type Service struct {
	store   Store
	configs ConfigLookup
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewService(store Store, configs ConfigLookup, c cache.Cache, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, configs: configs, cache: c, ttl: ttl, metrics: m, log: log, now: time.Now}
}

// Report returns the per-BDA analysis. Only the unbounded range is cached;
// refresh drops the cached copy before computing.
func (s *Service) Report(ctx context.Context, rng Range, refresh bool) (Report, error) {
	if !rng.IsZero() {
		return s.compute(ctx, rng)
	}

	if refresh {
		s.Invalidate(ctx)
	} else {
		var cached Report
		hit, err := s.cache.GetJSON(ctx, baseCacheKey, &cached)
		if err != nil {
			s.log.WithContext(ctx).Warn("analytics cache read failed", "error", err)
		}
		s.metrics.RecordCache("analytics", hit)
		if hit {
			cached.Cached = true
			return cached, nil
		}
	}

	report, err := s.compute(ctx, rng)
	if err != nil {
		return Report{}, err
	}
	if err := s.cache.SetJSON(ctx, baseCacheKey, report, s.ttl); err != nil {
		s.log.WithContext(ctx).Warn("analytics cache write failed", "error", err)
	}
	return report, nil
}

func (s *Service) compute(ctx context.Context, rng Range) (Report, error) {
	var (
		counts  []StatusCountRow
		paid    []PaidRow
		configs map[domain.PlanName]domain.PlanConfig
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.store.StatusCounts(gctx, rng)
		return err
	})
	g.Go(func() error {
		var err error
		paid, err = s.store.PaidPlans(gctx, rng)
		return err
	})
	g.Go(func() error {
		var err error
		configs, err = s.configs.Lookup(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if _, ok := apperr.As(err); ok {
			return Report{}, err
		}
		return Report{}, apperr.Wrap(apperr.KindInternal, "failed to build bda analysis", err)
	}

	report := buildReport(counts, paid, configs)
	report.GeneratedAt = s.now().UTC()
	report.From, report.ToBefore = rng.From, rng.ToBefore
	return report, nil
}

// Warm recomputes the cached base report.
func (s *Service) Warm(ctx context.Context) error {
	report, err := s.Report(ctx, Range{}, true)
	if err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("analytics cache warmed", "bdas", len(report.BDAs), "leads", report.Totals.Leads)
	return nil
}

// Invalidate drops the cached base report.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, baseCacheKey); err != nil {
		s.log.WithContext(ctx).Warn("analytics cache invalidation failed", "error", err)
	}
}

// SubscribeInvalidation drops the cache whenever leads or incentive configs change.
func (s *Service) SubscribeInvalidation(bus events.Bus) {
	handler := events.HandlerFunc(func(ctx context.Context, _ events.Event) error {
		s.Invalidate(ctx)
		return nil
	})
	for _, name := range []string{
		events.LeadCreated{}.EventName(),
		events.LeadClaimed{}.EventName(),
		events.LeadUnclaimed{}.EventName(),
		events.LeadStatusChanged{}.EventName(),
		events.LeadsDeleted{}.EventName(),
		events.IncentiveConfigUpdated{}.EventName(),
	} {
		bus.Subscribe(name, handler)
	}
}
