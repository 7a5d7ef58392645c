// Package incentives owns the plan to incentive configuration shared by every
// lead view, and computes BDA incentives from it.
package incentives

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bda_portal_backend/internal/events"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/cache"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"
)

const cacheKey = "incentives:config"

// ConfigResponse is the GET/PUT payload.
type ConfigResponse struct {
	Plans []StoredConfig `json:"plans"`
}

// UpdateConfigRequest replaces the listed plans.
type UpdateConfigRequest struct {
	Plans []domain.PlanConfig `json:"plans" validate:"required,min=1,dive"`
}

// Totals is an incentive sum over a set of paid leads.
type Totals struct {
	TotalINR       float64 `json:"totalIncentivesForFilter"`
	PaidLeads      int     `json:"paidLeads"`
	ExcludedNonUSD int     `json:"excludedNonUsd"`
	MissingConfig  int     `json:"missingConfig"`
}

type Service struct {
	store   Store
	cache   cache.Cache
	ttl     time.Duration
	bus     events.Bus
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewService(store Store, c cache.Cache, ttl time.Duration, bus events.Bus, m *metrics.Metrics, log *logger.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, cache: c, ttl: ttl, bus: bus, metrics: m, log: log}
}

// Seed loads the embedded catalog when no config is stored yet.
func (s *Service) Seed(ctx context.Context) error {
	defaults, err := DefaultConfig()
	if err != nil {
		return err
	}
	seeded, err := s.store.SeedIfEmpty(ctx, defaults)
	if err != nil {
		return fmt.Errorf("seed incentive config: %w", err)
	}
	if seeded {
		s.log.Info("incentive config seeded", "plans", len(defaults))
	}
	return nil
}

// Get returns the stored config, served from cache when possible.
func (s *Service) Get(ctx context.Context) (ConfigResponse, error) {
	var cached ConfigResponse
	hit, err := s.cache.GetJSON(ctx, cacheKey, &cached)
	if err != nil {
		s.log.WithContext(ctx).Warn("incentive cache read failed", "error", err)
	}
	s.metrics.RecordCache("incentives", hit)
	if hit {
		return cached, nil
	}

	plans, err := s.store.List(ctx)
	if err != nil {
		return ConfigResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load incentive config", err)
	}
	resp := ConfigResponse{Plans: plans}
	if err := s.cache.SetJSON(ctx, cacheKey, resp, s.ttl); err != nil {
		s.log.WithContext(ctx).Warn("incentive cache write failed", "error", err)
	}
	return resp, nil
}

// Put validates and stores the submitted plans, then drops the cache.
func (s *Service) Put(ctx context.Context, actorEmail string, req UpdateConfigRequest) (ConfigResponse, error) {
	if len(req.Plans) == 0 {
		return ConfigResponse{}, apperr.Validation("at least one plan is required")
	}

	seen := map[domain.PlanName]bool{}
	normalized := make([]domain.PlanConfig, 0, len(req.Plans))
	for _, cfg := range req.Plans {
		name, err := domain.ParsePlanName(string(cfg.PlanName))
		if err != nil {
			return ConfigResponse{}, apperr.Validation(err.Error()).WithDetails(map[string]any{"planName": cfg.PlanName})
		}
		if seen[name] {
			return ConfigResponse{}, apperr.Validation("duplicate plan in request").WithDetails(map[string]any{"planName": name})
		}
		seen[name] = true

		cfg.PlanName = name
		if cfg.Currency == "" {
			cfg.Currency = domain.CurrencyUSD
		}
		if err := domain.ValidatePlanConfig(cfg); err != nil {
			return ConfigResponse{}, apperr.Validation(err.Error()).WithDetails(map[string]any{"planName": name})
		}
		normalized = append(normalized, cfg)
	}

	if err := s.store.Upsert(ctx, normalized, actorEmail); err != nil {
		return ConfigResponse{}, apperr.Wrap(apperr.KindInternal, "failed to save incentive config", err)
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		s.log.WithContext(ctx).Warn("incentive cache invalidation failed", "error", err)
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.IncentiveConfigUpdated{BaseEvent: events.NewBaseEvent(), AdminEmail: actorEmail})
	}

	return s.Get(ctx)
}

// Lookup returns the config keyed by plan name.
func (s *Service) Lookup(ctx context.Context) (map[domain.PlanName]domain.PlanConfig, error) {
	resp, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.PlanName]domain.PlanConfig, len(resp.Plans))
	for _, p := range resp.Plans {
		out[p.PlanName] = p.PlanConfig
	}
	return out, nil
}

// Summarize sums prorated incentives over paid plans. Non-USD payments are
// counted separately and never converted.
func Summarize(plans []domain.PaymentPlan, configs map[domain.PlanName]domain.PlanConfig) Totals {
	var totals Totals
	for i := range plans {
		plan := plans[i]
		totals.PaidLeads++
		cfg, ok := configs[plan.Name]
		if !ok {
			totals.MissingConfig++
			continue
		}
		amount, err := domain.LeadIncentive(&plan, &cfg)
		if errors.Is(err, domain.ErrCurrencyMismatch) {
			totals.ExcludedNonUSD++
			continue
		}
		if err != nil {
			continue
		}
		totals.TotalINR += amount
	}
	return totals
}
