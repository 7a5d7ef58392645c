// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"bda_portal_backend/internal/events"
	apphttp "bda_portal_backend/internal/http"
	"bda_portal_backend/internal/leads/claims"
	"bda_portal_backend/internal/leads/handler"
	"bda_portal_backend/internal/leads/management"
	"bda_portal_backend/internal/leads/repository"
	"bda_portal_backend/internal/leads/status"
	"bda_portal_backend/internal/leads/transport"
	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig is the configuration the leads module reads.
type ModuleConfig interface {
	config.FollowUpConfig
	config.PhoneConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	repo       *repository.Repository
	handler    *handler.Handler
	claims     *claims.Service
	status     *status.Service
	management *management.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
// followUps may be nil; it can be attached later with SetFollowUpScheduler.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, incentiveConfig claims.ConfigLookup, followUps status.FollowUpScheduler, cfg ModuleConfig, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterValidators(); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	region := cfg.GetPhoneDefaultRegion()

	statusSvc := status.New(repo, status.NewStatusSetPolicy(cfg.GetPlanDetailsStatuses()), followUps, eventBus, log)
	claimsSvc := claims.New(repo, statusSvc, incentiveConfig, eventBus, region, log)
	mgmtSvc := management.New(repo, eventBus, region, log)

	return &Module{
		repo:       repo,
		handler:    handler.New(claimsSvc, statusSvc, mgmtSvc),
		claims:     claimsSvc,
		status:     statusSvc,
		management: mgmtSvc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Reader exposes lead lookups to other contexts.
func (m *Module) Reader() Reader { return m.repo }

// StatusService returns the transition service for webhooks and jobs.
func (m *Module) StatusService() StatusChanger { return m.status }

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service { return m.management }

// SetFollowUpScheduler attaches the follow-up scheduler once it is built.
func (m *Module) SetFollowUpScheduler(f status.FollowUpScheduler) {
	m.status.SetFollowUpScheduler(f)
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
