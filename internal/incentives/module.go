package incentives

import (
	"context"

	apphttp "bda_portal_backend/internal/http"
)

// Module is the incentive configuration bounded context.
type Module struct {
	svc     *Service
	handler *Handler
}

func NewModule(svc *Service) *Module {
	return &Module{svc: svc, handler: NewHandler(svc)}
}

func (m *Module) Name() string { return "incentives" }

// Service exposes the config provider to other modules.
func (m *Module) Service() *Service { return m.svc }

// Seed stores the default catalog on first boot.
func (m *Module) Seed(ctx context.Context) error { return m.svc.Seed(ctx) }

// RegisterRoutes mounts the config routes. Every dashboard role reads the
// config; only admins write it.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/crm/admin/bda-incentives/config", m.handler.GetConfig)
	ctx.Admin.PUT("/bda-incentives/config", m.handler.PutConfig)
}

var _ apphttp.Module = (*Module)(nil)
