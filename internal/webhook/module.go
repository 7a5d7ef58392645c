// Package webhook provides the scheduling webhook bounded context module.
package webhook

import (
	apphttp "bda_portal_backend/internal/http"
	"bda_portal_backend/internal/leads"
	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	secret  string
}

// NewModule creates the webhook module over the leads services.
func NewModule(pool *pgxpool.Pool, ingestor leads.Ingestor, reader leads.Reader, status leads.StatusChanger, cfg config.WebhookConfig, log *logger.Logger) *Module {
	service := NewService(NewRepository(pool), ingestor, reader, status, log)
	return &Module{handler: NewHandler(service), secret: cfg.GetWebhookSigningSecret()}
}

func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the public, signature-authenticated endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.API.Group("/webhooks")
	if ctx.WebhookRateLimiter != nil {
		group.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	group.Use(SignatureMiddleware(m.secret))
	group.POST("/scheduling", m.handler.HandleScheduling)
}

var _ apphttp.Module = (*Module)(nil)
