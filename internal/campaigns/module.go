package campaigns

import (
	apphttp "bda_portal_backend/internal/http"
	"bda_portal_backend/internal/leads"
	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/httpkit"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *Handler
}

// NewModule wires campaigns over Postgres. A nil sender disables its channel.
func NewModule(pool *pgxpool.Pool, reader leads.Reader, wa WhatsAppSender, mail EmailSender, cfg config.CampaignConfig, m *metrics.Metrics, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), reader, wa, mail, Options{
		Concurrency:   cfg.GetCampaignConcurrency(),
		MaxRecipients: cfg.GetCampaignMaxRecipients(),
	}, m, log)
	return &Module{handler: NewHandler(svc)}
}

func (m *Module) Name() string { return "campaigns" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	senders := ctx.Protected.Group("", httpkit.RequireRole(httpkit.RoleAdmin, httpkit.RoleMarketing))
	senders.POST("/whatsapp-campaigns/send", m.handler.SendWhatsApp)
	senders.GET("/whatsapp-campaigns", m.handler.listRuns(ChannelWhatsApp))
	senders.POST("/email-campaigns/send", m.handler.SendEmail)
	senders.GET("/email-campaigns", m.handler.listRuns(ChannelEmail))
}

var _ apphttp.Module = (*Module)(nil)
