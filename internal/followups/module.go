package followups

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
	svc     *Service
	handler *Handler
}

// NewModule wires the follow-up service over Postgres. whatsapp may be nil.
func NewModule(pool *pgxpool.Pool, leadReader leads.Reader, queue Enqueuer, mail EmailSender, whatsapp WhatsAppSender, cfg config.FollowUpConfig, m *metrics.Metrics, log *logger.Logger) *Module {
	cadence := Cadence{
		Email:    cfg.GetFollowUpEmailDelay(),
		WhatsApp: cfg.GetFollowUpWhatsAppDelay(),
		Call:     cfg.GetFollowUpCallDelay(),
	}
	svc := NewService(NewRepository(pool), leadReader, queue, mail, whatsapp, cadence, m, log)
	return &Module{svc: svc, handler: NewHandler(svc)}
}

func (m *Module) Name() string { return "followups" }

// Service implements the leads follow-up scheduler and the worker processor.
func (m *Module) Service() *Service { return m.svc }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/campaign-bookings/:bookingId/followups",
		httpkit.RequireRole(httpkit.RoleAdmin, httpkit.RoleBDA), m.handler.List)
}

var _ apphttp.Module = (*Module)(nil)
