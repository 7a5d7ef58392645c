package analytics

import (
	"bda_portal_backend/internal/adapters/storage"
	"bda_portal_backend/internal/events"
	apphttp "bda_portal_backend/internal/http"
	"bda_portal_backend/platform/cache"
	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	svc     *Service
	handler *Handler
}

// NewModule wires analytics over Postgres. objects may be nil.
func NewModule(pool *pgxpool.Pool, configs ConfigLookup, c cache.Cache, cfg config.CacheConfig, objects storage.StorageService, bus events.Bus, m *metrics.Metrics, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), configs, c, cfg.GetAnalyticsCacheTTL(), m, log)
	if bus != nil {
		svc.SubscribeInvalidation(bus)
	}
	return &Module{svc: svc, handler: NewHandler(svc, NewExporter(svc, objects))}
}

func (m *Module) Name() string { return "analytics" }

// Service is used by the scheduler warm-up job.
func (m *Module) Service() *Service { return m.svc }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/bda-analysis", m.handler.Report)
	ctx.Admin.GET("/bda-analysis/export", m.handler.Export)
}

var _ apphttp.Module = (*Module)(nil)
