package analytics

import (
	"net/http"
	"strconv"

	"bda_portal_backend/internal/leads/transport"
	"bda_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc      *Service
	exporter *Exporter
}

func NewHandler(svc *Service, exporter *Exporter) *Handler {
	return &Handler{svc: svc, exporter: exporter}
}

func rangeFromQuery(c *gin.Context) (Range, error) {
	from, toBefore, err := transport.ParseDateRange(c.Query("fromDate"), c.Query("toDate"))
	if err != nil {
		return Range{}, err
	}
	return Range{From: from, ToBefore: toBefore}, nil
}

// Report handles GET /api/crm/admin/bda-analysis.
func (h *Handler) Report(c *gin.Context) {
	rng, err := rangeFromQuery(c)
	if httpkit.HandleError(c, err) {
		return
	}
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	report, err := h.svc.Report(c.Request.Context(), rng, refresh)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

// Export handles GET /api/crm/admin/bda-analysis/export.
func (h *Handler) Export(c *gin.Context) {
	rng, err := rangeFromQuery(c)
	if httpkit.HandleError(c, err) {
		return
	}

	ctx := c.Request.Context()
	out, err := h.exporter.Render(ctx, rng)
	if httpkit.HandleError(c, err) {
		return
	}

	if h.exporter.Archives() {
		archived, err := h.exporter.Archive(ctx, out)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, archived)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+out.FileName+`"`)
	c.Data(http.StatusOK, ContentTypeXLSX, out.Data)
}
