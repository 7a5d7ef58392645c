package followups

import (
	"bda_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type listResponse struct {
	Items []FollowUp `json:"items"`
}

// List handles GET /api/campaign-bookings/:bookingId/followups.
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.ForBooking(c.Request.Context(), c.Param("bookingId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, listResponse{Items: items})
}
