package webhook

import (
	"encoding/json"
	"net/http"

	"bda_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const errInvalidRequest = "invalid request body"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleScheduling processes a signed scheduling event.
// POST /api/webhooks/scheduling
func (h *Handler) HandleScheduling(c *gin.Context) {
	raw, ok := c.Get(contextBodyKey)
	body, _ := raw.([]byte)
	if !ok || len(body) == 0 {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}

	var event SchedulingEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Event == "" {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}

	resp, err := h.service.Process(c.Request.Context(), DeliveryID(body), event)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
