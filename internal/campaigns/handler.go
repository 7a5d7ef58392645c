package campaigns

import (
	"net/http"

	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/platform/httpkit"
	"bda_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type runsResponse struct {
	Items []Run `json:"items"`
}

func actorFrom(id httpkit.Identity) domain.Actor {
	return domain.Actor{Email: id.Email(), Name: id.Name(), Roles: id.Roles()}
}

// bind decodes and validates the body; false means a response was written.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Messages(err))
		return false
	}
	return true
}

// SendWhatsApp handles POST /api/whatsapp-campaigns/send.
func (h *Handler) SendWhatsApp(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	var req SendWhatsAppRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.svc.SendWhatsApp(c.Request.Context(), actorFrom(id), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SendEmail handles POST /api/email-campaigns/send.
func (h *Handler) SendEmail(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	var req SendEmailRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.svc.SendEmail(c.Request.Context(), actorFrom(id), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) listRuns(channel Channel) gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := h.svc.Runs(c.Request.Context(), channel)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, runsResponse{Items: runs})
	}
}
