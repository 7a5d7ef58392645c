package handler

import (
	"net/http"

	"bda_portal_backend/internal/leads/claims"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/management"
	"bda_portal_backend/internal/leads/status"
	"bda_portal_backend/internal/leads/transport"
	"bda_portal_backend/platform/httpkit"
	"bda_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	claims     *claims.Service
	status     *status.Service
	management *management.Service
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(claimsSvc *claims.Service, statusSvc *status.Service, mgmtSvc *management.Service) *Handler {
	return &Handler{claims: claimsSvc, status: statusSvc, management: mgmtSvc}
}

// RegisterRoutes mounts routes on the authenticated /api group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	bda := api.Group("/bda", httpkit.RequireRole(httpkit.RoleBDA, httpkit.RoleAdmin))
	bda.GET("/lead-by-email/:email", h.LeadByEmail)
	bda.POST("/claim-lead/:bookingId", h.ClaimLead)
	bda.PUT("/update-lead/:bookingId", h.UpdateLead)
	bda.GET("/my-leads", h.MyLeads)

	bookings := api.Group("/campaign-bookings")
	bookings.GET("/paginated", h.ListCampaignBookings)
	bookings.GET("/workflow-check", h.WorkflowCheck)
	bookings.PUT("/:bookingId/status", h.ChangeStatus)
	bookings.GET("/:bookingId/transitions", h.Transitions)
	bookings.GET("/:bookingId/history", h.History)

	api.GET("/leads/paginated", h.ListLeads)
	api.GET("/leads/:bookingId", h.GetLead)

	api.DELETE("/users/delete/:email", httpkit.RequireRole(httpkit.RoleAdmin, httpkit.RoleBDA), h.DeleteByEmail)
	api.GET("/crm/permissions", h.Permissions)
}

// RegisterAdminRoutes mounts routes on the admin-only /api/crm/admin group.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/booking/:bookingId/unclaim", h.Unclaim)
}

func actorFrom(id httpkit.Identity) domain.Actor {
	return domain.Actor{Email: id.Email(), Name: id.Name(), Roles: id.Roles()}
}

func (h *Handler) LeadByEmail(c *gin.Context) {
	lead, err := h.claims.LeadByEmail(c.Request.Context(), c.Param("email"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) ClaimLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ClaimLeadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}

	lead, err := h.claims.Claim(c.Request.Context(), actorFrom(id), c.Param("bookingId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Messages(err))
		return
	}

	resp, err := h.claims.UpdateLead(c.Request.Context(), actorFrom(id), c.Param("bookingId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) MyLeads(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	req, ok := bindListRequest(c)
	if !ok {
		return
	}
	resp, err := h.claims.MyLeads(c.Request.Context(), actorFrom(id), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Unclaim(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	lead, err := h.claims.Unclaim(c.Request.Context(), actorFrom(id), c.Param("bookingId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Messages(err))
		return
	}

	resp, err := h.status.ChangeStatus(c.Request.Context(), actorFrom(id), c.Param("bookingId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) WorkflowCheck(c *gin.Context) {
	resp, err := h.status.NeedsAdditionalDetails(c.Request.Context(), c.Query("status"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Transitions(c *gin.Context) {
	resp, err := h.status.Transitions(c.Request.Context(), c.Param("bookingId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) History(c *gin.Context) {
	resp, err := h.status.History(c.Request.Context(), c.Param("bookingId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ListLeads(c *gin.Context) {
	req, ok := bindListRequest(c)
	if !ok {
		return
	}
	resp, err := h.management.ListLeads(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ListCampaignBookings(c *gin.Context) {
	req, ok := bindListRequest(c)
	if !ok {
		return
	}
	resp, err := h.management.ListCampaignBookings(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetLead(c *gin.Context) {
	lead, err := h.management.GetByID(c.Request.Context(), c.Param("bookingId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) DeleteByEmail(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	resp, err := h.management.DeleteByEmail(c.Request.Context(), actorFrom(id), c.Param("email"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Permissions(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	httpkit.OK(c, management.Permissions(id.Roles()))
}

func bindListRequest(c *gin.Context) (transport.ListLeadsRequest, bool) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Messages(err))
		return req, false
	}
	return req, true
}
