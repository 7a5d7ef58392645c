package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bda_portal_backend/internal/events"
	"bda_portal_backend/internal/leads/claims"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/leadstest"
	"bda_portal_backend/internal/leads/management"
	"bda_portal_backend/internal/leads/status"
	"bda_portal_backend/internal/leads/transport"
	"bda_portal_backend/platform/httpkit"
	"bda_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noIncentives struct{}

func (noIncentives) Lookup(context.Context) (map[domain.PlanName]domain.PlanConfig, error) {
	return map[domain.PlanName]domain.PlanConfig{}, nil
}

func newRouter(t *testing.T, repo *leadstest.Memory) *gin.Engine {
	t.Helper()
	require.NoError(t, transport.RegisterValidators())
	gin.SetMode(gin.TestMode)

	bus := events.NewInMemoryBus(logger.Nop())
	statusSvc := status.New(repo, nil, nil, bus, logger.Nop())
	h := New(
		claims.New(repo, statusSvc, noIncentives{}, bus, "IN", logger.Nop()),
		statusSvc,
		management.New(repo, bus, "IN", logger.Nop()),
	)

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set(httpkit.ContextEmailKey, c.GetHeader("X-Test-Email"))
		c.Set(httpkit.ContextRolesKey, strings.Split(c.GetHeader("X-Test-Roles"), ","))
		c.Next()
	})
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api.Group("/crm/admin", httpkit.RequireRole(httpkit.RoleAdmin)))
	return r
}

func do(r *gin.Engine, method, path, email, roles, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-Email", email)
	req.Header.Set("X-Test-Roles", roles)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClaimFlow(t *testing.T) {
	repo := leadstest.NewMemory(domain.Lead{BookingID: "b1", ClientEmail: "jane@example.com"})
	r := newRouter(t, repo)

	w := do(r, http.MethodGet, "/api/bda/lead-by-email/jane@example.com", "asha@x.io", "bda", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/bda/claim-lead/b1", "asha@x.io", "bda", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/bda/claim-lead/b1", "ravi@x.io", "bda", "")
	require.Equal(t, http.StatusConflict, w.Code)
	var conflict httpkit.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conflict))
	assert.Contains(t, w.Body.String(), "asha@x.io")

	w = do(r, http.MethodPost, "/api/crm/admin/booking/b1/unclaim", "asha@x.io", "bda", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/crm/admin/booking/b1/unclaim", "root@x.io", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ := repo.Get("b1")
	assert.False(t, stored.IsClaimed())
}

func TestMarketingCannotClaim(t *testing.T) {
	r := newRouter(t, leadstest.NewMemory(domain.Lead{BookingID: "b1", ClientEmail: "c@x.io"}))
	w := do(r, http.MethodPost, "/api/bda/claim-lead/b1", "m@x.io", "marketing", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatusPaidWithoutPlan(t *testing.T) {
	repo := leadstest.NewMemory(domain.Lead{BookingID: "b1", ClientEmail: "c@x.io"})
	r := newRouter(t, repo)

	w := do(r, http.MethodPut, "/api/campaign-bookings/b1/status", "asha@x.io", "bda", `{"status":"paid"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/api/campaign-bookings/b1/status", "asha@x.io", "bda", `{"status":"won"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/api/campaign-bookings/b1/status", "asha@x.io", "bda",
		`{"status":"paid","plan":{"name":"PRIME","price":119,"currency":"USD"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp transport.StatusChangeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.StatusPaid, resp.Lead.BookingStatus)
	assert.Equal(t, "$119.00", resp.Lead.PaymentPlan.DisplayPrice)
}

func TestListAndDelete(t *testing.T) {
	repo := leadstest.NewMemory(
		domain.Lead{BookingID: "b1", ClientEmail: "jane@example.com"},
		domain.Lead{BookingID: "b2", ClientEmail: "john@example.com"},
	)
	r := newRouter(t, repo)

	w := do(r, http.MethodGet, "/api/leads/paginated?search=jane&page=1&limit=10", "m@x.io", "marketing", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list transport.ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Pagination.Total)

	w = do(r, http.MethodDelete, "/api/users/delete/jane@example.com", "m@x.io", "marketing", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	for i, want := range []int64{1, 0} {
		w = do(r, http.MethodDelete, "/api/users/delete/jane@example.com", "root@x.io", "admin", "")
		require.Equal(t, http.StatusOK, w.Code, "call %d", i)
		var del transport.DeleteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &del))
		assert.Equal(t, want, del.Deleted)
	}

	w = do(r, http.MethodGet, "/api/leads/paginated?search=jane", "m@x.io", "marketing", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Pagination.Total)
}

func TestWorkflowCheckAndPermissions(t *testing.T) {
	r := newRouter(t, leadstest.NewMemory())

	w := do(r, http.MethodGet, "/api/campaign-bookings/workflow-check?status=completed", "a@x.io", "bda", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"needsAdditionalDetails":false`)

	w = do(r, http.MethodGet, "/api/crm/permissions", "a@x.io", "bda", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "claim-leads")
	assert.NotContains(t, w.Body.String(), "bda-analysis")
}

func TestListRejectsBadLimit(t *testing.T) {
	r := newRouter(t, leadstest.NewMemory())
	w := do(r, http.MethodGet, "/api/campaign-bookings/paginated?limit=500", "a@x.io", "admin", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
