package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/bda/lead-by-email/:email", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, email := range []string{"a@x.io", "b@x.io"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bda/lead-by-email/"+email, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/bda/lead-by-email/:email", "200"))
	assert.Equal(t, 2.0, got)
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	m := New()
	m.LeadsClaimed.Inc()
	m.RecordCache("analytics", true)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "leads_claimed_total 1"))
	assert.True(t, strings.Contains(body, `cache_hits_total{cache="analytics"} 1`))
}
