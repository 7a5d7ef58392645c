// Package metrics exposes Prometheus collectors for HTTP traffic and the lead lifecycle.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LeadsClaimed       prometheus.Counter
	LeadsUnclaimed     prometheus.Counter
	LeadStatusChanges  *prometheus.CounterVec
	LeadsDeleted       prometheus.Counter
	CampaignMessages   *prometheus.CounterVec
	FollowUpsScheduled *prometheus.CounterVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates metrics on a private registry that also carries the Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LeadsClaimed: f.NewCounter(prometheus.CounterOpts{
			Name: "leads_claimed_total",
			Help: "Leads claimed by a BDA",
		}),
		LeadsUnclaimed: f.NewCounter(prometheus.CounterOpts{
			Name: "leads_unclaimed_total",
			Help: "Leads released by an admin",
		}),
		LeadStatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_status_changes_total",
			Help: "Lead status transitions by target status",
		}, []string{"status"}),
		LeadsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "leads_deleted_total",
			Help: "Booking rows purged by client email",
		}),
		CampaignMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_messages_total",
			Help: "Campaign messages by channel and outcome",
		}, []string{"channel", "outcome"}),
		FollowUpsScheduled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "followups_scheduled_total",
			Help: "Follow-ups enqueued by channel",
		}, []string{"channel"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits by cache name",
		}, []string{"cache"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses by cache name",
		}, []string{"cache"}),
	}
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency keyed by route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordCache(name string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(name).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(name).Inc()
}

func (m *Metrics) RecordCampaignMessage(channel, outcome string) {
	if m == nil {
		return
	}
	m.CampaignMessages.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) RecordFollowUp(channel string) {
	if m == nil {
		return
	}
	m.FollowUpsScheduled.WithLabelValues(channel).Inc()
}
