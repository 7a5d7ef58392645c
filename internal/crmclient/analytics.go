package crmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"bda_portal_backend/internal/analytics"
)

// BDAAnalysis fetches the admin analysis. refresh asks the server to rebuild
// its cached copy.
func (c *Client) BDAAnalysis(ctx context.Context, fromDate, toDate string, refresh bool) (analytics.Report, error) {
	q := url.Values{}
	if v := strings.TrimSpace(fromDate); v != "" {
		q.Set("fromDate", v)
	}
	if v := strings.TrimSpace(toDate); v != "" {
		q.Set("toDate", v)
	}
	if refresh {
		q.Set("refresh", "true")
	}
	var out analytics.Report
	err := c.do(ctx, http.MethodGet, "/api/crm/admin/bda-analysis", q, nil, &out)
	return out, err
}

// AnalysisExport is either a streamed workbook or an archived download link.
type AnalysisExport struct {
	Workbook []byte
	Archived *analytics.Archived
}

func (c *Client) ExportBDAAnalysis(ctx context.Context, fromDate, toDate string) (AnalysisExport, error) {
	q := url.Values{}
	if v := strings.TrimSpace(fromDate); v != "" {
		q.Set("fromDate", v)
	}
	if v := strings.TrimSpace(toDate); v != "" {
		q.Set("toDate", v)
	}
	data, contentType, err := c.raw(ctx, "/api/crm/admin/bda-analysis/export", q)
	if err != nil {
		return AnalysisExport{}, err
	}
	if isJSONContent(contentType) {
		var archived analytics.Archived
		if err := json.Unmarshal(data, &archived); err != nil {
			return AnalysisExport{}, &FetchError{Status: http.StatusOK, Message: GenericErrorMessage, Err: err}
		}
		return AnalysisExport{Archived: &archived}, nil
	}
	return AnalysisExport{Workbook: data}, nil
}

// AnalyticsCache keeps the unfiltered analysis in memory. Filtered requests
// always go to the server.
type AnalyticsCache struct {
	client *Client
	mu     sync.Mutex
	base   *analytics.Report
}

func NewAnalyticsCache(client *Client) *AnalyticsCache {
	return &AnalyticsCache{client: client}
}

// Get returns the analysis for the range. refresh drops the cached base copy.
func (a *AnalyticsCache) Get(ctx context.Context, fromDate, toDate string, refresh bool) (analytics.Report, error) {
	unfiltered := strings.TrimSpace(fromDate) == "" && strings.TrimSpace(toDate) == ""
	if !unfiltered {
		return a.client.BDAAnalysis(ctx, fromDate, toDate, false)
	}

	a.mu.Lock()
	if refresh {
		a.base = nil
	}
	if a.base != nil {
		cached := *a.base
		a.mu.Unlock()
		return cached, nil
	}
	a.mu.Unlock()

	report, err := a.client.BDAAnalysis(ctx, "", "", refresh)
	if err != nil {
		return analytics.Report{}, err
	}
	a.mu.Lock()
	a.base = &report
	a.mu.Unlock()
	return report, nil
}

// Invalidate drops the cached base copy.
func (a *AnalyticsCache) Invalidate() {
	a.mu.Lock()
	a.base = nil
	a.mu.Unlock()
}
