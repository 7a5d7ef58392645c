package crmclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bda_portal_backend/internal/analytics"
	"bda_portal_backend/internal/campaigns"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newServer(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, WithToken("tok")), &calls
}

func TestFetchErrorFromServerMessage(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "lead not found"})
	})

	_, err := c.LeadByEmail(context.Background(), "jane@example.com")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Equal(t, "lead not found", fe.Message)
}

func TestFetchErrorGenericFallback(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := c.Permissions(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadGateway, fe.Status)
	assert.Equal(t, GenericErrorMessage, fe.Message)
}

func TestNonJSONSuccessIsAnError(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	})

	_, err := c.Permissions(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLocalValidationSendsNothing(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	ctx := context.Background()
	var ve *ValidationError

	_, err := c.LeadByEmail(ctx, "  ")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)

	_, err = c.ChangeStatus(ctx, "b1", transport.StatusChangeRequest{Status: "paid"})
	require.ErrorAs(t, err, &ve)

	_, err = c.ChangeStatus(ctx, "b1", transport.StatusChangeRequest{
		Status: "paid",
		Plan:   &domain.PaymentPlan{Name: domain.PlanPrime, Price: 0},
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "plan.price", ve.Field)

	paid := domain.StatusPaid
	_, err = c.UpdateLead(ctx, "b1", UpdateLead{BookingStatus: &paid})
	require.ErrorAs(t, err, &ve)

	_, err = c.ClaimLead(ctx, "b1", &domain.PaymentPlan{Name: "GOLD", Price: 10})
	require.ErrorAs(t, err, &ve)

	_, err = c.DeleteClient(ctx, "")
	require.ErrorAs(t, err, &ve)

	assert.Equal(t, int32(0), calls.Load())
}

func TestChangeStatusSendsNormalizedRequest(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/campaign-bookings/b1/status", r.URL.Path)
		var req transport.StatusChangeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "paid", req.Status)
		writeJSON(w, http.StatusOK, transport.StatusChangeResponse{Lead: transport.LeadResponse{BookingID: "b1", BookingStatus: domain.StatusPaid}})
	})

	resp, err := c.ChangeStatus(context.Background(), "b1", transport.StatusChangeRequest{
		Status: " PAID ",
		Plan:   &domain.PaymentPlan{Name: "prime", Price: 59.5, Currency: "usd"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, resp.Lead.BookingStatus)
}

func TestUpdateLeadClearsPhoneWithNull(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		v, ok := body["clientPhone"]
		assert.True(t, ok)
		assert.Nil(t, v)
		assert.NotContains(t, body, "meetingNotes")
		writeJSON(w, http.StatusOK, transport.StatusChangeResponse{Lead: transport.LeadResponse{BookingID: "b1"}})
	})

	resp, err := c.UpdateLead(context.Background(), "b1", UpdateLead{ClearPhone: true})
	require.NoError(t, err)
	assert.Equal(t, "b1", resp.Lead.BookingID)
}

func TestQueryStateResetsPage(t *testing.T) {
	min := 10.0
	q := QueryState{Page: 4, Limit: 20}
	assert.Equal(t, 1, q.WithSearch("jane").Page)
	assert.Equal(t, 1, q.WithStatus("paid").Page)
	assert.Equal(t, 1, q.WithPlan("PRIME").Page)
	assert.Equal(t, 1, q.WithDateRange("2026-01-01", "2026-01-31").Page)
	assert.Equal(t, 1, q.WithUTMSource("instagram").Page)
	assert.Equal(t, 1, q.WithAmountRange(&min, nil).Page)
	assert.Equal(t, 4, q.Page, "original value is unchanged")
	assert.Equal(t, 7, q.WithPage(7).Page)
}

func TestToQueryString(t *testing.T) {
	min := 59.5
	q := QueryState{}.WithSearch("jane@example.com").WithStatus("all").WithPlan("PRIME").WithAmountRange(&min, nil)
	assert.Equal(t, "minAmount=59.5&page=1&plan=PRIME&search=jane%40example.com", ToQueryString(q))
	assert.Equal(t, "", ToQueryString(QueryState{}))
}

func TestDebouncerFiresOnceWithLastValue(t *testing.T) {
	var mu sync.Mutex
	var got []string
	d := NewDebouncer(30*time.Millisecond, func(v string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, v)
	})

	for _, v := range []string{"j", "ja", "jan", "jane@example.com"} {
		d.Trigger(v)
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"jane@example.com"}, got)
}

func TestDebouncerStop(t *testing.T) {
	var fired atomic.Bool
	d := NewDebouncer(20*time.Millisecond, func(string) { fired.Store(true) })
	d.Trigger("x")
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestLatestOnlyDropsStaleResult(t *testing.T) {
	var loader LatestOnly[string]
	started := make(chan struct{})
	release := make(chan struct{})

	var firstErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = loader.Do(context.Background(), func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started

	value, err := loader.Do(context.Background(), func(context.Context) (string, error) {
		return "fresh", nil
	})
	close(release)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, "fresh", value)
	assert.ErrorIs(t, firstErr, ErrSuperseded)
}

func TestLatestOnlyCancelsPrevious(t *testing.T) {
	var loader LatestOnly[int]
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := loader.Do(context.Background(), func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		})
		done <- err
	}()
	<-started

	_, err := loader.Do(context.Background(), func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.ErrorIs(t, <-done, ErrSuperseded)
}

func campaignServer(t *testing.T) (*Client, *atomic.Int32) {
	return newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req campaigns.SendWhatsAppRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !req.ProceedWithValid {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": "some recipients have already paid",
				"details": map[string]any{
					"paidRecipients": []map[string]string{{"bookingId": "b3", "clientName": "Paid"}},
					"validCount":     1,
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, campaigns.Result{Requested: 2, Sent: 1, SkippedPaid: 1})
	})
}

func TestSendWhatsAppCampaignConfirmed(t *testing.T) {
	c, calls := campaignServer(t)
	var seen PartialFailure

	result, err := c.SendWhatsAppCampaign(context.Background(),
		campaigns.SendWhatsAppRequest{BookingIDs: []string{"b2", "b3"}, Message: "Hi"},
		func(pf PartialFailure) bool {
			seen = pf
			return true
		})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, seen.ValidCount)
	assert.Equal(t, "b3", seen.PaidRecipients[0].BookingID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendWhatsAppCampaignDeclined(t *testing.T) {
	c, calls := campaignServer(t)

	_, err := c.SendWhatsAppCampaign(context.Background(),
		campaigns.SendWhatsAppRequest{BookingIDs: []string{"b2", "b3"}, Message: "Hi"},
		func(PartialFailure) bool { return false })
	assert.ErrorIs(t, err, ErrCampaignDeclined)
	assert.Equal(t, int32(1), calls.Load())

	_, err = c.SendWhatsAppCampaign(context.Background(), campaigns.SendWhatsAppRequest{Message: "Hi"}, nil)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyticsCache(t *testing.T) {
	var refreshes atomic.Int32
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("refresh") == "true" {
			refreshes.Add(1)
		}
		writeJSON(w, http.StatusOK, analytics.Report{Totals: analytics.Totals{Leads: 12}})
	})
	cache := NewAnalyticsCache(c)
	ctx := context.Background()

	first, err := cache.Get(ctx, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, 12, first.Totals.Leads)
	_, err = cache.Get(ctx, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	_, err = cache.Get(ctx, "2026-01-01", "", false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	_, err = cache.Get(ctx, "", "", true)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(1), refreshes.Load())

	cache.Invalidate()
	_, err = cache.Get(ctx, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
}
