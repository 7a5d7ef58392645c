package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bda_portal_backend/internal/campaigns"
	"bda_portal_backend/internal/crmclient"
	"bda_portal_backend/internal/incentives"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/transport"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	url   string
	calls *atomic.Int32
}

func newHarness(t *testing.T, h http.HandlerFunc) harness {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return harness{url: srv.URL, calls: &calls}
}

func (h harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(stdin), &out)
	cmd.SetArgs(append([]string{"--api-url", h.url, "--token", "tok"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sampleLead() transport.LeadResponse {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return transport.LeadResponse{
		BookingID:               "bk-1",
		ClientName:              "Jane Roe",
		ClientEmail:             "jane@example.com",
		ScheduledEventStartTime: &start,
		BookingStatus:           domain.StatusScheduled,
		UTMSource:               "direct",
	}
}

func TestLeadGetPrintsDetails(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bda/lead-by-email/jane@example.com", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, sampleLead())
	})

	out, err := h.run(t, "", "lead", "get", "jane@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Lead bk-1")
	assert.Contains(t, out, "Jane Roe <jane@example.com>")
	assert.Contains(t, out, "unclaimed")
}

func TestLeadGetJSONOutput(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sampleLead())
	})

	out, err := h.run(t, "", "-o", "json", "lead", "get", "jane@example.com")
	require.NoError(t, err)
	var got transport.LeadResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "bk-1", got.BookingID)
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := h.run(t, "", "-o", "yaml", "lead", "get", "jane@example.com")
	require.Error(t, err)
	assert.Zero(t, h.calls.Load())
}

func TestLeadStatusPaidNeedsPlanBeforeRequest(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := h.run(t, "", "lead", "status", "bk-1", "paid")
	var ve *crmclient.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, h.calls.Load())
}

func TestLeadStatusSendsPlan(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/campaign-bookings/bk-1/status", r.URL.Path)
		var req transport.StatusChangeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "paid", req.Status)
		require.NotNil(t, req.Plan)
		assert.Equal(t, domain.PlanPrime, req.Plan.Name)
		assert.InDelta(t, 599.0, req.Plan.Price, 0.001)

		lead := sampleLead()
		lead.BookingStatus = domain.StatusPaid
		writeJSON(w, http.StatusOK, transport.StatusChangeResponse{Lead: lead})
	})

	out, err := h.run(t, "", "lead", "status", "bk-1", "paid", "--plan", "PRIME", "--price", "599")
	require.NoError(t, err)
	assert.Contains(t, out, "bk-1 is now paid")
}

func TestGlobalFlagsFallBackToEnvironment(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer env-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, sampleLead())
	})
	t.Setenv("BDACTL_API_URL", h.url)
	t.Setenv("BDACTL_TOKEN", "env-token")
	t.Setenv("BDACTL_OUTPUT", "json")

	var out bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(""), &out)
	cmd.SetArgs([]string{"lead", "get", "jane@example.com"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), `"bookingId": "bk-1"`)

	out.Reset()
	cmd = NewRootCommand(strings.NewReader(""), &out)
	cmd.SetArgs([]string{"--api-url", "http://127.0.0.1:1", "lead", "get", "jane@example.com"})
	require.Error(t, cmd.ExecuteContext(context.Background()), "flag wins over environment")
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestLeadUpdateClearPhone(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		v, ok := body["clientPhone"]
		assert.True(t, ok)
		assert.Nil(t, v)
		assert.Equal(t, "call after 5", body["meetingNotes"])
		writeJSON(w, http.StatusOK, transport.StatusChangeResponse{Lead: sampleLead()})
	})

	out, err := h.run(t, "", "lead", "update", "bk-1", "--clear-phone", "--notes", "call after 5")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated bk-1")
	assert.Contains(t, out, sampleLead().ClientEmail)
}

func TestLeadUpdateReportsFollowUps(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		lead := sampleLead()
		lead.BookingStatus = domain.StatusCompleted
		writeJSON(w, http.StatusOK, transport.StatusChangeResponse{Lead: lead, FollowUpScheduled: true, FollowUpCount: 3})
	})

	out, err := h.run(t, "", "lead", "update", "bk-1", "--status", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated bk-1")
	assert.Contains(t, out, "3 follow-ups scheduled")
}

func TestLeadsMineShowsIncentives(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paid", r.URL.Query().Get("status"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, transport.MyLeadsResponse{
			Items:                  []transport.LeadResponse{sampleLead()},
			Pagination:             transport.Pagination{Page: 1, Limit: 20, Total: 1, TotalPages: 1},
			TotalIncentivesDisplay: "₹1,500",
			PaidLeads:              1,
			ExcludedNonUSD:         2,
		})
	})

	out, err := h.run(t, "", "leads", "mine", "--status", "paid")
	require.NoError(t, err)
	assert.Contains(t, out, "bk-1")
	assert.Contains(t, out, "₹1,500 across 1 paid leads")
	assert.Contains(t, out, "2 non-USD payments")
}

func TestLeadsListRejectsUnknownView(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := h.run(t, "", "leads", "list", "--view", "everything")
	require.Error(t, err)
	assert.Zero(t, h.calls.Load())
}

func TestClientDeleteAbortsWithoutConfirmation(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	out, err := h.run(t, "n\n", "client", "delete", "jane@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "aborted")
	assert.Zero(t, h.calls.Load())
}

func TestClientDeleteWithYes(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusOK, transport.DeleteResponse{Email: "jane@example.com", Deleted: 3})
	})

	out, err := h.run(t, "", "client", "delete", "jane@example.com", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 3 leads for jane@example.com")
}

func TestCampaignWhatsAppConfirmsPaidRecipients(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		var req campaigns.SendWhatsAppRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !req.ProceedWithValid {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": "some recipients already paid",
				"details": map[string]any{
					"paidRecipients": []campaigns.Recipient{{BookingID: "bk-2", ClientName: "Paid Client"}},
					"validCount":     1,
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, campaigns.Result{Requested: 2, Sent: 1, SkippedPaid: 1})
	})

	out, err := h.run(t, "y\n", "campaign", "whatsapp", "--ids", "bk-1,bk-2", "-m", "Hi {{.ClientName}}")
	require.NoError(t, err)
	assert.Contains(t, out, "bk-2  Paid Client")
	assert.Contains(t, out, "1 of 2 sent")
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestCampaignWhatsAppDeclined(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "some recipients already paid",
			"details": map[string]any{
				"paidRecipients": []campaigns.Recipient{{BookingID: "bk-2"}},
				"validCount":     0,
			},
		})
	})

	out, err := h.run(t, "n\n", "campaign", "whatsapp", "--ids", "bk-2", "-m", "Hi")
	require.NoError(t, err)
	assert.Contains(t, out, "campaign not sent")
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestIncentivesSetFromArgs(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		var req incentives.UpdateConfigRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Plans, 1)
		assert.Equal(t, domain.PlanIgnite, req.Plans[0].PlanName)
		writeJSON(w, http.StatusOK, incentives.ConfigResponse{Plans: []incentives.StoredConfig{{PlanConfig: req.Plans[0]}}})
	})

	out, err := h.run(t, "", "incentives", "set", "ignite", "999", "2000")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 1 plans")
	assert.Contains(t, out, "IGNITE")
}

func TestIncentivesSetRejectsBadNumber(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := h.run(t, "", "incentives", "set", "PRIME", "abc", "2000")
	var ve *crmclient.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "basePriceUsd", ve.Field)
}

func TestPrintErrorKinds(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, &crmclient.ValidationError{Field: "email", Message: "invalid"})
	printError(&buf, &crmclient.FetchError{Status: 500, Message: "boom"})
	assert.Contains(t, buf.String(), "invalid input:")
	assert.Contains(t, buf.String(), "request failed:")
}

func TestPlanFlagHelpListsKnownValues(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	out, err := h.run(t, "", "lead", "status", "--help")
	require.NoError(t, err)
	for _, plan := range domain.PlanValues() {
		assert.Contains(t, out, plan)
	}
	assert.Contains(t, out, "USD, CAD")
	assert.Equal(t, int32(0), h.calls.Load())
}
