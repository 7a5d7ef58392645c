package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bda_portal_backend/internal/events"
	apphttp "bda_portal_backend/internal/http"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/leadstest"
	"bda_portal_backend/internal/leads/management"
	"bda_portal_backend/internal/leads/status"
	"bda_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "shh"

type memDeliveries struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (m *memDeliveries) Claim(_ context.Context, deliveryID, _, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]string{}
	}
	if _, ok := m.outcomes[deliveryID]; ok {
		return false, nil
	}
	m.outcomes[deliveryID] = ""
	return true, nil
}

func (m *memDeliveries) Release(_ context.Context, deliveryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.outcomes, deliveryID)
	return nil
}

func (m *memDeliveries) SetOutcome(_ context.Context, deliveryID, outcome string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[deliveryID] = outcome
	return nil
}

func newTestRouter(t *testing.T, repo *leadstest.Memory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	bus := events.NewInMemoryBus(logger.Nop())
	svc := NewService(&memDeliveries{}, management.New(repo, bus, "IN", logger.Nop()), repo,
		status.New(repo, nil, nil, bus, logger.Nop()), logger.Nop())

	r := gin.New()
	m := &Module{handler: NewHandler(svc), secret: testSecret}
	m.RegisterRoutes(&apphttp.RouterContext{Engine: r, API: r.Group("/api")})
	return r
}

func send(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/scheduling", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(HeaderSignature, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

const createdBody = `{
  "event": "invitee.created",
  "payload": {
    "uri": "https://api.scheduling.test/scheduled_events/ev1/invitees/inv-123",
    "name": " Jane Doe ",
    "email": "Jane@Example.com",
    "scheduled_event": {"start_time": "2026-05-01T10:00:00Z"},
    "questions_and_answers": [
      {"question": "Phone Number", "answer": "+91 98765-43210"},
      {"question": "Anything to know?", "answer": "Prefers mornings"}
    ],
    "tracking": {"utm_source": "instagram"}
  }
}`

func TestSignatureRequired(t *testing.T) {
	r := newTestRouter(t, leadstest.NewMemory())

	assert.Equal(t, http.StatusUnauthorized, send(r, createdBody, "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(r, createdBody, Sign("other", []byte(createdBody))).Code)
	assert.Equal(t, http.StatusOK, send(r, createdBody, "sha256="+Sign(testSecret, []byte(createdBody))).Code)
}

func TestInviteeCreatedIngestsLead(t *testing.T) {
	repo := leadstest.NewMemory()
	r := newTestRouter(t, repo)

	w := send(r, createdBody, Sign(testSecret, []byte(createdBody)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, "inv-123", resp.BookingID)
	assert.Equal(t, OutcomeCreated, resp.Outcome)

	lead, ok := repo.Get("inv-123")
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", lead.ClientEmail)
	assert.Equal(t, "Jane Doe", lead.ClientName)
	assert.Equal(t, domain.StatusScheduled, lead.Status)
	assert.Equal(t, "instagram", lead.UTMSource)
	assert.Equal(t, "Prefers mornings", lead.AnythingToKnow)
	require.NotNil(t, lead.ClientPhone)
	assert.Equal(t, "+919876543210", *lead.ClientPhone)
	require.NotNil(t, lead.ScheduledEventStartTime)
	assert.True(t, lead.ScheduledEventStartTime.Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)))

	w = send(r, createdBody, Sign(testSecret, []byte(createdBody)))
	assert.Equal(t, OutcomeDuplicate, decode(t, w).Outcome)
}

func TestInviteeCreatedWithoutIDGetsUUID(t *testing.T) {
	repo := leadstest.NewMemory()
	r := newTestRouter(t, repo)
	body := `{"event":"invitee.created","payload":{"name":"Raj","email":"raj@example.com"}}`

	w := send(r, body, Sign(testSecret, []byte(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Len(t, resp.BookingID, 36)
	_, ok := repo.Get(resp.BookingID)
	assert.True(t, ok)
}

func TestInviteeCreatedRequiresEmail(t *testing.T) {
	r := newTestRouter(t, leadstest.NewMemory())
	body := `{"event":"invitee.created","payload":{"name":"Raj","email":"not-an-email"}}`

	assert.Equal(t, http.StatusBadRequest, send(r, body, Sign(testSecret, []byte(body))).Code)
}

func TestInviteeCanceled(t *testing.T) {
	repo := leadstest.NewMemory(
		domain.Lead{BookingID: "b1", ClientEmail: "a@example.com"},
		domain.Lead{BookingID: "b2", ClientEmail: "b@example.com", Status: domain.StatusPaid,
			PaymentPlan: &domain.PaymentPlan{Name: domain.PlanPrime, Price: 100, Currency: domain.CurrencyUSD}},
	)
	r := newTestRouter(t, repo)

	body := `{"event":"invitee.canceled","payload":{"booking_id":"b1"}}`
	w := send(r, body, Sign(testSecret, []byte(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, OutcomeCanceled, decode(t, w).Outcome)
	lead, _ := repo.Get("b1")
	assert.Equal(t, domain.StatusCanceled, lead.Status)

	body = `{"event":"invitee.canceled","payload":{"booking_id":"b1","name":"again"}}`
	assert.Equal(t, OutcomeIgnored, decode(t, send(r, body, Sign(testSecret, []byte(body)))).Outcome)

	body = `{"event":"invitee.canceled","payload":{"booking_id":"b2"}}`
	assert.Equal(t, OutcomeIgnored, decode(t, send(r, body, Sign(testSecret, []byte(body)))).Outcome)
	paid, _ := repo.Get("b2")
	assert.Equal(t, domain.StatusPaid, paid.Status)

	body = `{"event":"invitee.canceled","payload":{"booking_id":"unknown"}}`
	assert.Equal(t, OutcomeIgnored, decode(t, send(r, body, Sign(testSecret, []byte(body)))).Outcome)
}

func TestUnknownEventIgnored(t *testing.T) {
	r := newTestRouter(t, leadstest.NewMemory())
	body := `{"event":"routing_form_submission.created","payload":{}}`

	w := send(r, body, Sign(testSecret, []byte(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, OutcomeIgnored, decode(t, w).Outcome)
}

func TestExtractLeadFallsBackToReminderNumber(t *testing.T) {
	lead := extractLead(InviteePayload{
		BookingID:          " b9 ",
		Email:              "x@example.com",
		TextReminderNumber: "(+1) 555 010 2000",
	})
	assert.Equal(t, "b9", lead.BookingID)
	require.NotNil(t, lead.ClientPhone)
	assert.Equal(t, "+15550102000", *lead.ClientPhone)
}
