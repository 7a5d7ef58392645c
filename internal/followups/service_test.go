package followups

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"bda_portal_backend/internal/email"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/leadstest"
	"bda_portal_backend/internal/scheduler"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]FollowUp
}

func newMemStore() *memStore {
	return &memStore{rows: map[uuid.UUID]FollowUp{}}
}

func (m *memStore) Create(_ context.Context, f FollowUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[f.ID] = f
	return nil
}

func (m *memStore) SetTaskID(_ context.Context, id uuid.UUID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.rows[id]
	f.TaskID = &taskID
	m.rows[id] = f
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (FollowUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.rows[id]
	if !ok {
		return FollowUp{}, ErrNotFound
	}
	return f, nil
}

func (m *memStore) MarkState(_ context.Context, id uuid.UUID, state State, lastError *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.rows[id]
	if !ok || f.State != StateScheduled {
		return nil
	}
	f.State = state
	if lastError != nil {
		f.LastError = lastError
	}
	m.rows[id] = f
	return nil
}

func (m *memStore) RecordAttemptError(_ context.Context, id uuid.UUID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.rows[id]
	f.LastError = &message
	m.rows[id] = f
	return nil
}

func (m *memStore) ListByBooking(_ context.Context, bookingID string) ([]FollowUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FollowUp, 0)
	for _, f := range m.rows {
		if f.BookingID == bookingID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (m *memStore) FailOverdue(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, f := range m.rows {
		if f.State == StateScheduled && f.DueAt.Before(cutoff) {
			f.State = StateFailed
			m.rows[id] = f
			n++
		}
	}
	return n, nil
}

func (m *memStore) only(t *testing.T, channel Channel) FollowUp {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.rows {
		if f.Channel == channel {
			return f
		}
	}
	t.Fatalf("no %s follow-up", channel)
	return FollowUp{}
}

type fakeQueue struct {
	payloads []scheduler.FollowUpPayload
	runAt    []time.Time
	failFor  string
}

func (q *fakeQueue) EnqueueFollowUp(_ context.Context, payload scheduler.FollowUpPayload, runAt time.Time) (string, error) {
	if payload.Channel == q.failFor {
		return "", errors.New("redis unavailable")
	}
	q.payloads = append(q.payloads, payload)
	q.runAt = append(q.runAt, runAt)
	return payload.FollowUpID, nil
}

type fakeMail struct {
	followUps []string
	reminders []email.CallReminder
	err       error
}

func (m *fakeMail) SendFollowUpEmail(_ context.Context, toEmail, clientName, planName string) error {
	if m.err != nil {
		return m.err
	}
	m.followUps = append(m.followUps, toEmail+"|"+clientName+"|"+planName)
	return nil
}

func (m *fakeMail) SendCallReminderEmail(_ context.Context, toEmail string, reminder email.CallReminder) error {
	m.reminders = append(m.reminders, reminder)
	return nil
}

type fakeWhatsApp struct {
	sent []string
}

func (w *fakeWhatsApp) SendMessage(_ context.Context, phoneNumber, message string) error {
	w.sent = append(w.sent, phoneNumber+"|"+message)
	return nil
}

func completedLead() domain.Lead {
	phone := "+16502530000"
	return domain.Lead{
		BookingID:   "bk-1",
		ClientName:  "Asha",
		ClientEmail: "asha@example.com",
		ClientPhone: &phone,
		Status:      domain.StatusCompleted,
		PlanDetails: &domain.PlanDetails{Plan: domain.PlanPrime, Days: 30},
		ClaimedBy:   &domain.ClaimedBy{Email: "ravi@bda.io", Name: "Ravi"},
	}
}

type fixture struct {
	svc   *Service
	store *memStore
	queue *fakeQueue
	mail  *fakeMail
	wa    *fakeWhatsApp
	leads *leadstest.Memory
	m     *metrics.Metrics
}

func newFixture(leads ...domain.Lead) *fixture {
	f := &fixture{
		store: newMemStore(),
		queue: &fakeQueue{},
		mail:  &fakeMail{},
		wa:    &fakeWhatsApp{},
		leads: leadstest.NewMemory(leads...),
		m:     metrics.New(),
	}
	f.svc = NewService(f.store, f.leads, f.queue, f.mail, f.wa, Cadence{}, f.m, logger.Nop())
	return f
}

func TestScheduleFollowUpsUsesCadence(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	count, err := f.svc.ScheduleFollowUps(context.Background(), completedLead())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.Len(t, f.queue.payloads, 3)
	assert.Equal(t, now.Add(24*time.Hour), f.store.only(t, ChannelEmail).DueAt)
	assert.Equal(t, now.Add(72*time.Hour), f.store.only(t, ChannelWhatsApp).DueAt)
	assert.Equal(t, now.Add(168*time.Hour), f.store.only(t, ChannelCall).DueAt)
	assert.NotNil(t, f.store.only(t, ChannelEmail).TaskID)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.FollowUpsScheduled.WithLabelValues("whatsapp")))
}

func TestScheduleFollowUpsSkipsStepsWithoutRecipient(t *testing.T) {
	f := newFixture()
	lead := completedLead()
	lead.ClientPhone = nil
	lead.ClaimedBy = nil

	count, err := f.svc.ScheduleFollowUps(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "email", f.queue.payloads[0].Channel)
}

func TestScheduleFollowUpsReportsEnqueueFailure(t *testing.T) {
	f := newFixture()
	f.queue.failFor = "whatsapp"

	count, err := f.svc.ScheduleFollowUps(context.Background(), completedLead())
	require.Error(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, StateFailed, f.store.only(t, ChannelWhatsApp).State)
}

func TestScheduleFollowUpsWithoutQueue(t *testing.T) {
	svc := NewService(newMemStore(), leadstest.NewMemory(), nil, nil, nil, Cadence{}, nil, logger.Nop())
	_, err := svc.ScheduleFollowUps(context.Background(), completedLead())
	assert.Error(t, err)
}

func scheduleAndPayload(t *testing.T, f *fixture, channel Channel) scheduler.FollowUpPayload {
	t.Helper()
	_, err := f.svc.ScheduleFollowUps(context.Background(), completedLead())
	require.NoError(t, err)
	for _, p := range f.queue.payloads {
		if p.Channel == string(channel) {
			return p
		}
	}
	t.Fatalf("no payload for %s", channel)
	return scheduler.FollowUpPayload{}
}

func TestProcessFollowUpSendsEachChannel(t *testing.T) {
	f := newFixture(completedLead())
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessFollowUp(ctx, scheduleAndPayload(t, f, ChannelEmail)))
	assert.Equal(t, []string{"asha@example.com|Asha|PRIME"}, f.mail.followUps)
	assert.Equal(t, StateSent, f.store.only(t, ChannelEmail).State)

	require.NoError(t, f.svc.ProcessFollowUp(ctx, scheduleAndPayload(t, f, ChannelWhatsApp)))
	require.Len(t, f.wa.sent, 1)
	assert.Contains(t, f.wa.sent[0], "+16502530000|Hi Asha")

	require.NoError(t, f.svc.ProcessFollowUp(ctx, scheduleAndPayload(t, f, ChannelCall)))
	require.Len(t, f.mail.reminders, 1)
	assert.Equal(t, "Ravi", f.mail.reminders[0].BDAName)
	assert.Equal(t, "+16502530000", f.mail.reminders[0].ClientPhone)
}

func TestProcessFollowUpSkipsPaidLead(t *testing.T) {
	lead := completedLead()
	f := newFixture(lead)
	payload := scheduleAndPayload(t, f, ChannelEmail)

	lead.Status = domain.StatusPaid
	f.leads.Put(lead)

	require.NoError(t, f.svc.ProcessFollowUp(context.Background(), payload))
	assert.Empty(t, f.mail.followUps)
	row := f.store.only(t, ChannelEmail)
	assert.Equal(t, StateSkipped, row.State)
	assert.Equal(t, "lead already paid", *row.LastError)
}

func TestProcessFollowUpSkipsDeletedLead(t *testing.T) {
	f := newFixture()
	payload := scheduleAndPayload(t, f, ChannelEmail)

	require.NoError(t, f.svc.ProcessFollowUp(context.Background(), payload))
	assert.Equal(t, StateSkipped, f.store.only(t, ChannelEmail).State)
}

func TestProcessFollowUpIgnoresMissingOrFinishedRows(t *testing.T) {
	f := newFixture(completedLead())
	ctx := context.Background()

	assert.NoError(t, f.svc.ProcessFollowUp(ctx, scheduler.FollowUpPayload{FollowUpID: uuid.NewString(), BookingID: "bk-1"}))
	assert.Error(t, f.svc.ProcessFollowUp(ctx, scheduler.FollowUpPayload{FollowUpID: "nope", BookingID: "bk-1"}))

	payload := scheduleAndPayload(t, f, ChannelEmail)
	require.NoError(t, f.svc.ProcessFollowUp(ctx, payload))
	require.NoError(t, f.svc.ProcessFollowUp(ctx, payload))
	assert.Len(t, f.mail.followUps, 1)
}

func TestProcessFollowUpKeepsRowScheduledOnSendError(t *testing.T) {
	f := newFixture(completedLead())
	f.mail.err = errors.New("smtp timeout")
	payload := scheduleAndPayload(t, f, ChannelEmail)

	err := f.svc.ProcessFollowUp(context.Background(), payload)
	require.Error(t, err)
	row := f.store.only(t, ChannelEmail)
	assert.Equal(t, StateScheduled, row.State)
	assert.Equal(t, "smtp timeout", *row.LastError)
}

func TestSweepFailsOverdue(t *testing.T) {
	f := newFixture()
	now := time.Now()
	require.NoError(t, f.store.Create(context.Background(), FollowUp{ID: uuid.New(), BookingID: "b", Channel: ChannelEmail, DueAt: now.Add(-48 * time.Hour), State: StateScheduled}))
	require.NoError(t, f.store.Create(context.Background(), FollowUp{ID: uuid.New(), BookingID: "b", Channel: ChannelCall, DueAt: now.Add(-time.Hour), State: StateScheduled}))

	n, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, StateFailed, f.store.only(t, ChannelEmail).State)
	assert.Equal(t, StateScheduled, f.store.only(t, ChannelCall).State)
}

func TestForBookingRequiresLead(t *testing.T) {
	f := newFixture(completedLead())
	_, err := f.svc.ForBooking(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	scheduleAndPayload(t, f, ChannelEmail)
	items, err := f.svc.ForBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, ChannelEmail, items[0].Channel)
}
