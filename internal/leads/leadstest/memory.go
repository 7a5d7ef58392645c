// Package leadstest provides an in-memory lead store for service tests.
package leadstest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Memory implements repository.LeadsRepository over a map. It mirrors the
// SQL semantics the services rely on, including the conditional claim.
type Memory struct {
	mu      sync.Mutex
	leads   map[string]domain.Lead
	history []repository.StatusChange
	now     func() time.Time

	// FailUpdateStatus makes UpdateStatus return this error when set.
	FailUpdateStatus error
}

var _ repository.LeadsRepository = (*Memory)(nil)

func NewMemory(leads ...domain.Lead) *Memory {
	m := &Memory{leads: map[string]domain.Lead{}, now: time.Now}
	for _, lead := range leads {
		m.Put(lead)
	}
	return m
}

// Put stores a lead as-is.
func (m *Memory) Put(lead domain.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lead.Status == "" {
		lead.Status = domain.StatusScheduled
	}
	if lead.BookingCreatedAt.IsZero() {
		lead.BookingCreatedAt = m.now()
	}
	lead.ClientEmail = domain.NormalizeEmail(lead.ClientEmail)
	lead.UTMSource = domain.NormalizeUTMSource(lead.UTMSource)
	m.leads[lead.BookingID] = clone(lead)
}

// Get returns the stored lead without going through the interface.
func (m *Memory) Get(bookingID string) (domain.Lead, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[bookingID]
	return clone(lead), ok
}

func (m *Memory) GetByID(_ context.Context, bookingID string) (domain.Lead, error) {
	lead, ok := m.Get(bookingID)
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = domain.NormalizeEmail(email)
	var found *domain.Lead
	for _, lead := range m.leads {
		if lead.ClientEmail != email {
			continue
		}
		if found == nil || lead.BookingCreatedAt.After(found.BookingCreatedAt) {
			l := lead
			found = &l
		}
	}
	if found == nil {
		return domain.Lead{}, repository.ErrNotFound
	}
	return clone(*found), nil
}

func (m *Memory) ListByIDs(_ context.Context, bookingIDs []string) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Lead, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		if lead, ok := m.leads[id]; ok {
			out = append(out, clone(lead))
		}
	}
	return out, nil
}

func (m *Memory) List(_ context.Context, params repository.ListParams) ([]domain.Lead, int, error) {
	matched := m.filter(params)
	asc := params.SortOrder == "asc"
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := sortKey(matched[i], params.DateField), sortKey(matched[j], params.DateField)
		if asc {
			return a.Before(b)
		}
		return a.After(b)
	})
	total := len(matched)
	start := min(params.Offset, total)
	end := total
	if params.Limit > 0 {
		end = min(start+params.Limit, total)
	}
	return matched[start:end], total, nil
}

func (m *Memory) Stats(_ context.Context, params repository.ListParams) (repository.Stats, error) {
	stats := repository.Stats{StatusCounts: map[domain.Status]int{}}
	type key struct {
		plan     domain.PlanName
		currency domain.Currency
	}
	buckets := map[key]*repository.PlanBucket{}
	var order []key
	for _, lead := range m.filter(params) {
		stats.StatusCounts[lead.Status]++
		if lead.Status != domain.StatusPaid || lead.PaymentPlan == nil {
			continue
		}
		k := key{lead.PaymentPlan.Name, lead.PaymentPlan.Currency}
		if k.currency == "" {
			k.currency = domain.CurrencyUSD
		}
		b, ok := buckets[k]
		if !ok {
			b = &repository.PlanBucket{Plan: k.plan, Currency: k.currency}
			buckets[k] = b
			order = append(order, k)
		}
		b.Count++
		b.Revenue += lead.PaymentPlan.Price
	}
	for _, k := range order {
		stats.PaidBuckets = append(stats.PaidBuckets, *buckets[k])
	}
	return stats, nil
}

func (m *Memory) PaidPlans(_ context.Context, params repository.ListParams) ([]domain.PaymentPlan, error) {
	plans := make([]domain.PaymentPlan, 0)
	for _, lead := range m.filter(params) {
		if lead.Status == domain.StatusPaid && lead.PaymentPlan != nil {
			plans = append(plans, *lead.PaymentPlan)
		}
	}
	return plans, nil
}

func (m *Memory) Claim(_ context.Context, bookingID string, claim domain.ClaimedBy, plan *domain.PaymentPlan) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[bookingID]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	if lead.IsClaimed() {
		return clone(lead), repository.ErrAlreadyClaimed
	}
	claim.Email = domain.NormalizeEmail(claim.Email)
	claim.ClaimedAt = m.now()
	lead.ClaimedBy = &claim
	if plan != nil {
		p := *plan
		lead.PaymentPlan = &p
	}
	lead.UpdatedAt = m.now()
	m.leads[bookingID] = lead
	return clone(lead), nil
}

func (m *Memory) Unclaim(_ context.Context, bookingID string) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[bookingID]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	lead.ClaimedBy = nil
	lead.UpdatedAt = m.now()
	m.leads[bookingID] = lead
	return clone(lead), nil
}

func (m *Memory) UpdateClaimFields(_ context.Context, bookingID string, params repository.UpdateClaimParams) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[bookingID]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	applyEdits(&lead, params)
	lead.UpdatedAt = m.now()
	m.leads[bookingID] = lead
	return clone(lead), nil
}

func applyEdits(lead *domain.Lead, params repository.UpdateClaimParams) {
	if params.MeetingNotes != nil {
		lead.MeetingNotes = *params.MeetingNotes
	}
	if params.AnythingToKnow != nil {
		lead.AnythingToKnow = *params.AnythingToKnow
	}
	if params.ClientPhoneSet {
		lead.ClientPhone = params.ClientPhone
	}
	if params.Plan != nil {
		p := *params.Plan
		lead.PaymentPlan = &p
	}
}

func (m *Memory) UpdateStatus(_ context.Context, params repository.UpdateStatusParams) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdateStatus != nil {
		return domain.Lead{}, m.FailUpdateStatus
	}
	lead, ok := m.leads[params.BookingID]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	applyEdits(&lead, params.Edits)
	lead.Status = params.To
	if params.Plan != nil {
		p := *params.Plan
		lead.PaymentPlan = &p
	}
	if params.Details != nil {
		d := *params.Details
		lead.PlanDetails = &d
	}
	lead.UpdatedAt = m.now()
	m.leads[params.BookingID] = lead
	m.history = append(m.history, repository.StatusChange{
		ID:             uuid.New(),
		BookingID:      params.BookingID,
		From:           params.From,
		To:             params.To,
		ChangedByEmail: params.ActorEmail,
		ChangedAt:      m.now(),
	})
	return clone(lead), nil
}

func (m *Memory) ListStatusHistory(_ context.Context, bookingID string) ([]repository.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.StatusChange, 0)
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].BookingID == bookingID {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}

func (m *Memory) Upsert(_ context.Context, lead domain.Lead) (domain.Lead, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.leads[lead.BookingID]
	if ok {
		existing.ClientName = lead.ClientName
		if lead.ClientPhone != nil {
			existing.ClientPhone = lead.ClientPhone
		}
		existing.ScheduledEventStartTime = lead.ScheduledEventStartTime
		existing.UpdatedAt = m.now()
		m.leads[lead.BookingID] = existing
		return clone(existing), false, nil
	}
	lead.ClientEmail = domain.NormalizeEmail(lead.ClientEmail)
	lead.UTMSource = domain.NormalizeUTMSource(lead.UTMSource)
	if lead.Status == "" {
		lead.Status = domain.StatusScheduled
	}
	lead.UpdatedAt = m.now()
	m.leads[lead.BookingID] = clone(lead)
	return clone(lead), true, nil
}

func (m *Memory) DeleteByEmail(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = domain.NormalizeEmail(email)
	var deleted int64
	for id, lead := range m.leads {
		if lead.ClientEmail == email {
			delete(m.leads, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *Memory) filter(params repository.ListParams) []domain.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		if matches(lead, params) {
			out = append(out, clone(lead))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	return out
}

func matches(lead domain.Lead, p repository.ListParams) bool {
	if search := strings.ToLower(strings.TrimSpace(p.Search)); search != "" {
		phone := ""
		if lead.ClientPhone != nil {
			phone = *lead.ClientPhone
		}
		if !strings.Contains(strings.ToLower(lead.ClientName), search) &&
			!strings.Contains(lead.ClientEmail, search) &&
			!strings.Contains(phone, search) {
			return false
		}
	}
	if p.Status != nil && lead.Status != *p.Status {
		return false
	}
	if p.Plan != nil && (lead.PaymentPlan == nil || lead.PaymentPlan.Name != *p.Plan) {
		return false
	}
	when := dateValue(lead, p.DateField)
	if p.From != nil && (when == nil || when.Before(*p.From)) {
		return false
	}
	if p.ToBefore != nil && (when == nil || !when.Before(*p.ToBefore)) {
		return false
	}
	if p.UTMSource != nil && lead.UTMSource != *p.UTMSource {
		return false
	}
	if p.MinAmount != nil && (lead.PaymentPlan == nil || lead.PaymentPlan.Price < *p.MinAmount) {
		return false
	}
	if p.MaxAmount != nil && (lead.PaymentPlan == nil || lead.PaymentPlan.Price > *p.MaxAmount) {
		return false
	}
	if p.ClaimedByEmail != nil && !lead.ClaimedByEmail(*p.ClaimedByEmail) {
		return false
	}
	if p.Claimed != nil && lead.IsClaimed() != *p.Claimed {
		return false
	}
	return true
}

func dateValue(lead domain.Lead, field repository.DateField) *time.Time {
	if field == repository.DateFieldScheduled {
		return lead.ScheduledEventStartTime
	}
	t := lead.BookingCreatedAt
	return &t
}

func sortKey(lead domain.Lead, field repository.DateField) time.Time {
	if t := dateValue(lead, field); t != nil {
		return *t
	}
	return time.Time{}
}

func clone(lead domain.Lead) domain.Lead {
	if lead.PaymentPlan != nil {
		p := *lead.PaymentPlan
		lead.PaymentPlan = &p
	}
	if lead.PlanDetails != nil {
		d := *lead.PlanDetails
		lead.PlanDetails = &d
	}
	if lead.ClaimedBy != nil {
		c := *lead.ClaimedBy
		lead.ClaimedBy = &c
	}
	if lead.ClientPhone != nil {
		p := *lead.ClientPhone
		lead.ClientPhone = &p
	}
	return lead
}
