package transport

import (
	"math"
	"strings"
	"time"

	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/repository"
	"bda_portal_backend/platform/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	filterAll = "all"
	dateOnly  = "2006-01-02"
)

// ToListParams turns query parameters into repository filters. dateField
// picks the column the date range applies to for this view.
func ToListParams(req ListLeadsRequest, dateField repository.DateField) (repository.ListParams, Pagination, error) {
	page := req.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := req.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	params := repository.ListParams{
		Search:    strings.TrimSpace(req.Search),
		DateField: dateField,
		MinAmount: req.MinAmount,
		MaxAmount: req.MaxAmount,
		Claimed:   req.Claimed,
		SortOrder: req.SortOrder,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	}

	if raw := strings.TrimSpace(req.Status); raw != "" && !strings.EqualFold(raw, filterAll) {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return repository.ListParams{}, Pagination{}, apperr.Validation("invalid status filter").WithDetails(map[string]any{"status": raw})
		}
		params.Status = &status
	}
	if raw := strings.TrimSpace(req.Plan); raw != "" && !strings.EqualFold(raw, filterAll) {
		plan, err := domain.ParsePlanName(raw)
		if err != nil {
			return repository.ListParams{}, Pagination{}, apperr.Validation("invalid plan filter").WithDetails(map[string]any{"plan": raw})
		}
		params.Plan = &plan
	}
	if raw := strings.TrimSpace(req.UTMSource); raw != "" && !strings.EqualFold(raw, filterAll) {
		params.UTMSource = &raw
	}
	if raw := strings.TrimSpace(req.ClaimedBy); raw != "" {
		email := domain.NormalizeEmail(raw)
		params.ClaimedByEmail = &email
	}

	if req.MinAmount != nil && req.MaxAmount != nil && *req.MinAmount > *req.MaxAmount {
		return repository.ListParams{}, Pagination{}, apperr.Validation("minAmount must not exceed maxAmount")
	}

	from, toBefore, err := ParseDateRange(req.FromDate, req.ToDate)
	if err != nil {
		return repository.ListParams{}, Pagination{}, err
	}
	params.From, params.ToBefore = from, toBefore

	return params, Pagination{Page: page, Limit: limit}, nil
}

// ParseDateRange reads an inclusive fromDate/toDate pair into a half-open
// range [from, toBefore). Either bound may be empty.
func ParseDateRange(fromDate, toDate string) (from, toBefore *time.Time, err error) {
	from, err = parseDate(fromDate, false)
	if err != nil {
		return nil, nil, apperr.Validation("invalid fromDate").WithDetails(map[string]any{"fromDate": fromDate})
	}
	toBefore, err = parseDate(toDate, true)
	if err != nil {
		return nil, nil, apperr.Validation("invalid toDate").WithDetails(map[string]any{"toDate": toDate})
	}
	if from != nil && toBefore != nil && !from.Before(*toBefore) {
		return nil, nil, apperr.Validation("fromDate must not be after toDate")
	}
	return from, toBefore, nil
}

// parseDate reads a date filter. An end date covers its whole day, so a
// date-only end becomes the next midnight and is compared exclusively.
func parseDate(raw string, end bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		if end {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	if end {
		t = t.Add(time.Nanosecond)
	}
	return &t, nil
}

// WithTotal fills the page count.
func (p Pagination) WithTotal(total int) Pagination {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return p
}
