package crmclient

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryState is the full filter and pagination state of a list view. It is a
// value: every With* returns a copy, and every filter change resets Page to 1.
type QueryState struct {
	Search    string
	Status    string
	Plan      string
	FromDate  string
	ToDate    string
	UTMSource string
	MinAmount *float64
	MaxAmount *float64
	Page      int
	Limit     int
}

func (q QueryState) WithSearch(search string) QueryState {
	q.Search = search
	q.Page = 1
	return q
}

// WithStatus filters on one status. "all" clears the filter.
func (q QueryState) WithStatus(status string) QueryState {
	q.Status = status
	q.Page = 1
	return q
}

func (q QueryState) WithPlan(plan string) QueryState {
	q.Plan = plan
	q.Page = 1
	return q
}

func (q QueryState) WithDateRange(from, to string) QueryState {
	q.FromDate, q.ToDate = from, to
	q.Page = 1
	return q
}

func (q QueryState) WithUTMSource(source string) QueryState {
	q.UTMSource = source
	q.Page = 1
	return q
}

func (q QueryState) WithAmountRange(min, max *float64) QueryState {
	q.MinAmount, q.MaxAmount = min, max
	q.Page = 1
	return q
}

func (q QueryState) WithPage(page int) QueryState {
	if page < 1 {
		page = 1
	}
	q.Page = page
	return q
}

func (q QueryState) WithLimit(limit int) QueryState {
	q.Limit = limit
	q.Page = 1
	return q
}

// Values encodes the non-empty parts of q.
func (q QueryState) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			v.Set(key, value)
		}
	}
	set("search", q.Search)
	if !strings.EqualFold(strings.TrimSpace(q.Status), "all") {
		set("status", q.Status)
	}
	if !strings.EqualFold(strings.TrimSpace(q.Plan), "all") {
		set("plan", q.Plan)
	}
	set("fromDate", q.FromDate)
	set("toDate", q.ToDate)
	set("utmSource", q.UTMSource)
	if q.MinAmount != nil {
		v.Set("minAmount", strconv.FormatFloat(*q.MinAmount, 'f', -1, 64))
	}
	if q.MaxAmount != nil {
		v.Set("maxAmount", strconv.FormatFloat(*q.MaxAmount, 'f', -1, 64))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ToQueryString renders q as a sorted query string without the leading "?".
func ToQueryString(q QueryState) string {
	return q.Values().Encode()
}
