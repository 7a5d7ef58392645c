package transport

import (
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/repository"
)

func ToLeadResponse(lead domain.Lead) LeadResponse {
	resp := LeadResponse{
		BookingID:               lead.BookingID,
		ClientName:              lead.ClientName,
		ClientEmail:             lead.ClientEmail,
		ClientPhone:             lead.ClientPhone,
		ScheduledEventStartTime: lead.ScheduledEventStartTime,
		BookingCreatedAt:        lead.BookingCreatedAt,
		BookingStatus:           lead.Status,
		PlanDetails:             lead.PlanDetails,
		ClaimedBy:               lead.ClaimedBy,
		MeetingNotes:            lead.MeetingNotes,
		AnythingToKnow:          lead.AnythingToKnow,
		UTMSource:               domain.NormalizeUTMSource(lead.UTMSource),
		UpdatedAt:               lead.UpdatedAt,
	}
	if lead.PaymentPlan != nil {
		resp.PaymentPlan = &PaymentPlanResponse{
			Name:         lead.PaymentPlan.Name,
			Price:        lead.PaymentPlan.Price,
			Currency:     lead.PaymentPlan.Currency,
			DisplayPrice: lead.PaymentPlan.DisplayPrice(),
		}
	}
	return resp
}

func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	items := make([]LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = ToLeadResponse(lead)
	}
	return items
}

// ToStatsResponse folds the per plan and currency buckets into the dashboard totals.
func ToStatsResponse(stats repository.Stats) StatsResponse {
	resp := StatsResponse{
		RevenueByCurrency: map[domain.Currency]float64{},
		PlanBreakdown:     map[domain.PlanName]*PlanBreakdownItem{},
		StatusCounts:      map[domain.Status]int{},
	}
	for status, count := range stats.StatusCounts {
		resp.StatusCounts[status] = count
	}
	for _, bucket := range stats.PaidBuckets {
		resp.PaidCount += bucket.Count
		resp.RevenueByCurrency[bucket.Currency] += bucket.Revenue
		if bucket.Currency == domain.CurrencyUSD {
			resp.TotalRevenue += bucket.Revenue
		}
		if bucket.Plan == "" {
			continue
		}
		item, ok := resp.PlanBreakdown[bucket.Plan]
		if !ok {
			item = &PlanBreakdownItem{RevenueByCurrency: map[domain.Currency]float64{}}
			resp.PlanBreakdown[bucket.Plan] = item
		}
		item.Count += bucket.Count
		item.RevenueByCurrency[bucket.Currency] += bucket.Revenue
		if bucket.Currency == domain.CurrencyUSD {
			item.Revenue += bucket.Revenue
		}
	}
	resp.TotalRevenueLabel = domain.DisplayAmount(resp.TotalRevenue, domain.CurrencyUSD)
	return resp
}
