// Package analytics aggregates claimed leads per BDA for the admin analysis
// view and exports the result as a workbook.
package analytics

import (
	"math"
	"sort"
	"time"

	"bda_portal_backend/internal/incentives"
	"bda_portal_backend/internal/leads/domain"
)

// UnclaimedKey groups leads without an owner in StatusCountRow.
const UnclaimedKey = ""

// Range filters on booking_created_at. ToBefore is exclusive.
type Range struct {
	From     *time.Time
	ToBefore *time.Time
}

// IsZero reports whether the range is unbounded, which is the cacheable base view.
func (r Range) IsZero() bool {
	return r.From == nil && r.ToBefore == nil
}

// StatusCountRow is a lead count per owner and status.
type StatusCountRow struct {
	Email  string
	Name   string
	Status domain.Status
	Count  int
}

// PaidRow is one paid lead's plan and owner.
type PaidRow struct {
	Email string
	Plan  domain.PaymentPlan
}

// BDAStats is one row of the analysis table.
type BDAStats struct {
	Email             string             `json:"email"`
	Name              string             `json:"name"`
	Claimed           int                `json:"claimed"`
	StatusCounts      map[string]int     `json:"statusCounts"`
	PaidCount         int                `json:"paidCount"`
	RevenueByCurrency map[string]float64 `json:"revenueByCurrency"`
	RevenueDisplay    string             `json:"revenueDisplay"`
	IncentiveINR      float64            `json:"incentiveInr"`
	IncentiveDisplay  string             `json:"incentiveDisplay"`
	ExcludedNonUSD    int                `json:"excludedNonUsd"`
	ConversionRate    float64            `json:"conversionRate"`
}

// Totals sums the whole lead set, claimed or not.
type Totals struct {
	Leads             int                `json:"leads"`
	Claimed           int                `json:"claimed"`
	Unclaimed         int                `json:"unclaimed"`
	StatusCounts      map[string]int     `json:"statusCounts"`
	PaidCount         int                `json:"paidCount"`
	RevenueByCurrency map[string]float64 `json:"revenueByCurrency"`
	RevenueDisplay    string             `json:"revenueDisplay"`
	IncentiveINR      float64            `json:"incentiveInr"`
	IncentiveDisplay  string             `json:"incentiveDisplay"`
	ConversionRate    float64            `json:"conversionRate"`
}

// Report is the /bda-analysis payload.
type Report struct {
	GeneratedAt time.Time  `json:"generatedAt"`
	From        *time.Time `json:"fromDate,omitempty"`
	ToBefore    *time.Time `json:"toBefore,omitempty"`
	Cached      bool       `json:"cached"`
	BDAs        []BDAStats `json:"bdas"`
	Totals      Totals     `json:"totals"`
}

// buildReport folds raw rows into per-BDA stats. BDAs are ordered by paid
// count, then claimed count, then email.
func buildReport(counts []StatusCountRow, paid []PaidRow, configs map[domain.PlanName]domain.PlanConfig) Report {
	byEmail := map[string]*BDAStats{}
	get := func(email, name string) *BDAStats {
		s, ok := byEmail[email]
		if !ok {
			s = &BDAStats{
				Email:             email,
				Name:              name,
				StatusCounts:      map[string]int{},
				RevenueByCurrency: map[string]float64{},
			}
			byEmail[email] = s
		}
		if s.Name == "" {
			s.Name = name
		}
		return s
	}

	totals := Totals{StatusCounts: map[string]int{}, RevenueByCurrency: map[string]float64{}}
	for _, row := range counts {
		totals.Leads += row.Count
		totals.StatusCounts[string(row.Status)] += row.Count
		if row.Email == UnclaimedKey {
			totals.Unclaimed += row.Count
			continue
		}
		totals.Claimed += row.Count
		s := get(row.Email, row.Name)
		s.Claimed += row.Count
		s.StatusCounts[string(row.Status)] += row.Count
	}

	plansByEmail := map[string][]domain.PaymentPlan{}
	for _, row := range paid {
		currency := string(row.Plan.Currency)
		totals.PaidCount++
		totals.RevenueByCurrency[currency] += row.Plan.Price
		if row.Email == UnclaimedKey {
			continue
		}
		s := get(row.Email, "")
		s.PaidCount++
		s.RevenueByCurrency[currency] += row.Plan.Price
		plansByEmail[row.Email] = append(plansByEmail[row.Email], row.Plan)
	}

	bdas := make([]BDAStats, 0, len(byEmail))
	for email, s := range byEmail {
		sum := incentives.Summarize(plansByEmail[email], configs)
		s.IncentiveINR = round2(sum.TotalINR)
		s.ExcludedNonUSD = sum.ExcludedNonUSD
		s.IncentiveDisplay = domain.FormatINR(s.IncentiveINR)
		s.RevenueDisplay = domain.DisplayAmount(s.RevenueByCurrency[string(domain.CurrencyUSD)], domain.CurrencyUSD)
		s.ConversionRate = rate(s.PaidCount, s.Claimed)
		totals.IncentiveINR += s.IncentiveINR
		bdas = append(bdas, *s)
	}
	sort.Slice(bdas, func(i, j int) bool {
		if bdas[i].PaidCount != bdas[j].PaidCount {
			return bdas[i].PaidCount > bdas[j].PaidCount
		}
		if bdas[i].Claimed != bdas[j].Claimed {
			return bdas[i].Claimed > bdas[j].Claimed
		}
		return bdas[i].Email < bdas[j].Email
	})

	totals.IncentiveINR = round2(totals.IncentiveINR)
	totals.IncentiveDisplay = domain.FormatINR(totals.IncentiveINR)
	totals.RevenueDisplay = domain.DisplayAmount(totals.RevenueByCurrency[string(domain.CurrencyUSD)], domain.CurrencyUSD)
	totals.ConversionRate = rate(totals.PaidCount, totals.Leads)

	return Report{BDAs: bdas, Totals: totals}
}

// rate is a percentage with one decimal; 0 when there is nothing to divide by.
func rate(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
