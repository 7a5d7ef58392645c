package repository

import (
	"context"
	"fmt"

	"bda_portal_backend/internal/leads/domain"
)

// PlanBucket is the paid volume of one plan in one currency.
type PlanBucket struct {
	Plan     domain.PlanName
	Currency domain.Currency
	Count    int
	Revenue  float64
}

// Stats are aggregates over the same filter a list page uses.
type Stats struct {
	PaidBuckets  []PlanBucket
	StatusCounts map[domain.Status]int
}

func (r *Repository) Stats(ctx context.Context, params ListParams) (Stats, error) {
	whereClause, args, _ := buildLeadListWhere(params)
	stats := Stats{StatusCounts: map[domain.Status]int{}}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT COALESCE(b.plan_name, ''), COALESCE(NULLIF(b.plan_currency, ''), 'USD'),
			COUNT(*), COALESCE(SUM(b.plan_price), 0)::float8
		FROM bookings b
		WHERE %s AND b.booking_status = 'paid'
		GROUP BY 1, 2
		ORDER BY 1, 2`, whereClause), args...)
	if err != nil {
		return Stats{}, err
	}
	for rows.Next() {
		var bucket PlanBucket
		var plan, currency string
		if err := rows.Scan(&plan, &currency, &bucket.Count, &bucket.Revenue); err != nil {
			rows.Close()
			return Stats{}, err
		}
		bucket.Plan, bucket.Currency = domain.PlanName(plan), domain.Currency(currency)
		stats.PaidBuckets = append(stats.PaidBuckets, bucket)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	statusRows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT b.booking_status, COUNT(*) FROM bookings b WHERE %s GROUP BY 1`, whereClause), args...)
	if err != nil {
		return Stats{}, err
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var count int
		if err := statusRows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.StatusCounts[domain.Status(status)] = count
	}
	return stats, statusRows.Err()
}

// PaidPlans returns the payment plans of paid leads matching params.
func (r *Repository) PaidPlans(ctx context.Context, params ListParams) ([]domain.PaymentPlan, error) {
	whereClause, args, _ := buildLeadListWhere(params)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT b.plan_name, b.plan_price::float8, COALESCE(NULLIF(b.plan_currency, ''), 'USD')
		FROM bookings b
		WHERE %s AND b.booking_status = 'paid' AND b.plan_name IS NOT NULL`, whereClause), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]domain.PaymentPlan, 0)
	for rows.Next() {
		var name, currency string
		var price float64
		if err := rows.Scan(&name, &price, &currency); err != nil {
			return nil, err
		}
		plans = append(plans, domain.PaymentPlan{Name: domain.PlanName(name), Price: price, Currency: domain.Currency(currency)})
	}
	return plans, rows.Err()
}
