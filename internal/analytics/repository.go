package analytics

import (
	"context"
	"fmt"
	"strings"

	"bda_portal_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func rangeWhere(r Range, extra ...string) (string, []any) {
	clauses := append([]string{"TRUE"}, extra...)
	args := []any{}
	if r.From != nil {
		args = append(args, *r.From)
		clauses = append(clauses, fmt.Sprintf("booking_created_at >= $%d", len(args)))
	}
	if r.ToBefore != nil {
		args = append(args, *r.ToBefore)
		clauses = append(clauses, fmt.Sprintf("booking_created_at < $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// StatusCounts groups leads by owner and status. Unclaimed leads carry an empty email.
func (r *Repository) StatusCounts(ctx context.Context, rng Range) ([]StatusCountRow, error) {
	where, args := rangeWhere(rng)
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(claimed_by_email, ''), COALESCE(MAX(claimed_by_name), ''), booking_status, COUNT(*)
		FROM bookings
		WHERE `+where+`
		GROUP BY COALESCE(claimed_by_email, ''), booking_status`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StatusCountRow, 0)
	for rows.Next() {
		var row StatusCountRow
		var status string
		if err := rows.Scan(&row.Email, &row.Name, &status, &row.Count); err != nil {
			return nil, err
		}
		row.Status = domain.Status(status)
		out = append(out, row)
	}
	return out, rows.Err()
}

// PaidPlans returns the plan of every paid lead in range.
func (r *Repository) PaidPlans(ctx context.Context, rng Range) ([]PaidRow, error) {
	where, args := rangeWhere(rng, "booking_status = 'paid'", "plan_name IS NOT NULL")
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(claimed_by_email, ''), plan_name, COALESCE(plan_price, 0)::float8, COALESCE(plan_currency, 'USD')
		FROM bookings
		WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PaidRow, 0)
	for rows.Next() {
		var row PaidRow
		var name, currency string
		if err := rows.Scan(&row.Email, &name, &row.Plan.Price, &currency); err != nil {
			return nil, err
		}
		row.Plan.Name, row.Plan.Currency = domain.PlanName(name), domain.Currency(currency)
		out = append(out, row)
	}
	return out, rows.Err()
}
