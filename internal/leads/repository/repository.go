package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bda_portal_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("lead not found")
	ErrAlreadyClaimed = errors.New("lead already claimed")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `b.booking_id, b.client_name, b.client_email, b.client_phone,
	b.scheduled_event_start_time, b.booking_created_at, b.booking_status,
	b.plan_name, b.plan_price, b.plan_currency, b.plan_details,
	b.claimed_by_email, b.claimed_by_name, b.claimed_at,
	b.meeting_notes, b.anything_to_know, b.utm_source, b.updated_at`

// returningColumns is leadColumns without the table alias, for RETURNING clauses.
var returningColumns = strings.ReplaceAll(leadColumns, "b.", "")

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead         domain.Lead
		status       string
		planName     *string
		planPrice    *float64
		planCurrency *string
		planDetails  []byte
		claimedEmail *string
		claimedName  *string
		claimedAt    *time.Time
	)
	err := row.Scan(
		&lead.BookingID, &lead.ClientName, &lead.ClientEmail, &lead.ClientPhone,
		&lead.ScheduledEventStartTime, &lead.BookingCreatedAt, &status,
		&planName, &planPrice, &planCurrency, &planDetails,
		&claimedEmail, &claimedName, &claimedAt,
		&lead.MeetingNotes, &lead.AnythingToKnow, &lead.UTMSource, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.Status = domain.Status(status)
	if planName != nil && *planName != "" {
		plan := domain.PaymentPlan{Name: domain.PlanName(*planName), Currency: domain.CurrencyUSD}
		if planPrice != nil {
			plan.Price = *planPrice
		}
		if planCurrency != nil && *planCurrency != "" {
			plan.Currency = domain.Currency(*planCurrency)
		}
		lead.PaymentPlan = &plan
	}
	if len(planDetails) > 0 {
		var details domain.PlanDetails
		if err := json.Unmarshal(planDetails, &details); err == nil {
			lead.PlanDetails = &details
		}
	}
	if claimedEmail != nil && *claimedEmail != "" {
		claim := domain.ClaimedBy{Email: *claimedEmail}
		if claimedName != nil {
			claim.Name = *claimedName
		}
		if claimedAt != nil {
			claim.ClaimedAt = *claimedAt
		}
		lead.ClaimedBy = &claim
	}
	lead.UTMSource = domain.NormalizeUTMSource(lead.UTMSource)
	return lead, nil
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()
	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func (r *Repository) GetByID(ctx context.Context, bookingID string) (domain.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings b WHERE b.booking_id = $1`, leadColumns)
	lead, err := scanLead(r.pool.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// GetByEmail returns the most recent booking for a client email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (domain.Lead, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings b
		WHERE b.client_email = $1
		ORDER BY b.booking_created_at DESC
		LIMIT 1`, leadColumns)
	lead, err := scanLead(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// ListByIDs returns the leads for the given booking ids; unknown ids are ignored.
func (r *Repository) ListByIDs(ctx context.Context, bookingIDs []string) ([]domain.Lead, error) {
	if len(bookingIDs) == 0 {
		return []domain.Lead{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM bookings b WHERE b.booking_id = ANY($1) ORDER BY b.booking_created_at DESC`, leadColumns)
	rows, err := r.pool.Query(ctx, query, bookingIDs)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

// Upsert stores a lead arriving from the scheduling webhook. Existing rows keep
// their status, plan, claim and notes; only scheduling data is refreshed.
func (r *Repository) Upsert(ctx context.Context, lead domain.Lead) (domain.Lead, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO bookings (booking_id, client_name, client_email, client_phone,
			scheduled_event_start_time, booking_created_at, booking_status, utm_source, anything_to_know)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (booking_id) DO UPDATE SET
			client_name = EXCLUDED.client_name,
			client_phone = COALESCE(EXCLUDED.client_phone, bookings.client_phone),
			scheduled_event_start_time = EXCLUDED.scheduled_event_start_time,
			updated_at = now()
		RETURNING %s, (xmax = 0) AS inserted`, returningColumns)

	var inserted bool
	row := r.pool.QueryRow(ctx, query,
		lead.BookingID, lead.ClientName, domain.NormalizeEmail(lead.ClientEmail), lead.ClientPhone,
		lead.ScheduledEventStartTime, lead.BookingCreatedAt, string(lead.Status),
		domain.NormalizeUTMSource(lead.UTMSource), lead.AnythingToKnow,
	)
	stored, err := scanLead(insertedRow{row: row, inserted: &inserted})
	if err != nil {
		return domain.Lead{}, false, err
	}
	return stored, inserted, nil
}

// insertedRow appends the trailing "inserted" column to scanLead's destinations.
type insertedRow struct {
	row      pgx.Row
	inserted *bool
}

func (r insertedRow) Scan(dest ...any) error {
	return r.row.Scan(append(dest, r.inserted)...)
}

// DeleteByEmail removes every booking of a client. History and follow-ups
// cascade. Returns the number of bookings removed; zero is not an error.
func (r *Repository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE client_email = $1`, domain.NormalizeEmail(email))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
