package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bda_portal_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpdateStatusParams describes one transition. Plan and Details are written
// only when set. Edits are claim field changes committed with the transition.
type UpdateStatusParams struct {
	BookingID  string
	From       domain.Status
	To         domain.Status
	Plan       *domain.PaymentPlan
	Details    *domain.PlanDetails
	ActorEmail string
	Edits      UpdateClaimParams
}

// StatusChange is one row of the status audit trail.
type StatusChange struct {
	ID             uuid.UUID     `json:"id"`
	BookingID      string        `json:"bookingId"`
	From           domain.Status `json:"from"`
	To             domain.Status `json:"to"`
	ChangedByEmail string        `json:"changedBy"`
	ChangedAt      time.Time     `json:"changedAt"`
}

// UpdateStatus writes the claim edits, the new status and its history row in
// one transaction.
func (r *Repository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (domain.Lead, error) {
	var planName, planCurrency *string
	var planPrice *float64
	if params.Plan != nil {
		name, currency, price := string(params.Plan.Name), string(params.Plan.Currency), params.Plan.Price
		planName, planCurrency, planPrice = &name, &currency, &price
	}
	var detailsJSON []byte
	if params.Details != nil {
		raw, err := json.Marshal(params.Details)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("encode plan details: %w", err)
		}
		detailsJSON = raw
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if clauses, args := params.Edits.setClauses(1); len(clauses) > 0 {
		args = append(args, params.BookingID)
		editQuery := fmt.Sprintf(`UPDATE bookings SET %s WHERE booking_id = $%d`,
			strings.Join(clauses, ", "), len(args))
		if _, err := tx.Exec(ctx, editQuery, args...); err != nil {
			return domain.Lead{}, fmt.Errorf("apply claim edits: %w", err)
		}
	}

	query := fmt.Sprintf(`
		UPDATE bookings SET
			booking_status = $2,
			plan_name = COALESCE($3, plan_name),
			plan_price = COALESCE($4, plan_price),
			plan_currency = COALESCE($5, plan_currency),
			plan_details = COALESCE($6::jsonb, plan_details),
			updated_at = now()
		WHERE booking_id = $1
		RETURNING %s`, returningColumns)

	lead, err := scanLead(tx.QueryRow(ctx, query,
		params.BookingID, string(params.To), planName, planPrice, planCurrency, detailsJSON))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO booking_status_history (id, booking_id, from_status, to_status, changed_by_email)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), params.BookingID, string(params.From), string(params.To), params.ActorEmail,
	); err != nil {
		return domain.Lead{}, fmt.Errorf("record status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func (r *Repository) ListStatusHistory(ctx context.Context, bookingID string) ([]StatusChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, from_status, to_status, changed_by_email, changed_at
		FROM booking_status_history
		WHERE booking_id = $1
		ORDER BY changed_at DESC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StatusChange, 0)
	for rows.Next() {
		var item StatusChange
		var from, to string
		if err := rows.Scan(&item.ID, &item.BookingID, &from, &to, &item.ChangedByEmail, &item.ChangedAt); err != nil {
			return nil, err
		}
		item.From, item.To = domain.Status(from), domain.Status(to)
		items = append(items, item)
	}
	return items, rows.Err()
}
