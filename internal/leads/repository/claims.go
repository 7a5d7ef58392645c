package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bda_portal_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

// UpdateClaimParams holds the fields a claiming BDA may edit. Nil means
// unchanged; ClientPhoneSet with a nil ClientPhone clears the phone.
type UpdateClaimParams struct {
	MeetingNotes   *string
	AnythingToKnow *string
	ClientPhone    *string
	ClientPhoneSet bool
	Plan           *domain.PaymentPlan
}

type setField struct {
	enabled bool
	column  string
	value   any
}

// Claim sets claimedBy only when the lead is unclaimed. The conditional
// UPDATE is what makes concurrent claims safe; the loser gets
// ErrAlreadyClaimed together with the current lead.
func (r *Repository) Claim(ctx context.Context, bookingID string, claim domain.ClaimedBy, plan *domain.PaymentPlan) (domain.Lead, error) {
	var planName, planCurrency *string
	var planPrice *float64
	if plan != nil {
		name, currency, price := string(plan.Name), string(plan.Currency), plan.Price
		planName, planCurrency, planPrice = &name, &currency, &price
	}

	query := fmt.Sprintf(`
		UPDATE bookings SET
			claimed_by_email = $2,
			claimed_by_name = $3,
			claimed_at = now(),
			plan_name = COALESCE($4, plan_name),
			plan_price = COALESCE($5, plan_price),
			plan_currency = COALESCE($6, plan_currency),
			updated_at = now()
		WHERE booking_id = $1 AND claimed_by_email IS NULL
		RETURNING %s`, returningColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		bookingID, domain.NormalizeEmail(claim.Email), claim.Name, planName, planPrice, planCurrency))
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, err
	}

	current, getErr := r.GetByID(ctx, bookingID)
	if getErr != nil {
		return domain.Lead{}, getErr
	}
	return current, ErrAlreadyClaimed
}

// Unclaim clears ownership. It is idempotent.
func (r *Repository) Unclaim(ctx context.Context, bookingID string) (domain.Lead, error) {
	query := fmt.Sprintf(`
		UPDATE bookings SET claimed_by_email = NULL, claimed_by_name = NULL, claimed_at = NULL, updated_at = now()
		WHERE booking_id = $1
		RETURNING %s`, returningColumns)
	lead, err := scanLead(r.pool.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// UpdateClaimFields applies a partial update. Last write wins.
func (r *Repository) UpdateClaimFields(ctx context.Context, bookingID string, params UpdateClaimParams) (domain.Lead, error) {
	setClauses, args := params.setClauses(1)
	if len(setClauses) == 0 {
		return r.GetByID(ctx, bookingID)
	}

	args = append(args, bookingID)
	query := fmt.Sprintf(`UPDATE bookings SET %s WHERE booking_id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), returningColumns)
	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// setClauses renders the enabled columns as "col = $n" starting at argIdx,
// followed by updated_at when anything changed.
func (p UpdateClaimParams) setClauses(argIdx int) ([]string, []any) {
	fields := []setField{
		{p.MeetingNotes != nil, "meeting_notes", nullableString(p.MeetingNotes)},
		{p.AnythingToKnow != nil, "anything_to_know", nullableString(p.AnythingToKnow)},
		{p.ClientPhoneSet, "client_phone", nullableString(p.ClientPhone)},
	}
	if p.Plan != nil {
		fields = append(fields,
			setField{true, "plan_name", string(p.Plan.Name)},
			setField{true, "plan_price", p.Plan.Price},
			setField{true, "plan_currency", string(p.Plan.Currency)},
		)
	}

	var setClauses []string
	var args []any
	for _, field := range fields {
		if !field.enabled {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field.column, argIdx))
		args = append(args, field.value)
		argIdx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
	}
	return setClauses, args
}
