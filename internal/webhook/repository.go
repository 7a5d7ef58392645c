package webhook

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository records processed deliveries so provider retries are ignored.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Claim stores the delivery and reports whether it is new.
func (r *Repository) Claim(ctx context.Context, deliveryID, event, bookingID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_deliveries (delivery_id, event, booking_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (delivery_id) DO NOTHING`, deliveryID, event, bookingID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release forgets a delivery whose processing failed, so a retry is accepted.
func (r *Repository) Release(ctx context.Context, deliveryID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM webhook_deliveries WHERE delivery_id = $1`, deliveryID)
	return err
}

// SetOutcome stores how the delivery was handled.
func (r *Repository) SetOutcome(ctx context.Context, deliveryID, outcome string) error {
	_, err := r.pool.Exec(ctx, `UPDATE webhook_deliveries SET outcome = $2 WHERE delivery_id = $1`, deliveryID, outcome)
	return err
}
