package incentives

import (
	"context"
	"time"

	"bda_portal_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence the service needs.
type Store interface {
	List(ctx context.Context) ([]StoredConfig, error)
	Upsert(ctx context.Context, configs []domain.PlanConfig, actor string) error
	SeedIfEmpty(ctx context.Context, configs []domain.PlanConfig) (bool, error)
}

// StoredConfig is a plan config row with audit columns.
type StoredConfig struct {
	domain.PlanConfig
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context) ([]StoredConfig, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT plan_name, base_price_usd::float8, currency, incentive_per_lead_inr::float8, updated_by, updated_at
		FROM bda_incentive_config
		ORDER BY base_price_usd ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StoredConfig, 0)
	for rows.Next() {
		var item StoredConfig
		var name, currency string
		if err := rows.Scan(&name, &item.BasePriceUSD, &currency, &item.IncentivePerLeadINR, &item.UpdatedBy, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.PlanName, item.Currency = domain.PlanName(name), domain.Currency(currency)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Upsert writes the given plans in one transaction. Plans not listed keep their values.
func (r *Repository) Upsert(ctx context.Context, configs []domain.PlanConfig, actor string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, cfg := range configs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO bda_incentive_config (plan_name, base_price_usd, currency, incentive_per_lead_inr, updated_by, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (plan_name) DO UPDATE SET
				base_price_usd = EXCLUDED.base_price_usd,
				currency = EXCLUDED.currency,
				incentive_per_lead_inr = EXCLUDED.incentive_per_lead_inr,
				updated_by = EXCLUDED.updated_by,
				updated_at = now()`,
			string(cfg.PlanName), cfg.BasePriceUSD, string(cfg.Currency), cfg.IncentivePerLeadINR, actor,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) SeedIfEmpty(ctx context.Context, configs []domain.PlanConfig) (bool, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bda_incentive_config`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, r.Upsert(ctx, configs, "system")
}
