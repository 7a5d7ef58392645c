package campaigns

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Record(ctx context.Context, run Run) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO campaign_runs (id, channel, created_by, template, requested, sent, failed, skipped_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, string(run.Channel), run.CreatedBy, run.Template,
		run.Requested, run.Sent, run.Failed, run.SkippedPaid, run.CreatedAt,
	)
	return err
}

// List returns the most recent runs of a channel, newest first.
func (r *Repository) List(ctx context.Context, channel Channel, limit int) ([]Run, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel, created_by, template, requested, sent, failed, skipped_paid, created_at
		FROM campaign_runs
		WHERE channel = $1
		ORDER BY created_at DESC
		LIMIT $2`, string(channel), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Run, 0)
	for rows.Next() {
		var run Run
		var ch string
		if err := rows.Scan(&run.ID, &ch, &run.CreatedBy, &run.Template, &run.Requested, &run.Sent, &run.Failed, &run.SkippedPaid, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Channel = Channel(ch)
		out = append(out, run)
	}
	return out, rows.Err()
}
