package followups

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("follow-up not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const followUpColumns = `id, booking_id, channel, due_at, state, task_id, last_error, created_at, updated_at`

func scanFollowUp(row pgx.Row) (FollowUp, error) {
	var f FollowUp
	var channel, state string
	err := row.Scan(&f.ID, &f.BookingID, &channel, &f.DueAt, &state, &f.TaskID, &f.LastError, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return FollowUp{}, err
	}
	f.Channel = Channel(channel)
	f.State = State(state)
	return f, nil
}

func (r *Repository) Create(ctx context.Context, f FollowUp) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO followups (id, booking_id, channel, due_at, state)
		VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.BookingID, string(f.Channel), f.DueAt, string(f.State),
	)
	return err
}

func (r *Repository) SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE followups SET task_id = $2, updated_at = now() WHERE id = $1`, id, taskID)
	return err
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (FollowUp, error) {
	f, err := scanFollowUp(r.pool.QueryRow(ctx, `SELECT `+followUpColumns+` FROM followups WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUp{}, ErrNotFound
	}
	return f, err
}

// MarkState moves a scheduled follow-up to a final state. Rows already
// finalized are left alone.
func (r *Repository) MarkState(ctx context.Context, id uuid.UUID, state State, lastError *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE followups
		SET state = $2, last_error = COALESCE($3, last_error), updated_at = now()
		WHERE id = $1 AND state = 'scheduled'`,
		id, string(state), lastError,
	)
	return err
}

// RecordAttemptError keeps the row scheduled for the next retry.
func (r *Repository) RecordAttemptError(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx, `UPDATE followups SET last_error = $2, updated_at = now() WHERE id = $1`, id, message)
	return err
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]FollowUp, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+followUpColumns+` FROM followups WHERE booking_id = $1 ORDER BY due_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]FollowUp, 0)
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// FailOverdue marks scheduled follow-ups due before cutoff as failed.
func (r *Repository) FailOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE followups
		SET state = 'failed', last_error = COALESCE(last_error, 'overdue'), updated_at = now()
		WHERE state = 'scheduled' AND due_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
