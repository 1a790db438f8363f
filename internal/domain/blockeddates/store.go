package blockeddates

import (
	"context"
	"fmt"

	"venueslots/internal/calendar"
	"venueslots/internal/infra/dbx"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) IsBlocked(ctx context.Context, venueID int64, day calendar.Day) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM blocked_dates
            WHERE venue_id = $1 AND blocked_date = $2::date
        )`

	var blocked bool
	if err := r.db.QueryRow(ctx, query, venueID, day.String()).Scan(&blocked); err != nil {
		return false, fmt.Errorf("failed to check blocked date: %w", err)
	}
	return blocked, nil
}

func (r *Repository) ListInRange(ctx context.Context, venueID int64, from, to calendar.Day) ([]BlockedDate, error) {
	const query = `
        SELECT venue_id, to_char(blocked_date, 'YYYY-MM-DD'), reason, created_at
        FROM blocked_dates
        WHERE venue_id = $1
          AND blocked_date BETWEEN $2::date AND $3::date
        ORDER BY blocked_date`

	rows, err := r.db.Query(ctx, query, venueID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked dates: %w", err)
	}
	defer rows.Close()

	var out []BlockedDate
	for rows.Next() {
		var (
			bd   BlockedDate
			date string
		)
		if err := rows.Scan(&bd.VenueID, &date, &bd.Reason, &bd.CreatedAt); err != nil {
			return nil, err
		}
		if bd.Date, err = calendar.Parse(date); err != nil {
			return nil, err
		}
		out = append(out, bd)
	}
	return out, rows.Err()
}

// Block upserts; the reason of an existing row is overwritten.
func (r *Repository) Block(ctx context.Context, venueID int64, day calendar.Day, reason string) (*BlockedDate, error) {
	const query = `
        INSERT INTO blocked_dates (venue_id, blocked_date, reason)
        VALUES ($1, $2::date, $3)
        ON CONFLICT (venue_id, blocked_date)
        DO UPDATE SET reason = EXCLUDED.reason
        RETURNING created_at`

	bd := &BlockedDate{VenueID: venueID, Date: day, Reason: reason}
	if err := r.db.QueryRow(ctx, query, venueID, day.String(), reason).Scan(&bd.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to block date: %w", err)
	}
	return bd, nil
}

func (r *Repository) Unblock(ctx context.Context, venueID int64, day calendar.Day) (bool, error) {
	const query = `DELETE FROM blocked_dates WHERE venue_id = $1 AND blocked_date = $2::date`

	res, err := r.db.Exec(ctx, query, venueID, day.String())
	if err != nil {
		return false, fmt.Errorf("failed to unblock date: %w", err)
	}
	return res.RowsAffected() > 0, nil
}

// Toggle deletes the row if present, otherwise inserts it, and returns true
// when the day is blocked afterwards. Concurrent toggles of the same day must
// be serialized by the caller (storage.Transactor holds the venue row lock);
// an unserialized loser fails on the unique key instead of reporting a state
// it did not produce.
func (r *Repository) Toggle(ctx context.Context, venueID int64, day calendar.Day, reason string) (bool, error) {
	const query = `
        WITH removed AS (
            DELETE FROM blocked_dates
            WHERE venue_id = $1 AND blocked_date = $2::date
            RETURNING 1
        ), inserted AS (
            INSERT INTO blocked_dates (venue_id, blocked_date, reason)
            SELECT $1, $2::date, $3
            WHERE NOT EXISTS (SELECT 1 FROM removed)
            RETURNING 1
        )
        SELECT EXISTS (SELECT 1 FROM inserted)`

	var blocked bool
	if err := r.db.QueryRow(ctx, query, venueID, day.String(), reason).Scan(&blocked); err != nil {
		return false, fmt.Errorf("failed to toggle blocked date: %w", err)
	}
	return blocked, nil
}
