package venues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"venueslots/internal/calendar"
	"venueslots/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// GetByID loads a venue together with its weekly operating hours.
func (r *Repository) GetByID(ctx context.Context, venueID int64) (*Venue, error) {
	const query = `
        SELECT id, owner_id, name, min_booking_hours, max_booking_hours,
               instant_book, created_at, updated_at
        FROM venues
        WHERE id = $1`

	var v Venue
	err := r.db.QueryRow(ctx, query, venueID).Scan(
		&v.ID,
		&v.OwnerID,
		&v.Name,
		&v.MinBookingHours,
		&v.MaxBookingHours,
		&v.InstantBook,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}

	hours, err := r.getHours(ctx, venueID)
	if err != nil {
		return nil, err
	}
	v.Hours = hours
	return &v, nil
}

func (r *Repository) getHours(ctx context.Context, venueID int64) (WeeklyHours, error) {
	const query = `
        SELECT weekday, open_time, close_time, closed
        FROM venue_hours
        WHERE venue_id = $1
        ORDER BY weekday`

	var hours WeeklyHours
	rows, err := r.db.Query(ctx, query, venueID)
	if err != nil {
		return hours, fmt.Errorf("failed to get venue hours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			weekday     int
			open, close sql.NullString
			closed      bool
		)
		if err := rows.Scan(&weekday, &open, &close, &closed); err != nil {
			return hours, err
		}
		if weekday < int(time.Sunday) || weekday > int(time.Saturday) {
			return hours, fmt.Errorf("venue %d: weekday %d out of range", venueID, weekday)
		}
		if closed || !open.Valid || !close.Valid {
			hours[weekday] = DayHours{Closed: true}
			continue
		}
		openMin, err := calendar.ParseClock(open.String)
		if err != nil {
			return hours, fmt.Errorf("venue %d %s open_time: %w", venueID, time.Weekday(weekday), err)
		}
		closeMin, err := calendar.ParseClock(close.String)
		if err != nil {
			return hours, fmt.Errorf("venue %d %s close_time: %w", venueID, time.Weekday(weekday), err)
		}
		hours[weekday] = DayHours{Open: openMin, Close: closeMin}
	}
	return hours, rows.Err()
}

func (r *Repository) LockForUpdate(ctx context.Context, venueID int64) error {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM venues WHERE id = $1 FOR UPDATE`, venueID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVenueNotFound
		}
		return fmt.Errorf("failed to lock venue: %w", err)
	}
	return nil
}
