package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venueslots/internal/calendar"
	"venueslots/internal/db"
	"venueslots/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const bookingColumns = `
        id, reference::text, venue_id, user_id, to_char(booking_date, 'YYYY-MM-DD'),
        start_minute, end_minute, guests, status, note, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b    Booking
		date string
	)
	if err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.VenueID,
		&b.UserID,
		&date,
		&b.StartMinute,
		&b.EndMinute,
		&b.Guests,
		&b.Status,
		&b.Note,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	day, err := calendar.Parse(date)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	b.Date = day
	return &b, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *Repository) ListActiveInRange(ctx context.Context, venueID int64, from, to calendar.Day) ([]Booking, error) {
	query := `
        SELECT` + bookingColumns + `
        FROM bookings
        WHERE venue_id = $1
          AND booking_date BETWEEN $2::date AND $3::date
          AND status = ANY($4)
        ORDER BY booking_date, start_minute`

	rows, err := r.db.Query(ctx, query, venueID, from.String(), to.String(), statusStrings(ActiveStatuses))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) ListActiveForDay(ctx context.Context, venueID int64, day calendar.Day) ([]Booking, error) {
	return r.ListActiveInRange(ctx, venueID, day, day)
}

// Create inserts a booking record. An overlap caught by the exclusion
// constraint is reported as ErrOverlap.
func (r *Repository) Create(ctx context.Context, booking *Booking) error {
	const query = `
        INSERT INTO bookings (
            reference, venue_id, user_id, booking_date, start_minute,
            end_minute, guests, status, note
        ) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		booking.Reference,
		booking.VenueID,
		booking.UserID,
		booking.Date.String(),
		booking.StartMinute,
		booking.EndMinute,
		booking.Guests,
		string(booking.Status),
		booking.Note,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if db.HasCode(err, db.CodeExclusionViolation) {
			return ErrOverlap
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, bookingID int64) (*Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.db.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (r *Repository) Transition(ctx context.Context, bookingID int64, from []Status, to Status) (*Booking, error) {
	query := `
        UPDATE bookings
        SET status = $1,
            updated_at = NOW()
        WHERE id = $2
          AND status = ANY($3)
        RETURNING` + bookingColumns

	b, err := scanBooking(r.db.QueryRow(ctx, query, string(to), bookingID, statusStrings(from)))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if db.HasCode(err, db.CodeExclusionViolation) {
			return nil, ErrOverlap
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	// Nothing matched: either the booking is missing or its status is wrong.
	if _, err := r.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

func (r *Repository) MarkCompleted(ctx context.Context, today calendar.Day, nowMinute int) (int64, error) {
	const query = `
        UPDATE bookings
        SET status = 'COMPLETED',
            updated_at = NOW()
        WHERE status = 'CONFIRMED'
          AND (booking_date < $1::date
               OR (booking_date = $1::date AND end_minute <= $2))`

	res, err := r.db.Exec(ctx, query, today.String(), nowMinute)
	if err != nil {
		return 0, fmt.Errorf("failed to mark bookings completed: %w", err)
	}
	return res.RowsAffected(), nil
}

func (r *Repository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
        UPDATE bookings
        SET status = 'CANCELLED',
            updated_at = NOW()
        WHERE status = 'PENDING'
          AND created_at < $1`

	res, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending bookings: %w", err)
	}
	return res.RowsAffected(), nil
}
