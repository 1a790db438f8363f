package bookings

import (
	"context"
	"errors"
	"time"

	"venueslots/internal/calendar"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrOverlap           = errors.New("booking overlaps an active booking")
	ErrInvalidTransition = errors.New("booking status does not allow this change")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ActiveStatuses are the statuses that occupy the ledger. Cancelled and
// completed bookings stay as history but never block a slot.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is a reservation of [StartMinute, EndMinute) on Date, in the
// venue's local time.
type Booking struct {
	ID          int64        `json:"id"`
	Reference   string       `json:"reference"`
	VenueID     int64        `json:"venue_id"`
	UserID      int64        `json:"user_id"`
	Date        calendar.Day `json:"date"`
	StartMinute int          `json:"start_minute"`
	EndMinute   int          `json:"end_minute"`
	Guests      int          `json:"guests"`
	Status      Status       `json:"status"`
	Note        *string      `json:"note,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Overlaps reports whether b intersects the half-open range [start, end).
func (b *Booking) Overlaps(start, end int) bool {
	return start < b.EndMinute && end > b.StartMinute
}

type Store interface {
	// ListActiveInRange returns PENDING and CONFIRMED bookings of a venue
	// with from <= date <= to, ordered by date and start.
	ListActiveInRange(ctx context.Context, venueID int64, from, to calendar.Day) ([]Booking, error)
	ListActiveForDay(ctx context.Context, venueID int64, day calendar.Day) ([]Booking, error)
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, bookingID int64) (*Booking, error)
	// Transition moves a booking to status `to` only if its current status
	// is one of `from`.
	Transition(ctx context.Context, bookingID int64, from []Status, to Status) (*Booking, error)
	// MarkCompleted completes every CONFIRMED booking that ended at or
	// before nowMinute on today, or on any earlier day.
	MarkCompleted(ctx context.Context, today calendar.Day, nowMinute int) (int64, error)
	// ExpirePending cancels PENDING bookings created before cutoff.
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}
