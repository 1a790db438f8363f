package venues

import (
	"context"
	"errors"
	"time"
)

var ErrVenueNotFound = errors.New("venue not found")

// DayHours is one weekday of a venue's operating schedule. Open and Close
// are minutes since local midnight. The zero value is a closed day.
type DayHours struct {
	Open   int
	Close  int
	Closed bool
}

// IsOpen reports whether the day has a usable window.
func (h DayHours) IsOpen() bool {
	return !h.Closed && h.Open < h.Close
}

// WeeklyHours is indexed by time.Weekday, so index 0 is Sunday. This is the
// only weekday convention used anywhere in the engine.
type WeeklyHours [7]DayHours

// For returns the hours for a weekday. Anything not configured as open is
// reported as closed.
func (w WeeklyHours) For(day time.Weekday) DayHours {
	if day < time.Sunday || day > time.Saturday {
		return DayHours{Closed: true}
	}
	h := w[day]
	if !h.IsOpen() {
		return DayHours{Closed: true}
	}
	return h
}

// Daily returns a schedule with the same window on every weekday.
func Daily(open, close int) WeeklyHours {
	var w WeeklyHours
	for i := range w {
		w[i] = DayHours{Open: open, Close: close}
	}
	return w
}

// Venue is the bookable resource as far as the availability engine is
// concerned. Listing details live elsewhere.
type Venue struct {
	ID              int64       `json:"id"`
	OwnerID         int64       `json:"owner_id"`
	Name            string      `json:"name"`
	MinBookingHours int         `json:"min_booking_hours"`
	MaxBookingHours int         `json:"max_booking_hours"` // 0 = no limit
	InstantBook     bool        `json:"instant_book"`
	Hours           WeeklyHours `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// MinDuration returns the minimum booking length in minutes.
func (v *Venue) MinDuration() int {
	return v.MinBookingHours * 60
}

// MaxDuration returns the maximum booking length in minutes, 0 if unbounded.
func (v *Venue) MaxDuration() int {
	return v.MaxBookingHours * 60
}

type Store interface {
	GetByID(ctx context.Context, venueID int64) (*Venue, error)
	// LockForUpdate takes a row lock on the venue for the rest of the
	// surrounding transaction.
	LockForUpdate(ctx context.Context, venueID int64) error
}
