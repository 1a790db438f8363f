package availability

import (
	"errors"

	"venueslots/internal/calendar"
)

// Validation errors: the caller should fix its input.
var (
	ErrInvalidDateFormat     = calendar.ErrInvalidDateFormat
	ErrInvalidTimeRange      = errors.New("invalid time range")
	ErrSelfBookingNotAllowed = errors.New("venue owners cannot book their own venue")
)

// Conflict errors: the caller should re-fetch availability and pick again.
var (
	ErrSlotConflict      = errors.New("requested time overlaps an existing booking")
	ErrBlockedDate       = errors.New("date is blocked by the host")
	ErrInvalidTransition = errors.New("booking status does not allow this change")
)

var (
	ErrResourceNotFound = errors.New("venue not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrNotPermitted     = errors.New("not permitted")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, calendar.ErrInvalidClock) ||
		errors.Is(err, ErrInvalidTimeRange)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotConflict) ||
		errors.Is(err, ErrBlockedDate) ||
		errors.Is(err, ErrInvalidTransition)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound) || errors.Is(err, ErrBookingNotFound)
}
