package availability

import (
	"context"
	"errors"
	"fmt"

	"venueslots/internal/calendar"
	"venueslots/internal/domain/bookings"
	"venueslots/internal/domain/storage"
	"venueslots/internal/domain/venues"

	"github.com/google/uuid"
)

type ReserveRequest struct {
	VenueID     int64
	RequesterID int64
	Date        calendar.Day
	Start       int // minutes since midnight
	End         int
	Guests      int
	Note        *string
}

// Reserve books [Start, End) on Date. The blocked-date check, the overlap
// check and the insert run in one reservation transaction, so of two
// concurrent requests for intersecting ranges exactly one succeeds and the
// other gets ErrSlotConflict.
func (e *Engine) Reserve(ctx context.Context, req ReserveRequest) (*bookings.Booking, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: missing date", ErrInvalidDateFormat)
	}
	if req.Start < 0 || req.End > calendar.MinutesPerDay || req.Start >= req.End {
		return nil, fmt.Errorf("%w: start %s must be before end %s",
			ErrInvalidTimeRange, calendar.FormatClock(max(req.Start, 0)), calendar.FormatClock(max(req.End, 0)))
	}

	venue, err := e.Venue(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}
	if venue.OwnerID == req.RequesterID {
		return nil, ErrSelfBookingNotAllowed
	}
	if err := e.checkBookable(venue, req.Date, req.Start, req.End); err != nil {
		return nil, err
	}

	status := bookings.StatusPending
	if venue.InstantBook {
		status = bookings.StatusConfirmed
	}
	guests := req.Guests
	if guests < 1 {
		guests = 1
	}
	booking := &bookings.Booking{
		Reference:   uuid.NewString(),
		VenueID:     venue.ID,
		UserID:      req.RequesterID,
		Date:        req.Date,
		StartMinute: req.Start,
		EndMinute:   req.End,
		Guests:      guests,
		Status:      status,
		Note:        req.Note,
	}

	err = e.tx.WithReservationTx(ctx, venue.ID, func(tx storage.Repos) error {
		blocked, err := tx.BlockedDates.IsBlocked(ctx, venue.ID, req.Date)
		if err != nil {
			return err
		}
		if blocked {
			return fmt.Errorf("%w: %s", ErrBlockedDate, req.Date)
		}

		existing, err := tx.Bookings.ListActiveForDay(ctx, venue.ID, req.Date)
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].Status.Active() && existing[i].Overlaps(req.Start, req.End) {
				return fmt.Errorf("%w: %s %s-%s", ErrSlotConflict, req.Date,
					calendar.FormatClock(existing[i].StartMinute), calendar.FormatClock(existing[i].EndMinute))
			}
		}

		return tx.Bookings.Create(ctx, booking)
	})
	if err != nil {
		if errors.Is(err, bookings.ErrOverlap) {
			err = fmt.Errorf("%w: %v", ErrSlotConflict, err)
		}
		if IsConflict(err) {
			e.logger.Infow("reservation rejected", "venue_id", venue.ID, "date", req.Date.String(), "error", err)
		} else {
			e.logger.Errorw("reservation failed", "venue_id", venue.ID, "date", req.Date.String(), "error", err)
		}
		return nil, err
	}

	e.invalidate(ctx, venue.ID)
	e.logger.Infow("booking reserved",
		"booking_id", booking.ID,
		"venue_id", venue.ID,
		"date", req.Date.String(),
		"start", calendar.FormatClock(req.Start),
		"end", calendar.FormatClock(req.End),
		"status", booking.Status,
	)
	return booking, nil
}

// CheckSlotAvailable reports whether [start, end) on day could be reserved
// right now. It is advisory: only Reserve decides.
func (e *Engine) CheckSlotAvailable(ctx context.Context, venueID int64, day calendar.Day, start, end int) (bool, error) {
	if start < 0 || end > calendar.MinutesPerDay || start >= end {
		return false, fmt.Errorf("%w: start must be before end", ErrInvalidTimeRange)
	}
	venue, err := e.Venue(ctx, venueID)
	if err != nil {
		return false, err
	}
	if err := e.checkBookable(venue, day, start, end); err != nil {
		if errors.Is(err, ErrInvalidTimeRange) {
			return false, nil
		}
		return false, err
	}

	blocked, err := e.repos.BlockedDates.IsBlocked(ctx, venueID, day)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}
	existing, err := e.repos.Bookings.ListActiveForDay(ctx, venueID, day)
	if err != nil {
		return false, err
	}
	for i := range existing {
		if existing[i].Status.Active() && existing[i].Overlaps(start, end) {
			return false, nil
		}
	}
	return true, nil
}

// checkBookable applies the venue's rules that do not depend on the ledger:
// operating hours, booking length and the past.
func (e *Engine) checkBookable(venue *venues.Venue, day calendar.Day, start, end int) error {
	hours := venue.Hours.For(day.Weekday())
	if hours.Closed {
		return fmt.Errorf("%w: venue is closed on %s", ErrInvalidTimeRange, day.Weekday())
	}
	if start < hours.Open || end > hours.Close {
		return fmt.Errorf("%w: %s-%s is outside operating hours %s-%s", ErrInvalidTimeRange,
			calendar.FormatClock(start), calendar.FormatClock(end),
			calendar.FormatClock(hours.Open), calendar.FormatClock(hours.Close))
	}

	length := end - start
	if length < venue.MinDuration() {
		return fmt.Errorf("%w: minimum booking is %d hour(s)", ErrInvalidTimeRange, venue.MinBookingHours)
	}
	if limit := venue.MaxDuration(); limit > 0 && length > limit {
		return fmt.Errorf("%w: maximum booking is %d hour(s)", ErrInvalidTimeRange, venue.MaxBookingHours)
	}

	today, nowMinute := e.now()
	if day.Before(today) || (day == today && start < nowMinute) {
		return fmt.Errorf("%w: %s %s is in the past", ErrInvalidTimeRange, day, calendar.FormatClock(start))
	}
	return nil
}

// Cancel releases a PENDING or CONFIRMED booking. The guest who made it and
// the venue owner may cancel.
func (e *Engine) Cancel(ctx context.Context, bookingID, requesterID int64) (*bookings.Booking, error) {
	b, venue, err := e.bookingWithVenue(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != requesterID && venue.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: only the guest or the venue owner can cancel", ErrNotPermitted)
	}

	updated, err := e.repos.Bookings.Transition(ctx, bookingID, bookings.ActiveStatuses, bookings.StatusCancelled)
	if err != nil {
		return nil, mapBookingErr(err, bookingID)
	}

	e.invalidate(ctx, venue.ID)
	e.logger.Infow("booking cancelled", "booking_id", bookingID, "venue_id", venue.ID, "by", requesterID)
	return updated, nil
}

// Confirm accepts a PENDING booking. Only the venue owner may confirm.
func (e *Engine) Confirm(ctx context.Context, bookingID, requesterID int64) (*bookings.Booking, error) {
	_, venue, err := e.bookingWithVenue(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if venue.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: only the venue owner can confirm", ErrNotPermitted)
	}

	updated, err := e.repos.Bookings.Transition(ctx, bookingID,
		[]bookings.Status{bookings.StatusPending}, bookings.StatusConfirmed)
	if err != nil {
		return nil, mapBookingErr(err, bookingID)
	}

	e.invalidate(ctx, venue.ID)
	e.logger.Infow("booking confirmed", "booking_id", bookingID, "venue_id", venue.ID)
	return updated, nil
}

func (e *Engine) bookingWithVenue(ctx context.Context, bookingID int64) (*bookings.Booking, *venues.Venue, error) {
	b, err := e.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, mapBookingErr(err, bookingID)
	}
	venue, err := e.Venue(ctx, b.VenueID)
	if err != nil {
		return nil, nil, err
	}
	return b, venue, nil
}

func mapBookingErr(err error, bookingID int64) error {
	switch {
	case errors.Is(err, bookings.ErrBookingNotFound):
		return fmt.Errorf("%w: id %d", ErrBookingNotFound, bookingID)
	case errors.Is(err, bookings.ErrInvalidTransition):
		return fmt.Errorf("%w: booking %d", ErrInvalidTransition, bookingID)
	default:
		return err
	}
}
