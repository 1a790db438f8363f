package availability

import (
	"context"

	"venueslots/internal/calendar"
	"venueslots/internal/domain/blockeddates"
	"venueslots/internal/domain/storage"
)

// Blocked-date writes run under the same venue lock as reservations, so a
// block and a reservation on one venue are ordered, and two toggles of the
// same day never both see the old state.

// BlockDate withdraws a day from booking. Existing bookings on that day are
// left untouched; the day simply reads as blocked.
func (e *Engine) BlockDate(ctx context.Context, venueID int64, day calendar.Day, reason string) (*blockeddates.BlockedDate, error) {
	if _, err := e.Venue(ctx, venueID); err != nil {
		return nil, err
	}
	var bd *blockeddates.BlockedDate
	err := e.tx.WithReservationTx(ctx, venueID, func(tx storage.Repos) error {
		var err error
		bd, err = tx.BlockedDates.Block(ctx, venueID, day, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.invalidate(ctx, venueID)
	e.logger.Infow("date blocked", "venue_id", venueID, "date", day.String())
	return bd, nil
}

// UnblockDate is idempotent: unblocking a day that is not blocked succeeds.
func (e *Engine) UnblockDate(ctx context.Context, venueID int64, day calendar.Day) error {
	if _, err := e.Venue(ctx, venueID); err != nil {
		return err
	}
	var removed bool
	err := e.tx.WithReservationTx(ctx, venueID, func(tx storage.Repos) error {
		var err error
		removed, err = tx.BlockedDates.Unblock(ctx, venueID, day)
		return err
	})
	if err != nil {
		return err
	}
	if removed {
		e.invalidate(ctx, venueID)
		e.logger.Infow("date unblocked", "venue_id", venueID, "date", day.String())
	}
	return nil
}

// ToggleBlock flips the blocked state of a day and returns the new state.
func (e *Engine) ToggleBlock(ctx context.Context, venueID int64, day calendar.Day, reason string) (bool, error) {
	if _, err := e.Venue(ctx, venueID); err != nil {
		return false, err
	}
	var blocked bool
	err := e.tx.WithReservationTx(ctx, venueID, func(tx storage.Repos) error {
		var err error
		blocked, err = tx.BlockedDates.Toggle(ctx, venueID, day, reason)
		return err
	})
	if err != nil {
		return false, err
	}
	e.invalidate(ctx, venueID)
	e.logger.Infow("date toggled", "venue_id", venueID, "date", day.String(), "blocked", blocked)
	return blocked, nil
}
