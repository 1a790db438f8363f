package blockeddates

import (
	"context"
	"time"

	"venueslots/internal/calendar"
)

// BlockedDate is a day the host has withdrawn from booking. At most one
// exists per venue and day.
type BlockedDate struct {
	VenueID   int64        `json:"venue_id"`
	Date      calendar.Day `json:"date"`
	Reason    string       `json:"reason"`
	CreatedAt time.Time    `json:"created_at"`
}

type Store interface {
	IsBlocked(ctx context.Context, venueID int64, day calendar.Day) (bool, error)
	// ListInRange returns blocked dates with from <= date <= to.
	ListInRange(ctx context.Context, venueID int64, from, to calendar.Day) ([]BlockedDate, error)
	// Block creates the record or updates its reason.
	Block(ctx context.Context, venueID int64, day calendar.Day, reason string) (*BlockedDate, error)
	// Unblock removes the record. Removing a missing record is not an error;
	// the bool reports whether anything was deleted.
	Unblock(ctx context.Context, venueID int64, day calendar.Day) (bool, error)
	// Toggle flips the blocked state and returns the new one.
	Toggle(ctx context.Context, venueID int64, day calendar.Day, reason string) (bool, error)
}
