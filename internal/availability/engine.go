package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venueslots/internal/calendar"
	"venueslots/internal/domain/storage"
	"venueslots/internal/domain/venues"

	"go.uber.org/zap"
)

// DefaultMaxRangeDays bounds a single range read.
const DefaultMaxRangeDays = 92

type Options struct {
	// Location is the venues' local time zone. Dates and minutes-of-day
	// are interpreted in it.
	Location     *time.Location
	Clock        calendar.Clock
	SlotWidth    int
	MaxRangeDays int
	// PendingHold, when positive, lets the sweep cancel PENDING bookings
	// older than this. Zero keeps them indefinitely.
	PendingHold time.Duration
	Cache       CalendarCache
	Logger      *zap.SugaredLogger
}

// Engine computes availability and commits reservations. It is safe for
// concurrent use.
type Engine struct {
	repos storage.Repos
	tx    storage.Transactor

	loc          *time.Location
	clock        calendar.Clock
	slotWidth    int
	maxRangeDays int
	pendingHold  time.Duration
	cache        CalendarCache
	logger       *zap.SugaredLogger
}

func New(repos storage.Repos, tx storage.Transactor, opts Options) *Engine {
	e := &Engine{
		repos:        repos,
		tx:           tx,
		loc:          opts.Location,
		clock:        opts.Clock,
		slotWidth:    opts.SlotWidth,
		maxRangeDays: opts.MaxRangeDays,
		pendingHold:  opts.PendingHold,
		cache:        opts.Cache,
		logger:       opts.Logger,
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.clock == nil {
		e.clock = calendar.SystemClock{}
	}
	if e.slotWidth <= 0 {
		e.slotWidth = DefaultSlotWidth
	}
	if e.maxRangeDays <= 0 {
		e.maxRangeDays = DefaultMaxRangeDays
	}
	if e.cache == nil {
		e.cache = NopCache{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop().Sugar()
	}
	return e
}

// SlotWidth returns the configured slot size in minutes.
func (e *Engine) SlotWidth() int { return e.slotWidth }

// Venue returns the venue or ErrResourceNotFound.
func (e *Engine) Venue(ctx context.Context, venueID int64) (*venues.Venue, error) {
	v, err := e.repos.Venues.GetByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, venues.ErrVenueNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrResourceNotFound, venueID)
		}
		return nil, err
	}
	return v, nil
}

// Today is the current date in venue time.
func (e *Engine) Today() calendar.Day {
	today, _ := e.now()
	return today
}

// now returns today's date and the current minute of day in venue time.
func (e *Engine) now() (calendar.Day, int) {
	t := e.clock.Now().In(e.loc)
	return calendar.FromTime(t), calendar.MinuteOfDay(t, e.loc)
}

func (e *Engine) invalidate(ctx context.Context, venueID int64) {
	if err := e.cache.Invalidate(ctx, venueID); err != nil {
		e.logger.Warnw("calendar cache invalidation failed", "venue_id", venueID, "error", err)
	}
}
