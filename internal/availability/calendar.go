package availability

import (
	"context"
	"fmt"
	"time"

	"venueslots/internal/calendar"
	"venueslots/internal/domain/venues"
)

type DayStatus string

const (
	StatusAvailable       DayStatus = "available"
	StatusPartiallyBooked DayStatus = "partially-booked"
	StatusFullyBooked     DayStatus = "fully-booked"
	StatusBlocked         DayStatus = "blocked"
	StatusClosed          DayStatus = "closed"
)

// DayAvailability is the computed view of one day. It is rebuilt on every
// read and never stored.
type DayAvailability struct {
	Date         calendar.Day `json:"date"`
	Status       DayStatus    `json:"status"`
	Slots        []Interval   `json:"slots"`
	BookedRanges []Interval   `json:"booked_ranges"`
}

// Calendar maps each requested day to its availability.
type Calendar map[calendar.Day]DayAvailability

// DayAvailability returns the availability of a single day.
func (e *Engine) DayAvailability(ctx context.Context, venueID int64, day calendar.Day) (DayAvailability, error) {
	cal, err := e.RangeAvailability(ctx, venueID, day, day)
	if err != nil {
		return DayAvailability{}, err
	}
	return cal[day], nil
}

// MonthCalendar returns one entry for every day of the calendar month.
func (e *Engine) MonthCalendar(ctx context.Context, venueID int64, year int, month time.Month) (Calendar, error) {
	first, last, err := calendar.MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	cached, gen, ok, err := e.cache.GetMonth(ctx, venueID, year, month)
	if err != nil {
		e.logger.Warnw("calendar cache read failed", "venue_id", venueID, "error", err)
	} else if ok && len(cached) == calendar.DaysInMonth(year, month) {
		return cached, nil
	}

	cal, err := e.RangeAvailability(ctx, venueID, first, last)
	if err != nil {
		return nil, err
	}

	if gen != "" {
		if err := e.cache.SetMonth(ctx, venueID, year, month, gen, cal); err != nil {
			e.logger.Warnw("calendar cache write failed", "venue_id", venueID, "error", err)
		}
	}
	return cal, nil
}

// RangeAvailability computes every day in [from, to]. Bookings and blocked
// dates for the whole range are fetched in one query each and indexed by
// day; the result is either complete or an error.
func (e *Engine) RangeAvailability(ctx context.Context, venueID int64, from, to calendar.Day) (Calendar, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidTimeRange, from, to)
	}
	days := from.DaysUntil(to) + 1
	if days > e.maxRangeDays {
		return nil, fmt.Errorf("%w: %d days requested, at most %d allowed", ErrInvalidTimeRange, days, e.maxRangeDays)
	}

	venue, err := e.Venue(ctx, venueID)
	if err != nil {
		return nil, err
	}

	booked, err := e.repos.Bookings.ListActiveInRange(ctx, venueID, from, to)
	if err != nil {
		return nil, err
	}
	blocked, err := e.repos.BlockedDates.ListInRange(ctx, venueID, from, to)
	if err != nil {
		return nil, err
	}

	bookedByDay := make(map[calendar.Day][]Interval)
	for _, b := range booked {
		if !b.Status.Active() {
			continue
		}
		bookedByDay[b.Date] = append(bookedByDay[b.Date], Interval{Start: b.StartMinute, End: b.EndMinute})
	}
	blockedDays := make(map[calendar.Day]bool, len(blocked))
	for _, bd := range blocked {
		blockedDays[bd.Date] = true
	}

	out := make(Calendar, days)
	for d := from; !d.After(to); d = d.AddDays(1) {
		out[d] = e.resolveDay(venue, d, blockedDays[d], bookedByDay[d])
	}
	if len(out) != days {
		return nil, fmt.Errorf("calendar for venue %d: built %d of %d days", venueID, len(out), days)
	}
	return out, nil
}

func (e *Engine) resolveDay(venue *venues.Venue, day calendar.Day, blocked bool, booked []Interval) DayAvailability {
	if booked == nil {
		booked = []Interval{}
	}
	da := DayAvailability{
		Date:         day,
		Slots:        []Interval{},
		BookedRanges: booked,
	}

	if blocked {
		da.Status = StatusBlocked
		return da
	}

	hours := venue.Hours.For(day.Weekday())
	if hours.Closed {
		da.Status = StatusClosed
		return da
	}

	window := Interval{Start: hours.Open, End: hours.Close}
	free := FreeIntervals(window, booked, venue.MinDuration())
	da.Slots = Slots(free, e.slotWidth)
	da.Status = classify(len(booked), len(da.Slots))
	return da
}

func classify(bookings, slots int) DayStatus {
	switch {
	case slots == 0:
		return StatusFullyBooked
	case bookings == 0:
		return StatusAvailable
	default:
		return StatusPartiallyBooked
	}
}
