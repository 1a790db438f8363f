package availability

import (
	"context"
	"time"
)

// CalendarCache stores computed month calendars. A miss or an error only
// costs a recomputation; the engine never trusts the cache for Reserve.
//
// GetMonth returns the generation it looked under, hit or miss, and SetMonth
// stores under that generation rather than the current one. An empty
// generation means nothing may be stored.
type CalendarCache interface {
	GetMonth(ctx context.Context, venueID int64, year int, month time.Month) (cal Calendar, gen string, ok bool, err error)
	SetMonth(ctx context.Context, venueID int64, year int, month time.Month, gen string, cal Calendar) error
	Invalidate(ctx context.Context, venueID int64) error
	InvalidateAll(ctx context.Context) error
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) GetMonth(context.Context, int64, int, time.Month) (Calendar, string, bool, error) {
	return nil, "", false, nil
}

func (NopCache) SetMonth(context.Context, int64, int, time.Month, string, Calendar) error { return nil }
func (NopCache) Invalidate(context.Context, int64) error                                  { return nil }
func (NopCache) InvalidateAll(context.Context) error                                      { return nil }
