package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrInvalidClock = errors.New("invalid time of day")

// MinutesPerDay is also the largest value ParseClock accepts ("24:00").
const MinutesPerDay = 24 * 60

// Clock supplies the current instant. Everything that needs "now" takes a
// Clock so past-date checks stay deterministic under test.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// Today returns the current calendar day in loc.
func Today(c Clock, loc *time.Location) Day {
	return FromTime(c.Now().In(loc))
}

// MinuteOfDay returns minutes since local midnight for t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is
// accepted so a venue can close at midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' || !digits(s[:2]) || !digits(s[3:]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
