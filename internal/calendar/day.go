package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDateFormat is returned for anything that is not a real
// calendar date written as YYYY-MM-DD.
var ErrInvalidDateFormat = errors.New("invalid date format")

const layout = "2006-01-02"

// Day is a calendar date with no time or zone attached. Two Days are equal
// when they name the same date, so Day can be used directly as a map key.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse reads a strict YYYY-MM-DD string. It never goes through an instant,
// so the result cannot drift a day because of UTC conversion.
func Parse(s string) (Day, error) {
	if len(s) != len(layout) {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Day {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the wall-clock date of t in t's own location.
func FromTime(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// Date builds a Day, normalizing overflow the same way time.Date does
// (January 32 becomes February 1).
func Date(year int, month time.Month, day int) Day {
	return FromTime(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d == Day{}
}

// Midnight returns the instant at which d starts in loc.
func (d Day) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// noon is used for arithmetic: 12:00 UTC is never ambiguous.
func (d Day) noon() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

func (d Day) Weekday() time.Weekday {
	return d.noon().Weekday()
}

func (d Day) AddDays(n int) Day {
	return FromTime(d.noon().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Day) Compare(other Day) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

func (d Day) Before(other Day) bool { return d.Compare(other) < 0 }
func (d Day) After(other Day) bool  { return d.Compare(other) > 0 }

// DaysUntil returns the number of days from d to other (negative when other
// is earlier).
func (d Day) DaysUntil(other Day) int {
	return int(other.noon().Sub(d.noon()).Hours() / 24)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysInMonth returns the length of the month in the given year.
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year int, month time.Month) (Day, Day, error) {
	if month < time.January || month > time.December {
		return Day{}, Day{}, fmt.Errorf("%w: month %d", ErrInvalidDateFormat, month)
	}
	first := Day{Year: year, Month: month, Day: 1}
	last := Day{Year: year, Month: month, Day: DaysInMonth(year, month)}
	return first, last, nil
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
