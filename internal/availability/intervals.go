package availability

import (
	"encoding/json"
	"sort"

	"venueslots/internal/calendar"
)

// Interval is a half-open range [Start, End) in minutes since local
// midnight. It is used for operating windows, booked ranges, free time and
// slots alike.
type Interval struct {
	Start int
	End   int
}

func (i Interval) Len() int { return i.End - i.Start }

type intervalJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (i Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal(intervalJSON{
		Start: calendar.FormatClock(i.Start),
		End:   calendar.FormatClock(i.End),
	})
}

func (i *Interval) UnmarshalJSON(b []byte) error {
	var raw intervalJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	start, err := calendar.ParseClock(raw.Start)
	if err != nil {
		return err
	}
	end, err := calendar.ParseClock(raw.End)
	if err != nil {
		return err
	}
	*i = Interval{Start: start, End: end}
	return nil
}

// FreeIntervals returns the maximal sub-intervals of window not covered by
// any booked range, dropping those shorter than minDuration minutes.
//
// Booked ranges may overlap, touch, or extend past the window. The sweep
// cursor only ever moves forward, which is what merges overlapping and
// adjacent bookings into one excluded span.
func FreeIntervals(window Interval, booked []Interval, minDuration int) []Interval {
	if window.Len() <= 0 {
		return nil
	}
	if minDuration < 1 {
		minDuration = 1
	}

	sorted := make([]Interval, len(booked))
	copy(sorted, booked)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var free []Interval
	cursor := window.Start
	for _, b := range sorted {
		if b.End <= b.Start {
			continue
		}
		if cursor >= window.End {
			break
		}
		gapEnd := min(b.Start, window.End)
		if cursor < gapEnd && gapEnd-cursor >= minDuration {
			free = append(free, Interval{Start: cursor, End: gapEnd})
		}
		cursor = max(cursor, b.End)
	}
	if window.End-cursor >= minDuration {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}
