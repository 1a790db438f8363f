package availability

// DefaultSlotWidth is the slot size in minutes when none is configured.
const DefaultSlotWidth = 30

// Slots cuts each free interval into back-to-back slots of width minutes,
// starting at the interval's start. A trailing remainder shorter than width
// is dropped, so a slot never leaves its interval.
func Slots(free []Interval, width int) []Interval {
	if width <= 0 {
		return []Interval{}
	}
	out := make([]Interval, 0, CountSlots(free, width))
	for _, f := range free {
		for t := f.Start; t+width <= f.End; t += width {
			out = append(out, Interval{Start: t, End: t + width})
		}
	}
	return out
}

// CountSlots returns len(Slots(free, width)) without building the slice.
func CountSlots(free []Interval, width int) int {
	if width <= 0 {
		return 0
	}
	n := 0
	for _, f := range free {
		if f.Len() > 0 {
			n += f.Len() / width
		}
	}
	return n
}
