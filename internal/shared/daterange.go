package shared

import "time"

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// Day truncates a timestamp to its UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// DateRange is an inclusive calendar date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from day-truncated bounds.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Valid reports whether both bounds are set and the end does not precede
// the start.
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Overlaps reports whether two inclusive ranges intersect. A range ending
// the day another begins counts as overlapping.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.End.Before(other.Start) && !r.Start.After(other.End)
}

// Contains reports whether the given date falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the inclusive day count of the range.
func (r DateRange) Days() int {
	if !r.Valid() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}
