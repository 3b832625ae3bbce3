package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRangeOverlaps(t *testing.T) {
	existing := NewDateRange(date(2024, time.June, 14), date(2024, time.June, 20))

	sharedBoundary := NewDateRange(date(2024, time.June, 10), date(2024, time.June, 14))
	require.True(t, sharedBoundary.Overlaps(existing), "ranges sharing a boundary day overlap")
	require.True(t, existing.Overlaps(sharedBoundary))

	adjacent := NewDateRange(date(2024, time.June, 10), date(2024, time.June, 13))
	require.False(t, adjacent.Overlaps(existing))
	require.False(t, existing.Overlaps(adjacent))

	contained := NewDateRange(date(2024, time.June, 15), date(2024, time.June, 16))
	require.True(t, contained.Overlaps(existing))
	require.True(t, existing.Overlaps(contained))
}

func TestDateRangeDays(t *testing.T) {
	r := NewDateRange(date(2024, time.June, 10), date(2024, time.June, 14))
	require.Equal(t, 5, r.Days())

	single := NewDateRange(date(2024, time.June, 10), date(2024, time.June, 10))
	require.Equal(t, 1, single.Days())

	require.Equal(t, 0, DateRange{}.Days())
}

func TestDateRangeValid(t *testing.T) {
	require.True(t, NewDateRange(date(2024, 1, 1), date(2024, 1, 1)).Valid())
	require.False(t, NewDateRange(date(2024, 1, 2), date(2024, 1, 1)).Valid())
	require.False(t, DateRange{Start: date(2024, 1, 1)}.Valid())
}

func TestDayTruncation(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 17, 45, 12, 0, time.UTC)
	require.Equal(t, date(2024, time.March, 5), Day(ts))
	require.True(t, SameDay(ts, date(2024, time.March, 5)))
	require.False(t, SameDay(ts, date(2024, time.March, 6)))
}
