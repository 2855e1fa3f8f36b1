package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []string{"", "2024-2-01", "2023-02-29", "2024-13-01", "2024-00-10", "2024-04-31", "abcd-ef-gh", "2024/01/01"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidDateKey, "key %q", bad)
	}
}

func TestDayIndex_AcrossDST(t *testing.T) {
	// America/New_York springs forward on 2024-03-10; the wall-clock day is 23h long.
	idx, err := DayIndex("2024-03-01", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 15, idx)

	// Fall back on 2024-11-03 (25h day).
	idx, err = DayIndex("2024-10-20", "2024-11-16")
	require.NoError(t, err)
	assert.Equal(t, 28, idx)

	// Consecutive days around the transition.
	idx, err = DayIndex("2024-03-10", "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestDayIndex_EdgeValues(t *testing.T) {
	cases := []struct {
		start, key string
		want       int
	}{
		{"2024-01-01", "2024-01-01", 1},
		{"2024-01-01", "2024-01-28", 28},
		{"2024-01-01", "2024-01-29", 29},
		{"2024-01-02", "2024-01-01", 0},
		{"2024-01-10", "2024-01-01", -8},
		{"2023-12-31", "2024-01-01", 2},
		{"2024-02-28", "2024-03-01", 3},
		{"2023-02-28", "2023-03-01", 2},
		{"1999-12-31", "2000-03-01", 62},
	}
	for _, tc := range cases {
		got, err := DayIndex(tc.start, tc.key)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s → %s", tc.start, tc.key)
	}
}

func TestDayIndex_InvalidKeys(t *testing.T) {
	_, err := DayIndex("2024-01-01", "nope")
	assert.ErrorIs(t, err, ErrInvalidDateKey)
	_, err = DayIndex("bad", "2024-01-01")
	assert.ErrorIs(t, err, ErrInvalidDateKey)
}

func TestPeekDayIndex(t *testing.T) {
	idx, err := PeekDayIndex(nil, "2024-05-05")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	empty := ""
	idx, err = PeekDayIndex(&empty, "2024-05-05")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	start := "2024-05-01"
	idx, err = PeekDayIndex(&start, "2024-05-05")
	require.NoError(t, err)
	assert.Equal(t, 5, idx)
}

func TestAddDaysAndNext(t *testing.T) {
	cases := []struct {
		key  string
		n    int
		want string
	}{
		{"2024-01-31", 1, "2024-02-01"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2023-02-28", 1, "2023-03-01"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2024-01-01", 27, "2024-01-28"},
		{"2024-03-09", 2, "2024-03-11"},
	}
	for _, tc := range cases {
		got, err := AddDays(tc.key, tc.n)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	next, err := Next("2024-11-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-03", next)
}

func TestAddDays_RoundTripsOverLongSpan(t *testing.T) {
	key := "1969-12-25"
	for i := 0; i < 3000; i++ {
		nxt, err := Next(key)
		require.NoError(t, err)
		n, err := DaysBetween(key, nxt)
		require.NoError(t, err)
		require.Equal(t, 1, n, "after %s", key)
		key = nxt
	}
}

func TestToday_UsesZoneCalendarFields(t *testing.T) {
	// 2024-03-10T03:30Z is still March 9 in New York and already March 10 in Shanghai.
	now := time.Date(2024, 3, 10, 3, 30, 0, 0, time.UTC)

	ny, err := Today("America/New_York", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", ny)

	sh, err := Today("Asia/Shanghai", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", sh)

	_, err = Today("Mars/Olympus", now)
	assert.ErrorIs(t, err, ErrInvalidTimezone)
	_, err = Today("", now)
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestClampAndInRange(t *testing.T) {
	assert.Equal(t, 1, Clamp(-3))
	assert.Equal(t, 1, Clamp(0))
	assert.Equal(t, 14, Clamp(14))
	assert.Equal(t, 28, Clamp(40))
	assert.True(t, InRange(1))
	assert.True(t, InRange(28))
	assert.False(t, InRange(0))
	assert.False(t, InRange(29))
}
