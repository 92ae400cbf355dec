package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clinicHours(t *testing.T) WorkingHours {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	return DefaultWorkingHours(loc)
}

func TestParseClockTime(t *testing.T) {
	ct, err := ParseClockTime("08:30")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 8, Minute: 30}, ct)
	assert.Equal(t, "08:30", ct.String())

	_, err = ParseClockTime("25:00")
	require.Error(t, err)
}

func TestWorkingHours_Contains(t *testing.T) {
	h := clinicHours(t)
	at := func(hour, min int) time.Time {
		return time.Date(2025, 3, 10, hour, min, 0, 0, h.Location)
	}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"first slot", at(8, 0), at(8, 30), true},
		{"before open", at(7, 30), at(8, 30), false},
		{"ends at lunch", at(11, 30), at(12, 0), true},
		{"crosses lunch", at(11, 30), at(12, 30), false},
		{"inside lunch", at(12, 0), at(12, 30), false},
		{"starts at lunch end", at(13, 0), at(13, 30), true},
		{"ends at close", at(16, 30), at(17, 0), true},
		{"past close", at(16, 30), at(17, 30), false},
		{"empty", at(9, 0), at(9, 0), false},
		{"reversed", at(10, 0), at(9, 0), false},
		{"next day", at(16, 30), at(16, 30).AddDate(0, 0, 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, h.Contains(tc.start, tc.end))
		})
	}
}

func TestWorkingHours_ContainsUTCInput(t *testing.T) {
	h := clinicHours(t)
	// 01:00 UTC = 08:00 в Хошимине (UTC+7).
	start := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	assert.True(t, h.Contains(start, start.Add(SlotDuration)))
	assert.False(t, h.Contains(start.Add(-SlotDuration), start))
}

func TestWorkingHours_SlotGrid(t *testing.T) {
	h := clinicHours(t)
	grid, err := h.SlotGrid(time.Date(2025, 3, 10, 15, 0, 0, 0, h.Location))
	require.NoError(t, err)

	// 08:00-12:00 и 13:00-17:00 по 30 минут.
	require.Len(t, grid, 16)
	assert.Equal(t, "08:00", grid[0].Start.Format("15:04"))
	assert.Equal(t, "11:30", grid[7].Start.Format("15:04"))
	assert.Equal(t, "13:00", grid[8].Start.Format("15:04"))
	assert.Equal(t, "16:30", grid[15].Start.Format("15:04"))
}

func TestWorkingHours_Validate(t *testing.T) {
	h := clinicHours(t)
	require.NoError(t, h.Validate())

	bad := h
	bad.Open = ClockTime{Hour: 18}
	require.ErrorIs(t, bad.Validate(), ErrInvalidWorkingHours)

	bad = h
	bad.Open = ClockTime{Hour: 8, Minute: 15}
	require.ErrorIs(t, bad.Validate(), ErrInvalidWorkingHours)

	bad = h
	bad.Location = nil
	require.ErrorIs(t, bad.Validate(), ErrInvalidWorkingHours)
}

func TestWorkingHours_DateAndParse(t *testing.T) {
	h := clinicHours(t)

	// 18:00 UTC 10 марта — уже 11 марта в Хошимине.
	d := h.Date(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-11", d.Format(DateLayout))

	parsed, err := h.ParseDate("2025-03-11")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(d))

	_, err = h.ParseDate("11/03/2025")
	require.Error(t, err)
}

func TestSlotsNeeded(t *testing.T) {
	cases := map[int]int{-5: 0, 0: 0, 1: 1, 30: 1, 31: 2, 60: 2, 90: 3, 91: 4}
	for minutes, want := range cases {
		assert.Equal(t, want, SlotsNeeded(minutes), "minutes=%d", minutes)
	}
}

func TestNextSlotBoundary_StrictlyAfter(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		now, want time.Time
	}{
		{time.Date(2025, 3, 10, 9, 0, 0, 0, loc), time.Date(2025, 3, 10, 9, 30, 0, 0, loc)},
		{time.Date(2025, 3, 10, 9, 0, 0, 1, loc), time.Date(2025, 3, 10, 9, 30, 0, 0, loc)},
		{time.Date(2025, 3, 10, 9, 29, 59, 0, loc), time.Date(2025, 3, 10, 9, 30, 0, 0, loc)},
		{time.Date(2025, 3, 10, 23, 45, 0, 0, loc), time.Date(2025, 3, 11, 0, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		assert.True(t, tc.want.Equal(NextSlotBoundary(tc.now)), "now=%s", tc.now)
	}
}

func TestWindowEnd(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.True(t, WindowEnd(start, 3).Equal(start.Add(90*time.Minute)))
}
