package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
	}{
		{"14:30", TimeOfDay{14, 30}},
		{"7:05", TimeOfDay{7, 5}},
		{"00:00", TimeOfDay{0, 0}},
		{"2:30 PM", TimeOfDay{14, 30}},
		{"2:30 pm", TimeOfDay{14, 30}},
		{"12:00 AM", TimeOfDay{0, 0}},
		{"12:15 PM", TimeOfDay{12, 15}},
		{"11:59PM", TimeOfDay{23, 59}},
		{" 09:45 ", TimeOfDay{9, 45}},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseTimeOfDayRejectsUnknownShapes(t *testing.T) {
	for _, in := range []string{"", "abc", "24:00", "12:60", "0:30 AM", "13:00 PM", "9", "9:5", "9:30 XM"} {
		_, err := ParseTimeOfDay(in)
		assert.ErrorIs(t, err, ErrInvalidTime, in)
	}
}

func TestTimeOfDayRoundTrip(t *testing.T) {
	parsed, err := ParseTimeOfDay("2:30 PM")
	require.NoError(t, err)
	assert.Equal(t, "2:30 PM", parsed.String())

	h24, err := ParseTimeOfDay("14:30")
	require.NoError(t, err)
	assert.Equal(t, parsed, h24)

	for _, in := range []string{"0:00", "12:00", "23:59", "6:07 am", "12:30 AM"} {
		first, err := ParseTimeOfDay(in)
		require.NoError(t, err)
		second, err := ParseTimeOfDay(first.String())
		require.NoError(t, err)
		assert.Equal(t, first, second, in)
	}
}

func TestTimeOfDayOnAndDisplay(t *testing.T) {
	day := time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC)
	at := TimeOfDay{Hour: 7, Minute: 30}.On(day)
	assert.Equal(t, time.Date(2025, 3, 4, 7, 30, 0, 0, time.UTC), at)
	assert.Equal(t, "07:30", TimeOfDay{Hour: 7, Minute: 30}.Canonical())
	assert.Equal(t, "7:30 AM", DisplayTime("07:30"))
	assert.Equal(t, "whenever", DisplayTime("whenever"))
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays("fri, mon,wed")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, days)
	assert.Equal(t, "Mon,Wed,Fri", FormatWeekdays(days))

	all, err := ParseWeekdays("daily")
	require.NoError(t, err)
	assert.Len(t, all, 7)
	assert.Equal(t, "daily", FormatWeekdays(all))

	_, err = ParseWeekdays("someday")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
	_, err = ParseWeekdays(" , ")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}

func TestValidateWeekdays(t *testing.T) {
	assert.NoError(t, ValidateWeekdays([]time.Weekday{time.Sunday, time.Saturday}))
	assert.ErrorIs(t, ValidateWeekdays(nil), ErrInvalidWeekday)
	assert.ErrorIs(t, ValidateWeekdays([]time.Weekday{time.Monday, time.Monday}), ErrInvalidWeekday)
	assert.ErrorIs(t, ValidateWeekdays([]time.Weekday{7}), ErrInvalidWeekday)
}
