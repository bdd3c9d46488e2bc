package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesRequest(recurrence Recurrence, anchor time.Time, weeks int, days ...time.Weekday) SeriesRequest {
	return SeriesRequest{
		Template: TaskTemplate{
			Title:           "Dentist",
			ScheduledTime:   "15:00",
			IsReminder:      true,
			ReminderMinutes: 30,
		},
		Anchor:           anchor,
		Recurrence:       recurrence,
		DurationWeeks:    weeks,
		SelectedWeekDays: days,
	}
}

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func TestExpandDailyTwoWeeks(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	series, err := seriesRequest(RecurrenceDaily, now, 2).Expand(now, counterIDs())
	require.NoError(t, err)

	require.Len(t, series.Tasks, 14)
	assert.Equal(t, 0, series.Dropped())
	require.NotNil(t, series.EndDate)
	assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), *series.EndDate)

	for i, task := range series.Tasks {
		assert.Equal(t, DayStart(now).AddDate(0, 0, i), task.Date)
		assert.Equal(t, *series.EndDate, *task.RecurrenceEndDate)
		assert.Equal(t, RecurrenceDaily, task.Recurrence)
		assert.Equal(t, 30, task.ReminderMinutes)
	}
}

func TestExpandWeeklySelectedDays(t *testing.T) {
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	req := seriesRequest(RecurrenceWeekly, monday, 4, time.Monday, time.Wednesday)
	series, err := req.Expand(monday, counterIDs())
	require.NoError(t, err)

	require.Len(t, series.Tasks, 8)
	for _, task := range series.Tasks {
		assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, task.Date.Weekday())
		assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, task.SelectedWeekDays)
	}
	assert.Equal(t, monday.AddDate(0, 0, 27), *series.EndDate)
}

func TestExpandDropsPastInstances(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	anchor := now.AddDate(0, 0, -3)
	series, err := seriesRequest(RecurrenceDaily, anchor, 1).Expand(now, counterIDs())
	require.NoError(t, err)

	assert.Equal(t, 7, series.Candidates)
	assert.Len(t, series.Tasks, 4)
	assert.Equal(t, 3, series.Dropped())
	assert.Equal(t, DayStart(now), series.Tasks[0].Date)
}

func TestExpandAllPastIsNotAnError(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	series, err := seriesRequest(RecurrenceNone, now.AddDate(0, 0, -1), 0).Expand(now, nil)
	require.NoError(t, err)
	assert.True(t, series.Empty())
	assert.Equal(t, 1, series.Dropped())
	assert.Nil(t, series.EndDate)
}

func TestExpandSingleToday(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	series, err := seriesRequest(RecurrenceNone, now, 0).Expand(now, nil)
	require.NoError(t, err)
	require.Len(t, series.Tasks, 1)
	assert.Nil(t, series.Tasks[0].RecurrenceEndDate)
	assert.NotEmpty(t, series.Tasks[0].ID)
}

func TestExpandDefaultIDsAreUnique(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	series, err := seriesRequest(RecurrenceDaily, now, 8).Expand(now, nil)
	require.NoError(t, err)

	seen := make(map[string]bool, len(series.Tasks))
	for _, task := range series.Tasks {
		require.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
	assert.Len(t, seen, 56)
}

func TestSeriesRequestValidate(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	_, err := seriesRequest(RecurrenceWeekly, now, 2).Expand(now, nil)
	assert.ErrorIs(t, err, ErrInvalidWeekday)

	_, err = seriesRequest("monthly", now, 2).Expand(now, nil)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	_, err = seriesRequest(RecurrenceDaily, now, 0).Expand(now, nil)
	assert.ErrorIs(t, err, ErrInvalidDurationWeeks)

	req := seriesRequest(RecurrenceNone, now, 0)
	req.Template.Title = "  "
	_, err = req.Expand(now, nil)
	assert.Error(t, err)
}
