package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in   string
		want Type
	}{
		{"/goal Exercise days:mon,wed,fri for:60 at:7:30 AM", TypeGoal},
		{"task Dentist on:tomorrow at:15:00 remind:30", TypeTask},
		{"/done 2", TypeDone},
		{"/toggle 3", TypeToggle},
		{"/delete abc123", TypeDelete},
		{"/pause 1", TypePause},
		{"/resume 1", TypeResume},
		{"show goals", TypeShow},
		{"/edit 1 title:Walk", TypeEdit},
	}
	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, cmd.Type, tc.in)
	}
}

func TestParseGoal(t *testing.T) {
	cmd, err := Parse("/goal Morning run days:mon,wed,fri for:60d at:7:30 am")
	require.NoError(t, err)
	require.NotNil(t, cmd.Goal)
	assert.Equal(t, "Morning run", cmd.Goal.Title)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, cmd.Goal.Days)
	assert.Equal(t, 60, cmd.Goal.Duration)
	assert.Equal(t, "07:30", cmd.Goal.Time)

	cmd, err = Parse("/goal Read")
	require.NoError(t, err)
	assert.Len(t, cmd.Goal.Days, 7)
	assert.Equal(t, 30, cmd.Goal.Duration)
	assert.Empty(t, cmd.Goal.Time)
}

func TestParseTask(t *testing.T) {
	cmd, err := Parse("/task Team sync on:2025-03-04 at:3:00 PM remind:15 repeat:weekly weeks:4 days:tue,thu")
	require.NoError(t, err)
	require.NotNil(t, cmd.Task)
	args := *cmd.Task
	assert.Equal(t, "Team sync", args.Title)
	assert.Equal(t, "2025-03-04", args.On)
	assert.Equal(t, "15:00", args.Time)
	assert.True(t, args.Remind)
	assert.Equal(t, 15, args.RemindMinutes)
	assert.Equal(t, model.RecurrenceWeekly, args.Repeat)
	assert.Equal(t, 4, args.Weeks)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Thursday}, args.Days)

	cmd, err = Parse("/task Call mom at:18:00 remind:on repeat:daily")
	require.NoError(t, err)
	assert.Equal(t, "today", cmd.Task.On)
	assert.Equal(t, 1, cmd.Task.Weeks)
	assert.Equal(t, 0, cmd.Task.RemindMinutes)
	assert.True(t, cmd.Task.Remind)
}

func TestParseDescriptions(t *testing.T) {
	cmd, err := Parse("/goal Run days:mon,fri desc:Warm up first at:7:00 AM")
	require.NoError(t, err)
	assert.Equal(t, "Run", cmd.Goal.Title)
	assert.Equal(t, "Warm up first", cmd.Goal.Description)
	assert.Equal(t, "07:00", cmd.Goal.Time)

	cmd, err = Parse("/task Dentist at:3:00 PM desc:Bring the insurance card")
	require.NoError(t, err)
	assert.Equal(t, "Dentist", cmd.Task.Title)
	assert.Equal(t, "Bring the insurance card", cmd.Task.Description)
}

func TestParseEdit(t *testing.T) {
	cmd, err := Parse("/edit 2 title:Morning run at:6:45 am days:weekdays for:90 desc:Easy pace")
	require.NoError(t, err)
	require.NotNil(t, cmd.Edit)
	args := *cmd.Edit
	assert.Equal(t, "2", args.Target)
	require.NotNil(t, args.Title)
	assert.Equal(t, "Morning run", *args.Title)
	require.NotNil(t, args.Time)
	assert.Equal(t, "06:45", *args.Time)
	assert.Len(t, args.Days, 5)
	assert.Equal(t, 90, args.Duration)
	require.NotNil(t, args.Description)
	assert.Equal(t, "Easy pace", *args.Description)
	assert.True(t, args.GoalOnly())
	assert.False(t, args.TaskOnly())

	cmd, err = Parse("/edit abc desc:- at:none remind:15")
	require.NoError(t, err)
	args = *cmd.Edit
	assert.Nil(t, args.Title)
	assert.Equal(t, "", *args.Description)
	assert.Equal(t, "", *args.Time)
	require.NotNil(t, args.Remind)
	assert.True(t, *args.Remind)
	assert.Equal(t, 15, args.RemindMinutes)
	assert.True(t, args.TaskOnly())
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{
		"/goal",
		"/goal Run days:someday",
		"/goal Run for:-3",
		"/goal Run at:25:00",
		"/task",
		"/task Call remind:30",
		"/task Call at:9:00 repeat:monthly",
		"/task Call repeat:weekly",
		"/task Call repeat:daily weeks:0",
		"/done",
		"/done 1 2",
		"/show",
		"/task Call on:",
		"/edit",
		"/edit 1",
		"/edit 1 stray words",
		"/edit 1 at:noon",
		"/edit 1 for:0",
		"/edit 1 days:mon remind:30",
		"/edit 1 title:",
	} {
		_, err := Parse(in)
		var ce *CommandError
		require.True(t, errors.As(err, &ce), in)
		assert.Equal(t, ErrCodeInvalidArgument, ce.Code, in)
	}
}

func TestParseUnknownAndEmpty(t *testing.T) {
	_, err := Parse("/unknown do x")
	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeUnknownCommand, ce.Code)

	_, err = Parse(" / ")
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrCodeEmptyInput, ce.Code)
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/done 2")
	require.NoError(t, err)

	called := false
	res, err := Execute(cmd, Handlers{
		Done: func(a TargetArgs) (Result, error) {
			called = true
			assert.Equal(t, "2", a.Target)
			return Result{Message: "ok"}, nil
		},
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", res.Message)
}

func TestExecuteHandlerMissing(t *testing.T) {
	for _, in := range []string{"/pause 1", "/edit 1 title:Walk"} {
		cmd, err := Parse(in)
		require.NoError(t, err, in)
		_, err = Execute(cmd, Handlers{})
		var ce *CommandError
		require.True(t, errors.As(err, &ce), in)
		assert.Equal(t, ErrCodeHandlerMissing, ce.Code, in)
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC) // Tuesday
	cases := map[string]time.Time{
		"today":      time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		"tomorrow":   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		"tue":        time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		"monday":     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		"2025-04-01": time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ResolveDate(in, now)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	_, err := ResolveDate("someday", now)
	assert.Error(t, err)
}
