package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidRecurrence    = errors.New("model: invalid recurrence")
	ErrInvalidDurationWeeks = errors.New("model: invalid recurrence duration")
)

// TaskTemplate holds the fields copied onto every instance of a series.
type TaskTemplate struct {
	Title           string
	Description     string
	ScheduledTime   string
	IsReminder      bool
	ReminderMinutes int
}

// SeriesRequest is a single create action. DurationWeeks and SelectedWeekDays are
// ignored for RecurrenceNone.
type SeriesRequest struct {
	Template         TaskTemplate
	Anchor           time.Time
	Recurrence       Recurrence
	DurationWeeks    int
	SelectedWeekDays []time.Weekday
}

func (r SeriesRequest) Validate() error {
	if strings.TrimSpace(r.Template.Title) == "" {
		return errors.New("model: task title is required")
	}
	if r.Anchor.IsZero() {
		return errors.New("model: recurrence anchor is required")
	}
	if r.Template.ReminderMinutes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidReminderMinutes, r.Template.ReminderMinutes)
	}
	switch r.Recurrence {
	case RecurrenceNone, "":
		return nil
	case RecurrenceDaily:
	case RecurrenceWeekly:
		if err := ValidateWeekdays(r.SelectedWeekDays); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, r.Recurrence)
	}
	if r.DurationWeeks <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDurationWeeks, r.DurationWeeks)
	}
	return nil
}

// Series is the outcome of an expansion. Candidates counts every generated date before
// past-date filtering, so Dropped reports how many fell before today.
type Series struct {
	Tasks      []ScheduleTask
	Candidates int
	EndDate    *time.Time
}

func (s Series) Dropped() int {
	return s.Candidates - len(s.Tasks)
}

// Empty is true when every candidate was in the past. It is a valid outcome.
func (s Series) Empty() bool {
	return len(s.Tasks) == 0
}

// Expand materialises the request into independent dated tasks. Candidates dated strictly
// before today's midnight are dropped. newID defaults to uuid.NewString.
func (r SeriesRequest) Expand(now time.Time, newID func() string) (Series, error) {
	if err := r.Validate(); err != nil {
		return Series{}, err
	}
	if newID == nil {
		newID = uuid.NewString
	}

	anchor := DayStart(r.Anchor)
	today := DayStart(now.In(anchor.Location()))
	recurrence := r.Recurrence
	if recurrence == "" {
		recurrence = RecurrenceNone
	}

	var dates []time.Time
	var end *time.Time
	switch recurrence {
	case RecurrenceNone:
		dates = []time.Time{anchor}
	case RecurrenceDaily, RecurrenceWeekly:
		window := r.DurationWeeks * 7
		last := anchor.AddDate(0, 0, window-1)
		end = &last
		for i := 0; i < window; i++ {
			day := anchor.AddDate(0, 0, i)
			if recurrence == RecurrenceWeekly && !containsWeekday(r.SelectedWeekDays, day.Weekday()) {
				continue
			}
			dates = append(dates, day)
		}
	}

	series := Series{Candidates: len(dates), EndDate: end, Tasks: make([]ScheduleTask, 0, len(dates))}
	for _, day := range dates {
		if day.Before(today) {
			continue
		}
		task := ScheduleTask{
			ID:              newID(),
			Title:           strings.TrimSpace(r.Template.Title),
			Description:     r.Template.Description,
			Date:            day,
			ScheduledTime:   r.Template.ScheduledTime,
			IsReminder:      r.Template.IsReminder,
			ReminderMinutes: r.Template.ReminderMinutes,
			Recurrence:      recurrence,
			CreatedAt:       now,
		}
		if end != nil {
			e := *end
			task.RecurrenceEndDate = &e
		}
		if recurrence == RecurrenceWeekly {
			task.SelectedWeekDays = append([]time.Weekday(nil), r.SelectedWeekDays...)
		}
		series.Tasks = append(series.Tasks, task)
	}
	return series, nil
}
