package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultReminderMinutes is the lead time used when a task does not set its own.
const DefaultReminderMinutes = 60

var ErrInvalidReminderMinutes = errors.New("model: invalid reminder minutes")

// ScheduleTask is one dated occurrence. Instances of a recurring series are independent
// records that only share RecurrenceEndDate and the template fields.
type ScheduleTask struct {
	ID                string
	Title             string
	Description       string
	Date              time.Time
	ScheduledTime     string
	IsReminder        bool
	ReminderMinutes   int
	IsCompleted       bool
	Recurrence        Recurrence
	RecurrenceEndDate *time.Time
	SelectedWeekDays  []time.Weekday
	CreatedAt         time.Time
}

func (t ScheduleTask) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if t.Date.IsZero() {
		return errors.New("model: task date is required")
	}
	if t.Recurrence != "" && !t.Recurrence.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, t.Recurrence)
	}
	if t.ReminderMinutes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidReminderMinutes, t.ReminderMinutes)
	}
	if t.Recurrence == RecurrenceWeekly {
		if err := ValidateWeekdays(t.SelectedWeekDays); err != nil {
			return err
		}
	}
	return nil
}

// LeadMinutes returns ReminderMinutes, or fallback when unset.
func (t ScheduleTask) LeadMinutes(fallback int) int {
	if t.ReminderMinutes > 0 {
		return t.ReminderMinutes
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultReminderMinutes
}

func (t ScheduleTask) IsOn(day time.Time) bool {
	return SameDay(t.Date, day)
}

// IsRecurring reports whether the task was produced by a daily or weekly series.
func (t ScheduleTask) IsRecurring() bool {
	return t.Recurrence == RecurrenceDaily || t.Recurrence == RecurrenceWeekly
}
