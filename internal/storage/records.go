package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sandeepkv93/habitd/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("recurrence", func(fl validator.FieldLevel) bool {
			return model.Recurrence(fl.Field().String()).IsValid()
		})
		_ = validate.RegisterValidation("goalstate", func(fl validator.FieldLevel) bool {
			return model.GoalState(fl.Field().String()).IsValid()
		})
	})
	return validate
}

func validateRecord(rec any) error {
	err := recordValidator().Struct(rec)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		joined := errors.New("storage: invalid record")
		for _, fieldErr := range fieldErrs {
			joined = errors.Join(joined, fieldErr)
		}
		return joined
	}
	return fmt.Errorf("storage: validate record: %w", err)
}

type goalRecord struct {
	ID             string      `json:"id" validate:"required"`
	Title          string      `json:"title" validate:"required"`
	Description    string      `json:"description,omitempty"`
	SelectedDays   []int       `json:"selectedDays" validate:"required,min=1,max=7,unique,dive,min=0,max=6"`
	Duration       int         `json:"duration" validate:"gt=0"`
	ScheduledTime  string      `json:"scheduledTime,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	CompletedDates []time.Time `json:"completedDates"`
	Streak         int         `json:"streak" validate:"min=0"`
	IsActive       bool        `json:"isActive"`
	State          string      `json:"state,omitempty" validate:"omitempty,goalstate"`
}

type taskRecord struct {
	ID                string    `json:"id" validate:"required"`
	Title             string    `json:"title" validate:"required"`
	Description       string    `json:"description,omitempty"`
	Date              string    `json:"date" validate:"required,datetime=2006-01-02"`
	ScheduledTime     string    `json:"scheduledTime"`
	IsReminder        bool      `json:"isReminder"`
	ReminderMinutes   int       `json:"reminderMinutes,omitempty" validate:"min=0"`
	IsCompleted       bool      `json:"isCompleted"`
	Recurrence        string    `json:"recurrence,omitempty" validate:"omitempty,recurrence"`
	RecurrenceEndDate string    `json:"recurrenceEndDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SelectedWeekDays  []int     `json:"selectedWeekDays,omitempty" validate:"omitempty,max=7,unique,dive,min=0,max=6"`
	CreatedAt         time.Time `json:"createdAt"`
}

func goalFromRecord(rec goalRecord, loc *time.Location) (model.Goal, error) {
	if err := validateRecord(rec); err != nil {
		return model.Goal{}, err
	}
	if rec.CreatedAt.IsZero() {
		return model.Goal{}, errors.New("storage: goal createdAt is required")
	}
	out := model.Goal{
		ID:             rec.ID,
		Title:          rec.Title,
		Description:    rec.Description,
		SelectedDays:   toWeekdays(rec.SelectedDays),
		Duration:       rec.Duration,
		ScheduledTime:  rec.ScheduledTime,
		CreatedAt:      rec.CreatedAt.In(loc),
		CompletedDates: make([]time.Time, 0, len(rec.CompletedDates)),
		Streak:         rec.Streak,
		IsActive:       rec.IsActive,
		State:          model.GoalState(rec.State),
	}
	for _, done := range rec.CompletedDates {
		if done.IsZero() {
			continue
		}
		out.CompletedDates = append(out.CompletedDates, done.In(loc))
	}
	return out, out.Validate()
}

func goalToRecord(g model.Goal) goalRecord {
	completed := g.CompletedDates
	if completed == nil {
		completed = []time.Time{}
	}
	return goalRecord{
		ID:             g.ID,
		Title:          g.Title,
		Description:    g.Description,
		SelectedDays:   fromWeekdays(g.SelectedDays),
		Duration:       g.Duration,
		ScheduledTime:  g.ScheduledTime,
		CreatedAt:      g.CreatedAt,
		CompletedDates: completed,
		Streak:         g.Streak,
		IsActive:       g.IsActive,
		State:          string(g.State),
	}
}

func taskFromRecord(rec taskRecord, loc *time.Location) (model.ScheduleTask, error) {
	if err := validateRecord(rec); err != nil {
		return model.ScheduleTask{}, err
	}
	date, err := model.ParseDate(rec.Date, loc)
	if err != nil {
		return model.ScheduleTask{}, fmt.Errorf("storage: task date: %w", err)
	}
	out := model.ScheduleTask{
		ID:               rec.ID,
		Title:            rec.Title,
		Description:      rec.Description,
		Date:             date,
		ScheduledTime:    rec.ScheduledTime,
		IsReminder:       rec.IsReminder,
		ReminderMinutes:  rec.ReminderMinutes,
		IsCompleted:      rec.IsCompleted,
		Recurrence:       model.Recurrence(rec.Recurrence),
		SelectedWeekDays: toWeekdays(rec.SelectedWeekDays),
		CreatedAt:        rec.CreatedAt.In(loc),
	}
	if rec.RecurrenceEndDate != "" {
		end, endErr := model.ParseDate(rec.RecurrenceEndDate, loc)
		if endErr != nil {
			return model.ScheduleTask{}, fmt.Errorf("storage: task recurrenceEndDate: %w", endErr)
		}
		out.RecurrenceEndDate = &end
	}
	return out, out.Validate()
}

func taskToRecord(t model.ScheduleTask) taskRecord {
	rec := taskRecord{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Date:             model.FormatDate(t.Date),
		ScheduledTime:    t.ScheduledTime,
		IsReminder:       t.IsReminder,
		ReminderMinutes:  t.ReminderMinutes,
		IsCompleted:      t.IsCompleted,
		SelectedWeekDays: fromWeekdays(t.SelectedWeekDays),
		CreatedAt:        t.CreatedAt,
	}
	if t.Recurrence != "" {
		rec.Recurrence = string(t.Recurrence)
	}
	if t.RecurrenceEndDate != nil {
		rec.RecurrenceEndDate = model.FormatDate(*t.RecurrenceEndDate)
	}
	return rec
}

func toWeekdays(in []int) []time.Weekday {
	if len(in) == 0 {
		return nil
	}
	out := make([]time.Weekday, 0, len(in))
	for _, d := range in {
		out = append(out, time.Weekday(d))
	}
	return out
}

func fromWeekdays(in []time.Weekday) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, 0, len(in))
	for _, d := range in {
		out = append(out, int(d))
	}
	return out
}
