package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
	"go.uber.org/zap"
)

// SeriesResult reports a create action. Created may be empty when every occurrence was
// in the past; that is not an error.
type SeriesResult struct {
	Created []model.ScheduleTask
	Dropped int
	EndDate *time.Time
}

func (r SeriesResult) Empty() bool {
	return len(r.Created) == 0
}

// Message is the user-facing summary of the batch.
func (r SeriesResult) Message() string {
	switch {
	case r.Empty():
		return "All occurrences were in the past; nothing was added."
	case r.Dropped > 0:
		return fmt.Sprintf("%s added, %d past skipped.", plural(len(r.Created), "task"), r.Dropped)
	default:
		return plural(len(r.Created), "task") + " added."
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// CreateTaskSeries expands req and stores every surviving instance in one write.
func (s *Service) CreateTaskSeries(ctx context.Context, req model.SeriesRequest, now time.Time) (SeriesResult, error) {
	if strings.TrimSpace(req.Template.ScheduledTime) != "" {
		tod, err := model.ParseTimeOfDay(req.Template.ScheduledTime)
		if err != nil {
			return SeriesResult{}, err
		}
		req.Template.ScheduledTime = tod.Canonical()
	}
	series, err := req.Expand(now, s.newID)
	if err != nil {
		return SeriesResult{}, err
	}
	result := SeriesResult{Created: series.Tasks, Dropped: series.Dropped(), EndDate: series.EndDate}
	if series.Empty() {
		s.logger.Info("task series empty", zap.Int("dropped", result.Dropped))
		return result, nil
	}
	if err := s.store.AddTasks(ctx, series.Tasks); err != nil {
		return SeriesResult{}, err
	}
	s.logger.Info("task series created",
		zap.String("recurrence", string(req.Recurrence)),
		zap.Int("created", len(series.Tasks)),
		zap.Int("dropped", result.Dropped),
	)
	s.changed()
	return result, nil
}

type TaskEdit struct {
	Title           *string
	Description     *string
	ScheduledTime   *string
	IsReminder      *bool
	ReminderMinutes *int
}

// UpdateTask edits one instance. Id, date and series fields are kept; siblings are
// never touched.
func (s *Service) UpdateTask(ctx context.Context, id string, edit TaskEdit) (model.ScheduleTask, error) {
	task, err := s.task(ctx, id)
	if err != nil {
		return model.ScheduleTask{}, err
	}
	if edit.Title != nil {
		task.Title = strings.TrimSpace(*edit.Title)
	}
	if edit.Description != nil {
		task.Description = strings.TrimSpace(*edit.Description)
	}
	if edit.ScheduledTime != nil {
		task.ScheduledTime = ""
		if strings.TrimSpace(*edit.ScheduledTime) != "" {
			tod, err := model.ParseTimeOfDay(*edit.ScheduledTime)
			if err != nil {
				return model.ScheduleTask{}, err
			}
			task.ScheduledTime = tod.Canonical()
		}
	}
	if edit.IsReminder != nil {
		task.IsReminder = *edit.IsReminder
	}
	if edit.ReminderMinutes != nil {
		task.ReminderMinutes = *edit.ReminderMinutes
	}
	if err := task.Validate(); err != nil {
		return model.ScheduleTask{}, err
	}
	if err := s.store.UpsertTask(ctx, task); err != nil {
		return model.ScheduleTask{}, err
	}
	s.changed()
	return task, nil
}

func (s *Service) ToggleTask(ctx context.Context, id string) (model.ScheduleTask, error) {
	task, err := s.task(ctx, id)
	if err != nil {
		return model.ScheduleTask{}, err
	}
	task.IsCompleted = !task.IsCompleted
	if err := s.store.UpsertTask(ctx, task); err != nil {
		return model.ScheduleTask{}, err
	}
	s.changed()
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.changed()
	return nil
}

// Tasks lists tasks dated on day.
func (s *Service) Tasks(ctx context.Context, day time.Time) ([]model.ScheduleTask, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ScheduleTask, 0)
	for _, t := range tasks {
		if t.IsOn(day) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Day merges goals and tasks for day.
func (s *Service) Day(ctx context.Context, day time.Time) ([]model.ScheduleItem, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return model.DayItems(day, goals, tasks), nil
}

// PruneTasks removes tasks dated more than TaskRetentionDays before now.
func (s *Service) PruneTasks(ctx context.Context, now time.Time) (int, error) {
	removed, err := s.store.PruneTasksBefore(ctx, now.AddDate(0, 0, -s.cfg.TaskRetentionDays))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("old tasks pruned", zap.Int("removed", removed))
	}
	return removed, nil
}

func (s *Service) task(ctx context.Context, id string) (model.ScheduleTask, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return model.ScheduleTask{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.ScheduleTask{}, ErrNotFound
}
