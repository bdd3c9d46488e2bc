package model

import (
	"sort"
	"time"
)

type ItemKind string

const (
	ItemGoal ItemKind = "goal"
	ItemTask ItemKind = "task"
)

// ScheduleItem is the per-day projection of a goal or task shown by the UI.
type ScheduleItem struct {
	ID            string
	Kind          ItemKind
	SourceID      string
	Title         string
	Description   string
	ScheduledTime string
	IsCompleted   bool
	IsReminder    bool
}

// DayItems merges active goals due on day with tasks dated day. Items are ordered by
// time of day; items without a parseable time go last. Ties keep goals-then-tasks input order.
func DayItems(day time.Time, goals []Goal, tasks []ScheduleTask) []ScheduleItem {
	items := make([]ScheduleItem, 0, len(goals)+len(tasks))
	for _, g := range goals {
		if !g.IsActive || !g.IsDueOn(day) {
			continue
		}
		items = append(items, ScheduleItem{
			ID:            "goal-" + g.ID,
			Kind:          ItemGoal,
			SourceID:      g.ID,
			Title:         g.Title,
			Description:   g.Description,
			ScheduledTime: g.ScheduledTime,
			IsCompleted:   g.CompletedOn(day),
			IsReminder:    g.ScheduledTime != "",
		})
	}
	for _, t := range tasks {
		if !t.IsOn(day) {
			continue
		}
		items = append(items, ScheduleItem{
			ID:            "task-" + t.ID,
			Kind:          ItemTask,
			SourceID:      t.ID,
			Title:         t.Title,
			Description:   t.Description,
			ScheduledTime: t.ScheduledTime,
			IsCompleted:   t.IsCompleted,
			IsReminder:    t.IsReminder,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, aok := sortMinutes(items[i].ScheduledTime)
		b, bok := sortMinutes(items[j].ScheduledTime)
		switch {
		case aok && bok:
			return a < b
		case aok:
			return true
		default:
			return false
		}
	})
	return items
}

func sortMinutes(raw string) (int, bool) {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		return 0, false
	}
	return t.Minutes(), true
}
