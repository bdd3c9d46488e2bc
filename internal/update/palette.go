package update

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/habitd/internal/commands"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/planner"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
		return m, nil
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

// RunCommand parses and executes one palette line against the model.
func (m Model) RunCommand(line string) Model {
	m.Palette.Input = line
	return m.executePaletteCommand()
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.fail(err)
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Goal: func(a commands.GoalArgs) (commands.Result, error) {
			goal, err := m.deps.Planner.CreateGoal(m.ctx(), planner.GoalInput{
				Title:         a.Title,
				Description:   a.Description,
				SelectedDays:  a.Days,
				Duration:      a.Duration,
				ScheduledTime: a.Time,
			}, m.now())
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("goal added: %s (%s)", goal.Title, short(goal.ID))}, nil
		},
		Task: func(a commands.TaskArgs) (commands.Result, error) {
			day, err := commands.ResolveDate(a.On, m.now())
			if err != nil {
				return commands.Result{}, err
			}
			res, err := m.deps.Planner.CreateTaskSeries(m.ctx(), model.SeriesRequest{
				Template: model.TaskTemplate{
					Title:           a.Title,
					Description:     a.Description,
					ScheduledTime:   a.Time,
					IsReminder:      a.Remind,
					ReminderMinutes: a.RemindMinutes,
				},
				Anchor:           day,
				Recurrence:       a.Repeat,
				DurationWeeks:    a.Weeks,
				SelectedWeekDays: a.Days,
			}, m.now())
			if err != nil {
				return commands.Result{}, err
			}
			if !res.Empty() {
				m.Day = res.Created[0].Date
			}
			return commands.Result{Message: res.Message()}, nil
		},
		Done: func(a commands.TargetArgs) (commands.Result, error) {
			if task, ok := m.taskTarget(a.Target); ok {
				if task.IsCompleted {
					return commands.Result{Message: task.Title + " is already done"}, nil
				}
				if _, err := m.deps.Planner.ToggleTask(m.ctx(), task.SourceID); err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: "done: " + task.Title}, nil
			}
			id, err := m.goalTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			goal, changed, err := m.deps.Planner.MarkGoalComplete(m.ctx(), id, m.now())
			if err != nil {
				return commands.Result{}, err
			}
			if !changed {
				return commands.Result{Message: goal.Title + " already completed today"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("%s completed, streak %d", goal.Title, goal.Streak)}, nil
		},
		Toggle: func(a commands.TargetArgs) (commands.Result, error) {
			item, ok := m.taskTarget(a.Target)
			if !ok {
				return commands.Result{}, targetError("no task matches %q", a.Target)
			}
			task, err := m.deps.Planner.ToggleTask(m.ctx(), item.SourceID)
			if err != nil {
				return commands.Result{}, err
			}
			if task.IsCompleted {
				return commands.Result{Message: "done: " + task.Title}, nil
			}
			return commands.Result{Message: "reopened: " + task.Title}, nil
		},
		Delete: func(a commands.TargetArgs) (commands.Result, error) {
			if item, ok := m.taskTarget(a.Target); ok {
				if err := m.deps.Planner.DeleteTask(m.ctx(), item.SourceID); err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: "task deleted: " + item.Title}, nil
			}
			id, err := m.goalTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.deps.Planner.DeleteGoal(m.ctx(), id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "goal deleted: " + short(id)}, nil
		},
		Pause: func(a commands.TargetArgs) (commands.Result, error) {
			return m.setActiveByTarget(a.Target, false)
		},
		Resume: func(a commands.TargetArgs) (commands.Result, error) {
			return m.setActiveByTarget(a.Target, true)
		},
		Show: func(a commands.ShowArgs) (commands.Result, error) {
			return m.show(a.Subject)
		},
		Edit: func(a commands.EditArgs) (commands.Result, error) {
			return m.edit(a)
		},
	})
	if err != nil {
		m.fail(err)
		return m
	}
	m.LastError = nil
	m.reload()
	if m.LastError == nil {
		m.ok(res.Message)
	}
	return m
}

func (m *Model) setActiveByTarget(target string, active bool) (commands.Result, error) {
	id, err := m.goalTarget(target)
	if err != nil {
		return commands.Result{}, err
	}
	goal, err := m.deps.Planner.SetGoalActive(m.ctx(), id, active, m.now())
	if err != nil {
		return commands.Result{}, err
	}
	if active {
		return commands.Result{Message: "resumed: " + goal.Title}, nil
	}
	return commands.Result{Message: "paused: " + goal.Title}, nil
}

// edit applies an /edit to a task on the shown day when the target names one, otherwise
// to a goal.
func (m *Model) edit(a commands.EditArgs) (commands.Result, error) {
	if item, ok := m.taskTarget(a.Target); ok {
		if a.GoalOnly() {
			return commands.Result{}, targetError("days: and for: only apply to goals")
		}
		edit := planner.TaskEdit{Title: a.Title, Description: a.Description, ScheduledTime: a.Time, IsReminder: a.Remind}
		if a.RemindMinutes > 0 {
			edit.ReminderMinutes = &a.RemindMinutes
		}
		task, err := m.deps.Planner.UpdateTask(m.ctx(), item.SourceID, edit)
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: "task updated: " + task.Title}, nil
	}
	if a.TaskOnly() {
		return commands.Result{}, targetError("no task matches %q", a.Target)
	}

	id, err := m.goalTarget(a.Target)
	if err != nil {
		return commands.Result{}, err
	}
	current, err := m.findGoal(id)
	if err != nil {
		return commands.Result{}, err
	}
	in := planner.GoalInput{
		Title:         current.Title,
		Description:   current.Description,
		SelectedDays:  current.SelectedDays,
		Duration:      current.Duration,
		ScheduledTime: current.ScheduledTime,
	}
	if a.Title != nil {
		in.Title = *a.Title
	}
	if a.Description != nil {
		in.Description = *a.Description
	}
	if a.Time != nil {
		in.ScheduledTime = *a.Time
	}
	if len(a.Days) > 0 {
		in.SelectedDays = a.Days
	}
	if a.Duration > 0 {
		in.Duration = a.Duration
	}
	goal, err := m.deps.Planner.UpdateGoal(m.ctx(), id, in, m.now())
	if err != nil {
		return commands.Result{}, err
	}
	return commands.Result{Message: "goal updated: " + goal.Title}, nil
}

func (m Model) findGoal(id string) (model.Goal, error) {
	all, err := m.deps.Planner.Goals(m.ctx(), "", m.now())
	if err != nil {
		return model.Goal{}, err
	}
	for _, gv := range all {
		if gv.Goal.ID == id {
			return gv.Goal, nil
		}
	}
	return model.Goal{}, targetError("goal %s no longer exists", short(id))
}

func (m *Model) show(subject string) (commands.Result, error) {
	fields := strings.Fields(subject)
	switch fields[0] {
	case "goals":
		m.CurrentView = ViewGoals
		m.GoalFilter = ""
		if len(fields) > 1 {
			state := model.GoalState(fields[1])
			if fields[1] != "all" && !state.IsValid() {
				return commands.Result{}, targetError("unknown goal state %q", fields[1])
			}
			if state.IsValid() {
				m.GoalFilter = state
			}
		}
		return commands.Result{Message: "showing goals"}, nil
	case "reminders", "log":
		m.CurrentView = ViewReminders
		return commands.Result{Message: "showing reminders"}, nil
	}
	day, err := commands.ResolveDate(subject, m.now())
	if err != nil {
		return commands.Result{}, err
	}
	m.CurrentView = ViewToday
	m.Day = day
	return commands.Result{Message: "showing " + model.FormatDate(day)}, nil
}

// taskTarget resolves a row number in the Today list, or a task id prefix among the
// shown day's tasks.
func (m Model) taskTarget(target string) (model.ScheduleItem, bool) {
	if n, err := strconv.Atoi(target); err == nil {
		if m.CurrentView != ViewToday || n < 1 || n > len(m.Items) {
			return model.ScheduleItem{}, false
		}
		item := m.Items[n-1]
		return item, item.Kind == model.ItemTask
	}
	for _, item := range m.Items {
		if item.Kind == model.ItemTask && strings.HasPrefix(item.SourceID, target) {
			return item, true
		}
	}
	return model.ScheduleItem{}, false
}

// goalTarget resolves a row number in the current list, or a goal id prefix.
func (m Model) goalTarget(target string) (string, error) {
	if n, err := strconv.Atoi(target); err == nil {
		switch m.CurrentView {
		case ViewGoals:
			if n >= 1 && n <= len(m.Goals) {
				return m.Goals[n-1].Goal.ID, nil
			}
		case ViewToday:
			if n >= 1 && n <= len(m.Items) && m.Items[n-1].Kind == model.ItemGoal {
				return m.Items[n-1].SourceID, nil
			}
		}
		return "", targetError("row %d is not a goal", n)
	}
	all, err := m.deps.Planner.Goals(m.ctx(), "", m.now())
	if err != nil {
		return "", err
	}
	var match []string
	for _, gv := range all {
		if strings.HasPrefix(gv.Goal.ID, target) || strings.EqualFold(gv.Goal.Title, target) {
			match = append(match, gv.Goal.ID)
		}
	}
	switch len(match) {
	case 0:
		return "", targetError("no goal matches %q", target)
	case 1:
		return match[0], nil
	default:
		return "", targetError("%q matches %d goals", target, len(match))
	}
}

func targetError(format string, args ...any) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
