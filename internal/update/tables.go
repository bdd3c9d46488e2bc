package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/planner"
	"github.com/sandeepkv93/habitd/internal/views"
	"go.uber.org/zap"
)

func (m *Model) initBubbleComponents() {
	m.todayTable = table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Time", Width: 9},
			{Title: "Kind", Width: 5},
			{Title: "Title", Width: 30},
			{Title: "", Width: 5},
		}),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	m.goalsTable = table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Goal", Width: 20},
			{Title: "Days", Width: 12},
			{Title: "State", Width: 9},
			{Title: "Streak", Width: 6},
			{Title: "%", Width: 4},
		}),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 44

	m.tickSpinner = spinner.New()
	m.tickSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detailPane = viewport.New(46, 14)
}

// reload pulls the current day and goal list from the planner. Errors land in the
// status bar; the previous rows stay on screen.
func (m *Model) reload() {
	now := m.now()
	items, err := m.deps.Planner.Day(m.ctx(), m.Day)
	if err != nil {
		m.fail(fmt.Errorf("load day: %w", err))
		return
	}
	all, err := m.deps.Planner.Goals(m.ctx(), "", now)
	if err != nil {
		m.fail(fmt.Errorf("load goals: %w", err))
		return
	}
	goals := make([]planner.GoalView, 0, len(all))
	active := 0
	for _, gv := range all {
		if gv.Goal.IsActive {
			active++
		}
		if m.GoalFilter == "" || gv.Progress.State == m.GoalFilter {
			goals = append(goals, gv)
		}
	}
	overall, err := m.deps.Planner.OverallConsistency(m.ctx(), now)
	if err != nil {
		m.fail(fmt.Errorf("load consistency: %w", err))
		return
	}
	m.Items = items
	m.Goals = goals
	m.ActiveGoals = active
	m.Overall = overall
	m.syncBubbleData()
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.Items))
	for i, item := range m.Items {
		at := model.DisplayTime(item.ScheduledTime)
		if at == "" {
			at = "anytime"
		}
		rows = append(rows, table.Row{fmt.Sprint(i + 1), at, string(item.Kind), item.Title, views.DoneLabel(item.IsCompleted)})
	}
	m.todayTable.SetRows(rows)
	clampCursor(&m.todayTable, len(rows))

	goalRows := make([]table.Row, 0, len(m.Goals))
	for i, gv := range m.Goals {
		state := string(gv.Progress.State)
		if !gv.Goal.IsActive {
			state = "paused"
		}
		goalRows = append(goalRows, table.Row{
			fmt.Sprint(i + 1),
			gv.Goal.Title,
			model.FormatWeekdays(gv.Goal.SelectedDays),
			state,
			fmt.Sprint(gv.Progress.Streak),
			fmt.Sprint(gv.Progress.Consistency),
		})
	}
	m.goalsTable.SetRows(goalRows)
	clampCursor(&m.goalsTable, len(goalRows))

	if gv, ok := m.selectedGoal(); ok {
		m.detailPane.SetContent(views.RenderMarkdown(views.GoalDetailMarkdown(goalDetail(gv))))
	} else {
		m.detailPane.SetContent(views.GoalDetailMarkdown(views.GoalDetailData{}))
	}
}

func clampCursor(t *table.Model, n int) {
	if n == 0 {
		return
	}
	if t.Cursor() >= n {
		t.SetCursor(n - 1)
	}
	if t.Cursor() < 0 {
		t.SetCursor(0)
	}
}

func goalDetail(gv planner.GoalView) views.GoalDetailData {
	return views.GoalDetailData{
		Title:          gv.Goal.Title,
		Description:    gv.Goal.Description,
		Days:           model.FormatWeekdays(gv.Goal.SelectedDays),
		Time:           model.DisplayTime(gv.Goal.ScheduledTime),
		State:          string(gv.Progress.State),
		Streak:         gv.Progress.Streak,
		Consistency:    gv.Progress.Consistency,
		Completions:    gv.Progress.Completions,
		Required:       gv.Progress.Required,
		DaysElapsed:    gv.Progress.DaysSinceCreated,
		Duration:       gv.Goal.Duration,
		CompletedToday: gv.Progress.CompletedToday,
	}
}

func (m Model) selectedItem() (model.ScheduleItem, bool) {
	i := m.todayTable.Cursor()
	if i < 0 || i >= len(m.Items) {
		return model.ScheduleItem{}, false
	}
	return m.Items[i], true
}

func (m Model) selectedGoal() (planner.GoalView, bool) {
	i := m.goalsTable.Cursor()
	if i < 0 || i >= len(m.Goals) {
		return planner.GoalView{}, false
	}
	return m.Goals[i], true
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.deps.Logger.Warn("ui action failed", zap.Error(err))
}

func (m *Model) ok(text string) {
	m.LastError = nil
	m.Status = StatusBar{Text: text}
}

func (m Model) countCompleted() int {
	n := 0
	for _, item := range m.Items {
		if item.IsCompleted {
			n++
		}
	}
	return n
}

func nextGoalFilter(current model.GoalState) model.GoalState {
	switch current {
	case "":
		return model.GoalStateActive
	case model.GoalStateActive:
		return model.GoalStateCompleted
	case model.GoalStateCompleted:
		return model.GoalStateInactive
	default:
		return ""
	}
}

func short(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
