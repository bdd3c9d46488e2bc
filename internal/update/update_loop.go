package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickNow(m.deps.Clock)}
	if m.ticking {
		cmds = append(cmds, m.tickSpinner.Tick)
	}
	if wait := waitForNotificationCmd(m.deps.Notifications); wait != nil {
		cmds = append(cmds, wait)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		m.Width = typed.Width
		return m, nil
	case spinner.TickMsg:
		if m.ticking {
			var cmd tea.Cmd
			m.tickSpinner, cmd = m.tickSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		if typed.Err != nil {
			m.fail(typed.Err)
		}
		return m, nil
	case RefreshMsg:
		m.reload()
		return m, nil
	case ReminderTickMsg:
		next := m.onReminderTick(typed.At)
		return next, tickAfter(m.deps.TickInterval, m.deps.Clock)
	case NotificationMsg:
		m.ReminderLog = append(m.ReminderLog, typed.Notification)
		if len(m.ReminderLog) > reminderLogLimit {
			m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-reminderLogLimit:]
		}
		m.Status = StatusBar{Text: typed.Notification.Title}
		return m, waitForNotificationCmd(m.deps.Notifications)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Palette.Active {
		if msg.String() == m.Keys.Help && m.commandInput.Value() == "" {
			m.HelpVisible = !m.HelpVisible
			return m, nil
		}
		return m.handlePaletteKey(msg)
	}

	switch msg.String() {
	case "/", ":":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, textinput.Blink
	case m.Keys.Today:
		m.CurrentView = ViewToday
		return m, nil
	case m.Keys.Goals:
		m.CurrentView = ViewGoals
		return m, nil
	case m.Keys.Reminders:
		m.CurrentView = ViewReminders
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "r":
		m.reload()
		m.ok("reloaded")
		return m, nil
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewToday:
		return m.handleTodayKey(msg)
	case ViewGoals:
		return m.handleGoalsKey(msg)
	}
	return m, nil
}

func (m Model) handleTodayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.Day = m.Day.AddDate(0, 0, -1)
		m.reload()
		return m, nil
	case "l", "right":
		m.Day = m.Day.AddDate(0, 0, 1)
		m.reload()
		return m, nil
	case "t":
		m.Day = model.DayStart(m.now())
		m.reload()
		return m, nil
	case "enter", " ", "x":
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		m.completeItem(item)
		return m, nil
	}
	var cmd tea.Cmd
	m.todayTable, cmd = m.todayTable.Update(msg)
	return m, cmd
}

func (m Model) handleGoalsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "f":
		m.GoalFilter = nextGoalFilter(m.GoalFilter)
		m.reload()
		return m, nil
	case "enter", " ", "x":
		gv, ok := m.selectedGoal()
		if !ok {
			return m, nil
		}
		m.completeGoal(gv.Goal.ID, gv.Goal.Title)
		return m, nil
	case "p":
		gv, ok := m.selectedGoal()
		if !ok {
			return m, nil
		}
		m.setGoalActive(gv.Goal.ID, !gv.Goal.IsActive)
		return m, nil
	}
	var cmd tea.Cmd
	m.goalsTable, cmd = m.goalsTable.Update(msg)
	m.syncBubbleData()
	return m, cmd
}

// completeItem marks a goal done for today or flips a task.
func (m *Model) completeItem(item model.ScheduleItem) {
	switch item.Kind {
	case model.ItemGoal:
		if !model.SameDay(m.Day, m.now()) {
			m.fail(fmt.Errorf("goals can only be completed for today"))
			return
		}
		m.completeGoal(item.SourceID, item.Title)
	case model.ItemTask:
		task, err := m.deps.Planner.ToggleTask(m.ctx(), item.SourceID)
		if err != nil {
			m.fail(err)
			return
		}
		m.reload()
		if task.IsCompleted {
			m.ok("done: " + task.Title)
		} else {
			m.ok("reopened: " + task.Title)
		}
	}
}

func (m *Model) completeGoal(id, title string) {
	goal, changed, err := m.deps.Planner.MarkGoalComplete(m.ctx(), id, m.now())
	if err != nil {
		m.fail(err)
		return
	}
	m.reload()
	if !changed {
		m.ok(fmt.Sprintf("%s already completed today", title))
		return
	}
	m.ok(fmt.Sprintf("%s completed, streak %d", goal.Title, goal.Streak))
}

func (m *Model) setGoalActive(id string, active bool) {
	goal, err := m.deps.Planner.SetGoalActive(m.ctx(), id, active, m.now())
	if err != nil {
		m.fail(err)
		return
	}
	m.reload()
	if active {
		m.ok("resumed: " + goal.Title)
	} else {
		m.ok("paused: " + goal.Title)
	}
}

func (m Model) View() string {
	left := ""
	right := ""
	switch m.CurrentView {
	case ViewToday:
		left = views.RenderTodayPanel(views.TodayPanelData{
			Date:      m.Day.Format("Mon 2006-01-02"),
			IsToday:   model.SameDay(m.Day, m.now()),
			TableView: m.todayTable.View(),
			Total:     len(m.Items),
			Completed: m.countCompleted(),
		})
	case ViewGoals:
		left = views.RenderGoalsPanel(views.GoalsPanelData{
			Filter:      string(m.GoalFilter),
			TableView:   m.goalsTable.View(),
			Overall:     m.Overall,
			ActiveCount: m.ActiveGoals,
			MaxActive:   m.deps.MaxActiveGoals,
		})
		right = m.detailPane.View()
	case ViewReminders:
		entries := make([]views.ReminderEntry, 0, len(m.ReminderLog))
		for _, n := range m.ReminderLog {
			entries = append(entries, views.ReminderEntry{At: n.FireAt.Format("15:04"), Title: n.Title, Body: n.Body})
		}
		left = views.RenderReminderLog(entries)
	}
	if m.Palette.Active {
		right = views.RenderCommandPalette(true, m.commandInput.View())
	}
	if m.HelpVisible {
		right = strings.TrimSpace(right + "\n\n" + m.renderHelpView())
	}

	status := ""
	if m.Status.Text != "" {
		status = "status: " + m.Status.Text
		if m.Status.IsError {
			status = "status: error: " + m.Status.Text
		}
	}
	reminder := ""
	if len(m.ReminderLog) > 0 {
		last := m.ReminderLog[len(m.ReminderLog)-1]
		reminder = fmt.Sprintf("last reminder: %s @ %s", last.Title, last.FireAt.Format("15:04"))
	}
	if m.ticking {
		reminder = strings.TrimSpace(reminder + "  " + m.tickSpinner.View() + " reminders live")
	}

	return views.RenderFrame(views.Frame{
		Tabs:      []string{string(ViewToday), string(ViewGoals), string(ViewReminders)},
		ActiveTab: string(m.CurrentView),
		Mode:      string(m.deps.Mode),
		Clock:     m.now().Format("15:04"),
		Main:      left,
		Side:      right,
		Status:    status,
		IsError:   m.Status.IsError,
		Reminder:  reminder,
		Width:     m.Width,
		Hints: []string{
			m.Keys.Today + " today", m.Keys.Goals + " goals", m.Keys.Reminders + " reminders",
			"/ cmd", "r reload", m.Keys.Help + " help", m.Keys.Quit + " quit",
		},
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewToday, ViewGoals, ViewReminders:
		return true
	default:
		return false
	}
}

func tickNow(clock func() time.Time) tea.Cmd {
	return func() tea.Msg {
		return ReminderTickMsg{At: clock()}
	}
}

func tickAfter(d time.Duration, clock func() time.Time) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ReminderTickMsg{At: clock()}
	})
}
