package views

import (
	"fmt"
	"strings"
)

type TodayPanelData struct {
	Date      string
	IsToday   bool
	TableView string
	Total     int
	Completed int
}

type GoalsPanelData struct {
	Filter      string
	TableView   string
	Overall     int
	ActiveCount int
	MaxActive   int
}

// GoalDetailData feeds the markdown side pane of the goals screen.
type GoalDetailData struct {
	Title          string
	Description    string
	Days           string
	Time           string
	State          string
	Streak         int
	Consistency    int
	Completions    int
	Required       int
	DaysElapsed    int
	Duration       int
	CompletedToday bool
}

type ReminderEntry struct {
	At    string
	Title string
	Body  string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTodayPanel(data TodayPanelData) string {
	var b strings.Builder
	label := data.Date
	if data.IsToday {
		label += " (today)"
	}
	b.WriteString(fmt.Sprintf("schedule: %s\n", label))
	b.WriteString(fmt.Sprintf("done: %d/%d\n", data.Completed, data.Total))
	b.WriteString("actions: [j/k]move [enter]complete [h/l]day [t]today\n")
	if data.Total == 0 {
		b.WriteString("(nothing scheduled)")
		return b.String()
	}
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderGoalsPanel(data GoalsPanelData) string {
	var b strings.Builder
	filter := data.Filter
	if filter == "" {
		filter = "all"
	}
	b.WriteString(fmt.Sprintf("goals: %s | active %d/%d | consistency %d%%\n", filter, data.ActiveCount, data.MaxActive, data.Overall))
	b.WriteString("actions: [j/k]move [enter]complete [p]pause/resume [f]filter\n")
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

// GoalDetailMarkdown renders the selected goal as markdown for glamour.
func GoalDetailMarkdown(data GoalDetailData) string {
	if strings.TrimSpace(data.Title) == "" {
		return "_No goal selected_"
	}
	var b strings.Builder
	b.WriteString("## " + data.Title + "\n\n")
	if strings.TrimSpace(data.Description) != "" {
		b.WriteString(data.Description + "\n\n")
	}
	at := data.Time
	if at == "" {
		at = "anytime"
	}
	b.WriteString(fmt.Sprintf("- **State:** %s\n", data.State))
	b.WriteString(fmt.Sprintf("- **Days:** %s at %s\n", data.Days, at))
	b.WriteString(fmt.Sprintf("- **Progress:** day %d of %d\n", data.DaysElapsed, data.Duration))
	b.WriteString(fmt.Sprintf("- **Completions:** %d of %d\n", data.Completions, data.Required))
	b.WriteString(fmt.Sprintf("- **Streak:** %d\n", data.Streak))
	b.WriteString(fmt.Sprintf("- **Consistency:** %d%%\n", data.Consistency))
	if data.CompletedToday {
		b.WriteString("\nDone for today.\n")
	}
	return b.String()
}

func RenderReminderLog(entries []ReminderEntry) string {
	var b strings.Builder
	b.WriteString("reminders:\n")
	if len(entries) == 0 {
		b.WriteString("(no reminders fired yet)")
		return b.String()
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		b.WriteString(fmt.Sprintf("%s %s\n  %s\n", e.At, badgeStyle.Render(e.Title), e.Body))
	}
	return strings.TrimSpace(b.String())
}

// DoneLabel marks completed rows in tables.
func DoneLabel(done bool) string {
	if done {
		return doneStyle.Render("done")
	}
	return ""
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "command:\n" + inputView + "\n\nexamples:\n" +
		"/goal Run days:mon,wed,fri for:60 at:7:30 AM desc:Easy pace\n" +
		"/task Dentist on:tomorrow at:3:00 PM remind:30\n" +
		"/task Standup repeat:weekly days:weekdays weeks:4 at:9:30\n" +
		"/edit 1 at:6:45 AM title:Morning run  /edit 2 desc:-\n" +
		"/done 1  /toggle 2  /pause 1  /show goals active"
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s):\n%s\n\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
