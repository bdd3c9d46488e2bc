package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Frame is one full screen: a tab bar, the main pane, an optional side pane and the
// status, reminder and key-hint lines below them.
type Frame struct {
	Tabs      []string
	ActiveTab string
	Mode      string
	Clock     string
	Main      string
	Side      string
	Status    string
	IsError   bool
	Reminder  string
	Hints     []string
	// Width is the terminal width; zero means unknown.
	Width int
}

// sideBySideWidth is the narrowest terminal that fits the main and side panes in a row.
const sideBySideWidth = 100

var (
	brandStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("15"))
	mainStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sideStyle      = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	reminderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	badgeStyle     = lipgloss.NewStyle().Bold(true)
)

func RenderFrame(f Frame) string {
	lines := []string{renderTabBar(f)}

	mainWidth, sideWidth := paneWidths(f.Width)
	main := mainStyle.Width(mainWidth).Render(f.Main)
	switch {
	case strings.TrimSpace(f.Side) == "":
		lines = append(lines, main)
	case f.Width == 0 || f.Width >= sideBySideWidth:
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, main, sideStyle.Width(sideWidth).Render(f.Side)))
	default:
		lines = append(lines, main, sideStyle.Width(mainWidth).Render(f.Side))
	}

	if f.Status != "" {
		if f.IsError {
			lines = append(lines, errorStyle.Render(f.Status))
		} else {
			lines = append(lines, okStyle.Render(f.Status))
		}
	}
	if f.Reminder != "" {
		lines = append(lines, reminderStyle.Render(f.Reminder))
	}
	if len(f.Hints) > 0 {
		lines = append(lines, hintStyle.Render(strings.Join(f.Hints, " | ")))
	}
	return strings.Join(lines, "\n")
}

func renderTabBar(f Frame) string {
	tabs := make([]string, 0, len(f.Tabs))
	for _, tab := range f.Tabs {
		if tab == f.ActiveTab {
			tabs = append(tabs, activeTabStyle.Render(tab))
			continue
		}
		tabs = append(tabs, tabStyle.Render(tab))
	}
	parts := []string{brandStyle.Render("habitd"), strings.Join(tabs, " ")}
	if f.Mode != "" {
		parts = append(parts, "mode: "+f.Mode)
	}
	if f.Clock != "" {
		parts = append(parts, f.Clock)
	}
	return strings.Join(parts, " | ")
}

// paneWidths splits the terminal between the schedule and the detail pane, falling
// back to fixed widths when the size is unknown.
func paneWidths(total int) (int, int) {
	if total <= 0 {
		return 64, 48
	}
	if total < sideBySideWidth {
		return max(total-4, 20), 0
	}
	main := total * 3 / 5
	return main, total - main - 6
}

// RenderMarkdown falls back to the raw text when glamour cannot render it.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
