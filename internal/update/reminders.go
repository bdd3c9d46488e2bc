package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/habitd/internal/config"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/notify"
	"go.uber.org/zap"
)

// onReminderTick runs one scheduler pass. Poll mode ticks the dedup scheduler; native
// mode only replans when the day rolls over. Either way a new day moves the Today view.
func (m Model) onReminderTick(at time.Time) Model {
	switch m.deps.Mode {
	case config.ModeNative:
		if m.deps.Replanner != nil {
			replanned, err := m.deps.Replanner.Refresh(m.ctx(), at)
			if err != nil {
				m.fail(fmt.Errorf("plan alarms: %w", err))
			} else if replanned {
				m.deps.Logger.Debug("native alarms planned", zap.Time("at", at))
			}
		}
	default:
		if m.deps.Ticker != nil {
			res, err := m.deps.Ticker.Tick(m.ctx(), at)
			if err != nil {
				m.fail(fmt.Errorf("reminder tick: %w", err))
			} else {
				m.LastTick = res
			}
		}
	}

	if !model.SameDay(m.Day, at) && model.SameDay(m.Day, at.AddDate(0, 0, -1)) {
		m.Day = model.DayStart(at)
	}
	m.reload()
	return m
}

func waitForNotificationCmd(ch <-chan notify.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NotificationMsg{Notification: n}
	}
}
