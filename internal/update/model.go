package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/habitd/internal/config"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/notify"
	"github.com/sandeepkv93/habitd/internal/planner"
	"github.com/sandeepkv93/habitd/internal/scheduler"
	"go.uber.org/zap"
)

type View string

const (
	ViewToday     View = "Today"
	ViewGoals     View = "Goals"
	ViewReminders View = "Reminders"
)

// Planner is the slice of planner.Service the UI drives.
type Planner interface {
	CreateGoal(ctx context.Context, in planner.GoalInput, now time.Time) (model.Goal, error)
	UpdateGoal(ctx context.Context, id string, in planner.GoalInput, now time.Time) (model.Goal, error)
	SetGoalActive(ctx context.Context, id string, active bool, now time.Time) (model.Goal, error)
	MarkGoalComplete(ctx context.Context, id string, now time.Time) (model.Goal, bool, error)
	DeleteGoal(ctx context.Context, id string) error
	Goals(ctx context.Context, state model.GoalState, now time.Time) ([]planner.GoalView, error)
	OverallConsistency(ctx context.Context, now time.Time) (int, error)
	CreateTaskSeries(ctx context.Context, req model.SeriesRequest, now time.Time) (planner.SeriesResult, error)
	UpdateTask(ctx context.Context, id string, edit planner.TaskEdit) (model.ScheduleTask, error)
	ToggleTask(ctx context.Context, id string) (model.ScheduleTask, error)
	DeleteTask(ctx context.Context, id string) error
	Day(ctx context.Context, day time.Time) ([]model.ScheduleItem, error)
}

// Ticker runs one poll-mode scheduler pass.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (scheduler.TickResult, error)
}

// Replanner keeps native alarms current across day boundaries.
type Replanner interface {
	Refresh(ctx context.Context, now time.Time) (bool, error)
}

type Deps struct {
	Context        context.Context
	Planner        Planner
	Ticker         Ticker
	Replanner      Replanner
	Notifications  <-chan notify.Notification
	Mode           config.Mode
	TickInterval   time.Duration
	MaxActiveGoals int
	Clock          func() time.Time
	Logger         *zap.Logger
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Today     string
	Goals     string
	Reminders string
	Help      string
	Quit      string
}

type Model struct {
	CurrentView View
	Day         time.Time
	Items       []model.ScheduleItem
	Goals       []planner.GoalView
	GoalFilter  model.GoalState
	Overall     int
	ActiveGoals int
	ReminderLog []notify.Notification
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error
	LastTick    scheduler.TickResult
	Width       int

	deps Deps

	todayTable   table.Model
	goalsTable   table.Model
	commandInput textinput.Model
	tickSpinner  spinner.Model
	helpModel    help.Model
	detailPane   viewport.Model
	ticking      bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

const reminderLogLimit = 20

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// ReminderTickMsg drives a scheduler pass at At.
type ReminderTickMsg struct {
	At time.Time
}

type NotificationMsg struct {
	Notification notify.Notification
}

type RefreshMsg struct{}

func NewModel(deps Deps) Model {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Minute
	}
	if !deps.Mode.IsValid() {
		deps.Mode = config.ModePoll
	}
	if deps.MaxActiveGoals <= 0 {
		deps.MaxActiveGoals = 3
	}
	m := Model{
		CurrentView: ViewToday,
		Day:         model.DayStart(deps.Clock()),
		Keys: GlobalKeyMap{
			Today:     "1",
			Goals:     "2",
			Reminders: "3",
			Help:      "?",
			Quit:      "q",
		},
		deps:    deps,
		ticking: deps.Ticker != nil || deps.Replanner != nil,
	}
	m.initBubbleComponents()
	m.reload()
	return m
}

func (m Model) ctx() context.Context {
	return m.deps.Context
}

func (m Model) now() time.Time {
	return m.deps.Clock()
}
