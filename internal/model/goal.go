package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidGoalState = errors.New("model: invalid goal state")
	ErrInvalidDuration  = errors.New("model: invalid goal duration")
)

type GoalState string

const (
	GoalStateActive    GoalState = "active"
	GoalStateInactive  GoalState = "inactive"
	GoalStateCompleted GoalState = "completed"
)

func (s GoalState) IsValid() bool {
	switch s {
	case GoalStateActive, GoalStateInactive, GoalStateCompleted:
		return true
	default:
		return false
	}
}

// Goal is a recurring commitment due on SelectedDays for Duration days from CreatedAt.
// State and Streak are cached projections of the other fields; use Derive to refresh them.
type Goal struct {
	ID             string
	Title          string
	Description    string
	SelectedDays   []time.Weekday
	Duration       int
	ScheduledTime  string
	CreatedAt      time.Time
	CompletedDates []time.Time
	Streak         int
	IsActive       bool
	State          GoalState
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("model: goal id is required")
	}
	if strings.TrimSpace(g.Title) == "" {
		return errors.New("model: goal title is required")
	}
	if err := ValidateWeekdays(g.SelectedDays); err != nil {
		return err
	}
	if g.Duration <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, g.Duration)
	}
	if g.CreatedAt.IsZero() {
		return errors.New("model: goal created_at is required")
	}
	if g.State != "" && !g.State.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalState, g.State)
	}
	return nil
}

func (g Goal) IsDueOn(day time.Time) bool {
	return containsWeekday(g.SelectedDays, day.Weekday())
}

func (g Goal) CompletedOn(day time.Time) bool {
	for _, done := range g.CompletedDates {
		if SameDay(done.In(day.Location()), day) {
			return true
		}
	}
	return false
}

// DaysSinceCreated is floor((now - CreatedAt) / 24h).
func (g Goal) DaysSinceCreated(now time.Time) int {
	return int(math.Floor(now.Sub(g.CreatedAt).Hours() / 24))
}

// RequiredCompletions is floor(Duration / 7 * |SelectedDays|).
func (g Goal) RequiredCompletions() int {
	return g.Duration * len(g.SelectedDays) / 7
}

// StateAt derives the lifecycle state. Completion wins over expiry.
func (g Goal) StateAt(now time.Time) GoalState {
	if len(g.CompletedDates) >= g.RequiredCompletions() {
		return GoalStateCompleted
	}
	if g.DaysSinceCreated(now) >= g.Duration {
		return GoalStateInactive
	}
	return GoalStateActive
}

// CurrentStreak counts consecutive calendar days ending at the most recent completion.
// It never decays with the passage of time; a gap only matters at the next completion.
func (g Goal) CurrentStreak() int {
	if len(g.CompletedDates) == 0 {
		return 0
	}
	loc := g.CompletedDates[len(g.CompletedDates)-1].Location()
	days := make([]time.Time, 0, len(g.CompletedDates))
	seen := make(map[string]bool, len(g.CompletedDates))
	for _, done := range g.CompletedDates {
		day := DayStart(done.In(loc))
		key := FormatDate(day)
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if DaysBetween(days[i-1], days[i]) != 1 {
			break
		}
		streak++
	}
	return streak
}

// MarkComplete appends a completion for now's calendar day. A second call on the same
// day returns the goal unchanged and false.
func (g Goal) MarkComplete(now time.Time) (Goal, bool) {
	if g.CompletedOn(now) {
		return g, false
	}
	yesterday := DayStart(now).AddDate(0, 0, -1)
	hadYesterday := g.CompletedOn(yesterday)

	out := g
	out.CompletedDates = make([]time.Time, 0, len(g.CompletedDates)+1)
	out.CompletedDates = append(out.CompletedDates, g.CompletedDates...)
	out.CompletedDates = append(out.CompletedDates, now)
	if hadYesterday {
		out.Streak = g.CurrentStreak() + 1
	} else {
		out.Streak = 1
	}
	out.State = out.StateAt(now)
	return out, true
}

// ScheduledDays counts due days from CreatedAt through min(now, CreatedAt+Duration),
// both ends inclusive.
func (g Goal) ScheduledDays(now time.Time) int {
	created := DayStart(g.CreatedAt.In(now.Location()))
	elapsed := DaysBetween(created, now)
	if elapsed > g.Duration {
		elapsed = g.Duration
	}
	count := 0
	for i := 0; i <= elapsed; i++ {
		if g.IsDueOn(created.AddDate(0, 0, i)) {
			count++
		}
	}
	return count
}

func (g Goal) consistencyRatio(now time.Time) float64 {
	scheduled := g.ScheduledDays(now)
	if scheduled == 0 {
		return 0
	}
	return math.Min(float64(len(g.CompletedDates))/float64(scheduled)*100, 100)
}

// Consistency is the share of scheduled days completed so far, as a percentage in [0, 100].
func (g Goal) Consistency(now time.Time) int {
	return int(math.Round(g.consistencyRatio(now)))
}

// Derive refreshes the cached State and Streak from the source fields.
func (g Goal) Derive(now time.Time) Goal {
	g.State = g.StateAt(now)
	g.Streak = g.CurrentStreak()
	return g
}

// OverallConsistency averages per-goal percentages over goals flagged IsActive.
func OverallConsistency(goals []Goal, now time.Time) int {
	sum := 0.0
	n := 0
	for _, g := range goals {
		if !g.IsActive {
			continue
		}
		sum += g.consistencyRatio(now)
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(sum / float64(n)))
}

// GoalProgress is the read-only view consumed by the UI.
type GoalProgress struct {
	State            GoalState
	Streak           int
	Consistency      int
	Completions      int
	Required         int
	DaysSinceCreated int
	CompletedToday   bool
}

func (g Goal) Progress(now time.Time) GoalProgress {
	return GoalProgress{
		State:            g.StateAt(now),
		Streak:           g.CurrentStreak(),
		Consistency:      g.Consistency(now),
		Completions:      len(g.CompletedDates),
		Required:         g.RequiredCompletions(),
		DaysSinceCreated: g.DaysSinceCreated(now),
		CompletedToday:   g.CompletedOn(now),
	}
}
