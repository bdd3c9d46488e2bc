package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/notify"
	"go.uber.org/zap"
)

// Source is a single snapshot read of goals and tasks per tick.
type Source interface {
	ListGoals(ctx context.Context) ([]model.Goal, error)
	ListTasks(ctx context.Context) ([]model.ScheduleTask, error)
}

type MarkerStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, day time.Time) error
	EvictBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// AlarmScheduler is a native alarm subsystem that accepts a batch of future firings.
type AlarmScheduler interface {
	CancelAll() int
	Schedule(n notify.Notification) error
}

// Observer receives scheduler counters.
type Observer interface {
	Dispatched(entity model.EntityKind, kind model.FireKind)
	Suppressed(entity model.EntityKind, kind model.FireKind)
	Evicted(n int)
	Planned(n int)
}

type NopObserver struct{}

func (NopObserver) Dispatched(model.EntityKind, model.FireKind) {}
func (NopObserver) Suppressed(model.EntityKind, model.FireKind) {}
func (NopObserver) Evicted(int)                                 {}
func (NopObserver) Planned(int)                                 {}

type Config struct {
	// Tolerance is how far a firing may be from now and still fire on this tick.
	Tolerance              time.Duration
	GoalLead               time.Duration
	DefaultTaskLeadMinutes int
	MarkerRetentionDays    int
}

func DefaultConfig() Config {
	return Config{
		Tolerance:              time.Minute,
		GoalLead:               time.Hour,
		DefaultTaskLeadMinutes: model.DefaultReminderMinutes,
		MarkerRetentionDays:    2,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Tolerance <= 0 {
		c.Tolerance = def.Tolerance
	}
	if c.GoalLead <= 0 {
		c.GoalLead = def.GoalLead
	}
	if c.DefaultTaskLeadMinutes <= 0 {
		c.DefaultTaskLeadMinutes = def.DefaultTaskLeadMinutes
	}
	if c.MarkerRetentionDays <= 0 {
		c.MarkerRetentionDays = def.MarkerRetentionDays
	}
	return c
}

// Reminders decides which goal and task notifications are due. Tick must not be called
// concurrently with itself; the dedup check-then-mark relies on a single caller.
type Reminders struct {
	cfg      Config
	source   Source
	markers  MarkerStore
	sink     notify.Sink
	logger   *zap.Logger
	observer Observer
}

type Option func(*Reminders)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Reminders) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(r *Reminders) {
		if observer != nil {
			r.observer = observer
		}
	}
}

func NewReminders(cfg Config, source Source, markers MarkerStore, sink notify.Sink, opts ...Option) *Reminders {
	if sink == nil {
		sink = notify.Noop{}
	}
	r := &Reminders{
		cfg:      cfg.normalized(),
		source:   source,
		markers:  markers,
		sink:     sink,
		logger:   zap.NewNop(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type firing struct {
	occ   model.Occurrence
	at    time.Time
	title string
	body  string
}

func (f firing) notification() notify.Notification {
	return notify.Notification{
		Title:    f.title,
		Body:     f.body,
		FireAt:   f.at,
		Entity:   f.occ.Entity,
		EntityID: f.occ.EntityID,
		Kind:     f.occ.Kind,
	}
}

type TickResult struct {
	Dispatched int
	Suppressed int
	Evicted    int
}

// Tick fires every reminder and at-time firing within Tolerance of now that has no dedup
// marker yet. The marker is written before dispatch. Marker and dispatch failures are
// logged and never abort the tick.
func (r *Reminders) Tick(ctx context.Context, now time.Time) (TickResult, error) {
	var res TickResult

	goals, tasks, err := r.snapshot(ctx)
	if err != nil {
		return res, err
	}

	cutoff := model.DayStart(now).AddDate(0, 0, -r.cfg.MarkerRetentionDays)
	evicted, err := r.markers.EvictBefore(ctx, cutoff)
	if err != nil {
		r.logger.Warn("marker eviction failed", zap.Error(err))
	}
	res.Evicted = evicted
	if evicted > 0 {
		r.observer.Evicted(evicted)
	}

	for _, f := range r.firings(goals, tasks, now) {
		if !r.withinWindow(f.at, now) {
			continue
		}
		key := f.occ.Key()
		seen, seenErr := r.markers.Seen(ctx, key)
		if seenErr != nil {
			r.logger.Warn("marker read failed", zap.String("key", key), zap.Error(seenErr))
		}
		if seen {
			res.Suppressed++
			r.observer.Suppressed(f.occ.Entity, f.occ.Kind)
			continue
		}
		if markErr := r.markers.Mark(ctx, key, f.occ.Day); markErr != nil {
			r.logger.Warn("marker write failed", zap.String("key", key), zap.Error(markErr))
		}
		if dispatchErr := r.sink.Dispatch(ctx, f.notification()); dispatchErr != nil {
			r.logger.Warn("dispatch failed", zap.String("key", key), zap.Error(dispatchErr))
		}
		res.Dispatched++
		r.observer.Dispatched(f.occ.Entity, f.occ.Kind)
		r.logger.Debug("reminder fired", zap.String("key", key), zap.Time("fire_at", f.at))
	}
	return res, nil
}

// Plan computes the native alarm batch for the rest of today: at-time firings after now,
// plus reminder firings that are still in the future. Ids run from 1 in fire order.
func (r *Reminders) Plan(ctx context.Context, now time.Time) ([]notify.Notification, error) {
	goals, tasks, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	firings := r.firings(goals, tasks, now)
	sort.SliceStable(firings, func(i, j int) bool { return firings[i].at.Before(firings[j].at) })

	out := make([]notify.Notification, 0, len(firings))
	for _, f := range firings {
		if !f.at.After(now) {
			continue
		}
		n := f.notification()
		n.ID = len(out) + 1
		n.Sound = notify.DefaultSound
		out = append(out, n)
	}
	return out, nil
}

// Reschedule cancels every pending alarm and submits a fresh Plan. Alarms are cancelled
// even when the plan cannot be computed. On a Schedule failure the alarms already
// submitted stay pending and their count is returned with the error.
func (r *Reminders) Reschedule(ctx context.Context, alarms AlarmScheduler, now time.Time) (int, error) {
	cancelled := alarms.CancelAll()
	batch, err := r.Plan(ctx, now)
	if err != nil {
		r.logger.Warn("alarm plan failed", zap.Int("cancelled", cancelled), zap.Error(err))
		return 0, err
	}
	scheduled := 0
	for _, n := range batch {
		if err := alarms.Schedule(n); err != nil {
			r.observer.Planned(scheduled)
			return scheduled, fmt.Errorf("schedule alarm %d: %w", n.ID, err)
		}
		scheduled++
	}
	r.observer.Planned(scheduled)
	r.logger.Info("alarms rescheduled", zap.Int("cancelled", cancelled), zap.Int("planned", scheduled))
	return scheduled, nil
}

// Run ticks immediately and then on every interval until ctx is done.
func (r *Reminders) Run(ctx context.Context, interval time.Duration, clock func() time.Time) error {
	if interval <= 0 {
		interval = time.Minute
	}
	if clock == nil {
		clock = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.Tick(ctx, clock()); err != nil {
			r.logger.Warn("reminder tick failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Reminders) snapshot(ctx context.Context) ([]model.Goal, []model.ScheduleTask, error) {
	goals, err := r.source.ListGoals(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list goals: %w", err)
	}
	tasks, err := r.source.ListTasks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list tasks: %w", err)
	}
	return goals, tasks, nil
}

func (r *Reminders) withinWindow(at, now time.Time) bool {
	diff := now.Sub(at)
	if diff < 0 {
		diff = -diff
	}
	return diff <= r.cfg.Tolerance
}

// firings lists today's candidate firings. Goals and tasks whose at-time is already
// further in the past than Tolerance are skipped entirely.
func (r *Reminders) firings(goals []model.Goal, tasks []model.ScheduleTask, now time.Time) []firing {
	today := model.DayStart(now)
	out := make([]firing, 0)

	for _, g := range goals {
		if !g.IsActive || !g.IsDueOn(today) || g.CompletedOn(now) {
			continue
		}
		tod, err := model.ParseTimeOfDay(g.ScheduledTime)
		if err != nil {
			if strings.TrimSpace(g.ScheduledTime) != "" {
				r.logger.Debug("goal time unparseable, not scheduled", zap.String("goal_id", g.ID), zap.String("time", g.ScheduledTime))
			}
			continue
		}
		atTime := tod.On(today)
		if r.isPast(atTime, now) {
			continue
		}
		occ := model.Occurrence{Entity: model.EntityGoal, EntityID: g.ID, Day: today, ScheduledTime: g.ScheduledTime}

		lead := r.cfg.GoalLead
		reminder := occ
		reminder.Kind = model.FireReminder
		out = append(out, firing{
			occ:   reminder,
			at:    atTime.Add(-lead),
			title: "Goal Reminder: " + g.Title,
			body:  fmt.Sprintf("Starting in %s at %s. %s", model.LeadText(int(lead/time.Minute)), tod, fallback(g.Description, "Get ready!")),
		})
		at := occ
		at.Kind = model.FireAtTime
		out = append(out, firing{
			occ:   at,
			at:    atTime,
			title: "It's time: " + g.Title,
			body:  fmt.Sprintf("Your goal %q is starting now!", g.Title),
		})
	}

	for _, t := range tasks {
		if !t.IsReminder || t.IsCompleted || !t.IsOn(today) {
			continue
		}
		tod, err := model.ParseTimeOfDay(t.ScheduledTime)
		if err != nil {
			r.logger.Debug("task time unparseable, not scheduled", zap.String("task_id", t.ID), zap.String("time", t.ScheduledTime))
			continue
		}
		atTime := tod.On(today)
		if r.isPast(atTime, now) {
			continue
		}
		occ := model.Occurrence{Entity: model.EntityTask, EntityID: t.ID, Day: today, ScheduledTime: t.ScheduledTime}

		leadMinutes := t.LeadMinutes(r.cfg.DefaultTaskLeadMinutes)
		reminder := occ
		reminder.Kind = model.FireReminder
		out = append(out, firing{
			occ:   reminder,
			at:    atTime.Add(-time.Duration(leadMinutes) * time.Minute),
			title: "Task Reminder: " + t.Title,
			body:  strings.TrimSpace(fmt.Sprintf("Starting in %s at %s. %s", model.LeadText(leadMinutes), tod, t.Description)),
		})
		at := occ
		at.Kind = model.FireAtTime
		out = append(out, firing{
			occ:   at,
			at:    atTime,
			title: "Task Now: " + t.Title,
			body:  fmt.Sprintf("Your scheduled task %q is starting now!", t.Title),
		})
	}
	return out
}

func (r *Reminders) isPast(atTime, now time.Time) bool {
	return now.Sub(atTime) > r.cfg.Tolerance
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
