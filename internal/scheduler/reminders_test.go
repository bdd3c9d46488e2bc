package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/notify"
	"github.com/sandeepkv93/habitd/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-04 is a Tuesday.
var tuesday = time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *storage.Repository
	kv       *storage.MemoryKV
	markers  *storage.MarkerStore
	recorder *notify.Recorder
	counts   *countingObserver
	rem      *Reminders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := storage.NewMemoryKV()
	f := &fixture{
		kv:       kv,
		repo:     storage.NewRepository(kv, storage.WithLocation(time.UTC)),
		markers:  storage.NewMarkerStore(kv, time.UTC),
		recorder: &notify.Recorder{},
		counts:   &countingObserver{},
	}
	f.rem = NewReminders(DefaultConfig(), f.repo, f.markers, f.recorder, WithObserver(f.counts))
	return f
}

func (f *fixture) addGoal(t *testing.T, g model.Goal) {
	t.Helper()
	require.NoError(t, f.repo.UpsertGoal(context.Background(), g))
}

func (f *fixture) addTask(t *testing.T, task model.ScheduleTask) {
	t.Helper()
	require.NoError(t, f.repo.UpsertTask(context.Background(), task))
}

type countingObserver struct {
	dispatched, suppressed, evicted, planned int
}

func (c *countingObserver) Dispatched(model.EntityKind, model.FireKind) { c.dispatched++ }
func (c *countingObserver) Suppressed(model.EntityKind, model.FireKind) { c.suppressed++ }
func (c *countingObserver) Evicted(n int)                               { c.evicted += n }
func (c *countingObserver) Planned(n int)                               { c.planned += n }

func morningGoal(id string) model.Goal {
	return model.Goal{
		ID:            id,
		Title:         "Run",
		SelectedDays:  []time.Weekday{time.Tuesday, time.Thursday},
		Duration:      30,
		ScheduledTime: "7:30 AM",
		CreatedAt:     tuesday.AddDate(0, 0, -7),
		IsActive:      true,
	}
}

func at(hour, minute, second int) time.Time {
	return tuesday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

func TestTickDedupWithinFiringMinute(t *testing.T) {
	f := newFixture(t)
	f.addGoal(t, morningGoal("g1"))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.rem.Tick(ctx, at(6, 30, i*10))
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := f.rem.Tick(ctx, at(7, 30, i*10))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.recorder.Count("g1", model.FireReminder))
	assert.Equal(t, 1, f.recorder.Count("g1", model.FireAtTime))
	assert.Len(t, f.recorder.Sent(), 2)
	assert.Equal(t, 2, f.counts.dispatched)
	assert.Equal(t, 8, f.counts.suppressed)

	sent := f.recorder.Sent()
	assert.Equal(t, "Goal Reminder: Run", sent[0].Title)
	assert.Equal(t, "Starting in 1 hour at 7:30 AM. Get ready!", sent[0].Body)
	assert.Equal(t, "It's time: Run", sent[1].Title)
	assert.Equal(t, `Your goal "Run" is starting now!`, sent[1].Body)
}

func TestTickOutsideWindowDoesNothing(t *testing.T) {
	f := newFixture(t)
	f.addGoal(t, morningGoal("g1"))

	res, err := f.rem.Tick(context.Background(), at(7, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Dispatched)
	assert.Empty(t, f.recorder.Sent())
}

func TestTickSkipsIneligibleGoals(t *testing.T) {
	f := newFixture(t)

	paused := morningGoal("paused")
	paused.IsActive = false
	f.addGoal(t, paused)

	notDue := morningGoal("notdue")
	notDue.SelectedDays = []time.Weekday{time.Monday}
	f.addGoal(t, notDue)

	done := morningGoal("done")
	done.CompletedDates = []time.Time{at(6, 0, 0)}
	f.addGoal(t, done)

	garbled := morningGoal("garbled")
	garbled.ScheduledTime = "half past seven"
	f.addGoal(t, garbled)

	untimed := morningGoal("untimed")
	untimed.ScheduledTime = ""
	f.addGoal(t, untimed)

	_, err := f.rem.Tick(context.Background(), at(6, 30, 0))
	require.NoError(t, err)
	_, err = f.rem.Tick(context.Background(), at(7, 30, 0))
	require.NoError(t, err)
	assert.Empty(t, f.recorder.Sent())
}

func TestTickNoRetroactiveFiring(t *testing.T) {
	f := newFixture(t)
	f.addGoal(t, morningGoal("g1"))

	_, err := f.rem.Tick(context.Background(), at(7, 35, 0))
	require.NoError(t, err)
	assert.Empty(t, f.recorder.Sent())
}

func TestTickChangedGoalTimeIsNotSuppressed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := morningGoal("g1")
	f.addGoal(t, g)

	_, err := f.rem.Tick(ctx, at(6, 30, 0))
	require.NoError(t, err)

	g.ScheduledTime = "07:45"
	f.addGoal(t, g)
	_, err = f.rem.Tick(ctx, at(6, 45, 0))
	require.NoError(t, err)

	assert.Equal(t, 2, f.recorder.Count("g1", model.FireReminder))
}

func TestTickTaskReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTask(t, model.ScheduleTask{
		ID: "t1", Title: "Dentist", Description: "Bring insurance card", Date: tuesday,
		ScheduledTime: "3:00 PM", IsReminder: true, ReminderMinutes: 30,
	})
	f.addTask(t, model.ScheduleTask{ID: "t2", Title: "Default lead", Date: tuesday, ScheduledTime: "16:00", IsReminder: true})
	f.addTask(t, model.ScheduleTask{ID: "silent", Title: "No reminder", Date: tuesday, ScheduledTime: "14:30"})
	f.addTask(t, model.ScheduleTask{ID: "finished", Title: "Done", Date: tuesday, ScheduledTime: "14:30", IsReminder: true, IsCompleted: true})
	f.addTask(t, model.ScheduleTask{ID: "tomorrow", Title: "Later", Date: tuesday.AddDate(0, 0, 1), ScheduledTime: "14:30", IsReminder: true})

	for i := 0; i < 3; i++ {
		_, err := f.rem.Tick(ctx, at(14, 30, i*15))
		require.NoError(t, err)
	}
	_, err := f.rem.Tick(ctx, at(15, 0, 30))
	require.NoError(t, err)
	_, err = f.rem.Tick(ctx, at(15, 0, 45))
	require.NoError(t, err)

	assert.Equal(t, 1, f.recorder.Count("t1", model.FireReminder))
	assert.Equal(t, 1, f.recorder.Count("t1", model.FireAtTime))
	assert.Equal(t, 1, f.recorder.Count("t2", model.FireReminder))
	assert.Equal(t, 0, f.recorder.Count("silent", model.FireReminder))
	assert.Equal(t, 0, f.recorder.Count("finished", model.FireAtTime))
	assert.Equal(t, 0, f.recorder.Count("tomorrow", model.FireReminder))

	sent := f.recorder.Sent()
	assert.Equal(t, "Task Reminder: Dentist", sent[0].Title)
	assert.Equal(t, "Starting in 30 minutes at 3:00 PM. Bring insurance card", sent[0].Body)
}

func TestTickEvictsOldMarkers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.markers.Mark(ctx, "task:old:2025-03-01:at-time", tuesday.AddDate(0, 0, -3)))
	require.NoError(t, f.markers.Mark(ctx, "task:recent:2025-03-02:at-time", tuesday.AddDate(0, 0, -2)))

	res, err := f.rem.Tick(ctx, at(9, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evicted)
	assert.Equal(t, 1, f.counts.evicted)

	count, err := f.markers.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type failingMarkers struct{}

func (failingMarkers) Seen(context.Context, string) (bool, error) {
	return false, errors.New("read failed")
}
func (failingMarkers) Mark(context.Context, string, time.Time) error {
	return errors.New("write failed")
}
func (failingMarkers) EvictBefore(context.Context, time.Time) (int, error) {
	return 0, errors.New("list failed")
}

func TestTickSurvivesMarkerAndSinkFailures(t *testing.T) {
	f := newFixture(t)
	f.addGoal(t, morningGoal("g1"))
	sink := &notify.Recorder{Err: errors.New("display unavailable")}
	rem := NewReminders(DefaultConfig(), f.repo, failingMarkers{}, sink)

	res, err := rem.Tick(context.Background(), at(6, 30, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dispatched)
	assert.Len(t, sink.Sent(), 1)
}

func TestPlanNativeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addGoal(t, morningGoal("g1"))

	evening := morningGoal("g2")
	evening.ScheduledTime = "19:00"
	evening.Description = "Stretch first"
	f.addGoal(t, evening)

	f.addTask(t, model.ScheduleTask{ID: "t1", Title: "Call", Date: tuesday, ScheduledTime: "7:50 AM", IsReminder: true, ReminderMinutes: 60})

	batch, err := f.rem.Plan(ctx, at(7, 0, 0))
	require.NoError(t, err)

	// g1 reminder at 6:30 is past; t1 reminder at 6:50 is past.
	require.Len(t, batch, 4)
	assert.Equal(t, "g1", batch[0].EntityID)
	assert.Equal(t, model.FireAtTime, batch[0].Kind)
	assert.Equal(t, "t1", batch[1].EntityID)
	assert.Equal(t, model.FireAtTime, batch[1].Kind)
	assert.Equal(t, "g2", batch[2].EntityID)
	assert.Equal(t, model.FireReminder, batch[2].Kind)
	assert.Equal(t, "Starting in 1 hour at 7:00 PM. Stretch first", batch[2].Body)
	assert.Equal(t, "g2", batch[3].EntityID)
	for i, n := range batch {
		assert.Equal(t, i+1, n.ID)
		assert.Equal(t, notify.DefaultSound, n.Sound)
		assert.True(t, n.FireAt.After(at(7, 0, 0)))
	}
}

func TestRescheduleCancelsPendingFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := NewEngine(8)

	stale := notify.Notification{ID: 99, Title: "stale", FireAt: at(23, 0, 0)}
	require.NoError(t, engine.Schedule(stale))

	f.addGoal(t, morningGoal("g1"))
	n, err := f.rem.Reschedule(ctx, engine, at(6, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, f.counts.planned)

	pending := engine.Pending()
	require.Len(t, pending, 2)
	for _, p := range pending {
		assert.NotEqual(t, "stale", p.Title)
	}

	g := morningGoal("g1")
	g.ScheduledTime = "08:00"
	f.addGoal(t, g)
	_, err = f.rem.Reschedule(ctx, engine, at(6, 0, 0))
	require.NoError(t, err)

	pending = engine.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, at(7, 0, 0), pending[0].FireAt)
	assert.Equal(t, at(8, 0, 0), pending[1].FireAt)
}

type brokenSource struct{}

func (brokenSource) ListGoals(context.Context) ([]model.Goal, error) {
	return nil, errors.New("disk gone")
}

func (brokenSource) ListTasks(context.Context) ([]model.ScheduleTask, error) {
	return nil, nil
}

func TestRescheduleCancelsEvenWhenPlanFails(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(8)
	require.NoError(t, engine.Schedule(notify.Notification{ID: 1, Title: "stale", FireAt: at(7, 30, 0)}))

	rem := NewReminders(DefaultConfig(), brokenSource{}, f.markers, f.recorder, WithObserver(f.counts))
	n, err := rem.Reschedule(context.Background(), engine, at(6, 0, 0))
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, engine.Pending())
}

type limitedAlarms struct {
	limit     int
	scheduled []notify.Notification
}

func (l *limitedAlarms) CancelAll() int {
	n := len(l.scheduled)
	l.scheduled = nil
	return n
}

func (l *limitedAlarms) Schedule(n notify.Notification) error {
	if len(l.scheduled) >= l.limit {
		return errors.New("alarm quota exceeded")
	}
	l.scheduled = append(l.scheduled, n)
	return nil
}

func TestReschedulePartialBatchReportsScheduled(t *testing.T) {
	f := newFixture(t)
	f.addGoal(t, morningGoal("g1"))
	alarms := &limitedAlarms{limit: 1}

	n, err := f.rem.Reschedule(context.Background(), alarms, at(6, 0, 0))
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.counts.planned)
	require.Len(t, alarms.scheduled, 1)
	assert.Equal(t, model.FireReminder, alarms.scheduled[0].Kind)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.addGoal(t, morningGoal("g1"))
	ctx, cancel := context.WithCancel(context.Background())

	ticks := 0
	clock := func() time.Time {
		ticks++
		if ticks >= 3 {
			cancel()
		}
		return at(6, 30, 0)
	}

	err := f.rem.Run(ctx, 5*time.Millisecond, clock)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.recorder.Count("g1", model.FireReminder))
}
