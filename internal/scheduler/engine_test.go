package scheduler

import (
	"testing"
	"time"

	"github.com/sandeepkv93/habitd/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineEmitsInFireOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	require.NoError(t, engine.Schedule(notify.Notification{ID: 1, Title: "later", FireAt: now.Add(80 * time.Millisecond)}))
	require.NoError(t, engine.Schedule(notify.Notification{ID: 2, Title: "sooner", FireAt: now.Add(20 * time.Millisecond)}))

	first := waitNotification(t, engine.C(), time.Second)
	second := waitNotification(t, engine.C(), time.Second)
	assert.Equal(t, "sooner", first.Title)
	assert.Equal(t, "later", second.Title)
	assert.Empty(t, engine.Pending())
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	fireAt := time.Now().Add(20 * time.Millisecond)
	for i := 1; i <= 25; i++ {
		require.NoError(t, engine.Schedule(notify.Notification{ID: i, FireAt: fireAt}))
	}

	time.Sleep(120 * time.Millisecond)
	assert.NotZero(t, engine.Dropped())
}

func TestEngineCancel(t *testing.T) {
	engine := NewEngine(4)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	require.NoError(t, engine.Schedule(notify.Notification{ID: 1, Title: "cancelled", FireAt: now.Add(30 * time.Millisecond)}))
	require.NoError(t, engine.Schedule(notify.Notification{ID: 2, Title: "kept", FireAt: now.Add(60 * time.Millisecond)}))
	assert.True(t, engine.Cancel(1))
	assert.False(t, engine.Cancel(1))

	got := waitNotification(t, engine.C(), time.Second)
	assert.Equal(t, "kept", got.Title)
}

func TestEngineCancelAllAndReplace(t *testing.T) {
	engine := NewEngine(4)
	far := time.Now().Add(time.Hour)

	require.NoError(t, engine.Schedule(notify.Notification{ID: 1, Title: "a", FireAt: far}))
	require.NoError(t, engine.Schedule(notify.Notification{ID: 1, Title: "b", FireAt: far.Add(time.Minute)}))
	require.NoError(t, engine.Schedule(notify.Notification{ID: 2, Title: "c", FireAt: far.Add(-time.Minute)}))

	pending := engine.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "c", pending[0].Title)
	assert.Equal(t, "b", pending[1].Title)

	assert.Equal(t, 2, engine.CancelAll())
	assert.Empty(t, engine.Pending())
	assert.Equal(t, 0, engine.CancelAll())
}

func TestScheduleValidatesNotification(t *testing.T) {
	engine := NewEngine(1)
	assert.ErrorIs(t, engine.Schedule(notify.Notification{ID: 1}), ErrInvalidFireTime)
	assert.ErrorIs(t, engine.Schedule(notify.Notification{FireAt: time.Now()}), ErrInvalidAlarmID)

	engine.Start()
	engine.Stop()
	assert.ErrorIs(t, engine.Schedule(notify.Notification{ID: 1, FireAt: time.Now()}), ErrEngineStopped)
}

func waitNotification(t *testing.T, ch <-chan notify.Notification, timeout time.Duration) notify.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for notification")
		return notify.Notification{}
	}
}
