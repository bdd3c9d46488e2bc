package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/sandeepkv93/habitd/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayPlannerReplansOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := NewEngine(8)
	f.addGoal(t, morningGoal("g1"))
	planner := NewDayPlanner(f.rem, engine)

	replanned, err := planner.Refresh(ctx, at(5, 0, 0))
	require.NoError(t, err)
	assert.True(t, replanned)
	assert.Len(t, engine.Pending(), 2)

	replanned, err = planner.Refresh(ctx, at(6, 0, 0))
	require.NoError(t, err)
	assert.False(t, replanned)
	assert.Equal(t, 2, f.counts.planned)

	// Thursday is the next scheduled day for the goal.
	thursday := at(5, 0, 0).AddDate(0, 0, 2)
	replanned, err = planner.Refresh(ctx, thursday)
	require.NoError(t, err)
	assert.True(t, replanned)
	pending := engine.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, thursday.Add(90*time.Minute), pending[0].FireAt)
}

func TestDayPlannerReplanAfterChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := NewEngine(8)
	planner := NewDayPlanner(f.rem, engine)

	n, err := planner.Replan(ctx, at(5, 0, 0))
	require.NoError(t, err)
	assert.Zero(t, n)

	f.addGoal(t, morningGoal("g1"))
	n, err = planner.Replan(ctx, at(5, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestForwardDispatchesFiredAlarms(t *testing.T) {
	fired := make(chan notify.Notification, 2)
	rec := &notify.Recorder{}
	fired <- notify.Notification{ID: 1, Title: "a"}
	fired <- notify.Notification{ID: 2, Title: "b"}
	close(fired)

	Forward(context.Background(), fired, rec, nil)
	sent := rec.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "a", sent[0].Title)
	assert.Equal(t, "b", sent[1].Title)
}
