package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/notify"
	"go.uber.org/zap"
)

// DayPlanner keeps a native alarm subsystem loaded with today's batch. It replans on
// demand after data changes and on the first refresh of each new day.
type DayPlanner struct {
	reminders *Reminders
	alarms    AlarmScheduler

	mu      sync.Mutex
	planned time.Time
}

func NewDayPlanner(reminders *Reminders, alarms AlarmScheduler) *DayPlanner {
	return &DayPlanner{reminders: reminders, alarms: alarms}
}

// Replan unconditionally cancels and resubmits today's alarms.
func (p *DayPlanner) Replan(ctx context.Context, now time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.reminders.Reschedule(ctx, p.alarms, now)
	if err != nil {
		return 0, err
	}
	p.planned = model.DayStart(now)
	return n, nil
}

// Refresh replans only when now falls on a different day than the last plan.
func (p *DayPlanner) Refresh(ctx context.Context, now time.Time) (bool, error) {
	p.mu.Lock()
	fresh := !p.planned.IsZero() && model.SameDay(p.planned, now)
	p.mu.Unlock()
	if fresh {
		return false, nil
	}
	if _, err := p.Replan(ctx, now); err != nil {
		return false, err
	}
	return true, nil
}

// Forward hands every alarm fired by the engine to sink until ctx is done or the
// channel closes.
func Forward(ctx context.Context, fired <-chan notify.Notification, sink notify.Sink, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-fired:
			if !ok {
				return
			}
			if err := sink.Dispatch(ctx, n); err != nil {
				logger.Warn("alarm dispatch failed", zap.Int("alarm_id", n.ID), zap.Error(err))
			}
		}
	}
}
