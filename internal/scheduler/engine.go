package scheduler

import (
	"container/heap"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/habitd/internal/notify"
)

var (
	ErrInvalidFireTime = errors.New("scheduler: invalid fire time")
	ErrInvalidAlarmID  = errors.New("scheduler: invalid alarm id")
	ErrEngineStopped   = errors.New("scheduler: engine stopped")
)

type alarm struct {
	n     notify.Notification
	seq   uint64
	index int
}

type alarmQueue []*alarm

func (q alarmQueue) Len() int { return len(q) }

func (q alarmQueue) Less(i, j int) bool {
	if q[i].n.FireAt.Equal(q[j].n.FireAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].n.FireAt.Before(q[j].n.FireAt)
}

func (q alarmQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *alarmQueue) Push(x any) {
	item := x.(*alarm)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *alarmQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[0 : n-1]
	return item
}

// Engine is the in-process alarm subsystem: it holds scheduled notifications keyed by
// integer id and emits each on C() once its FireAt passes. Emission never blocks; a full
// buffer drops the notification and bumps Dropped.
type Engine struct {
	mu      sync.Mutex
	queue   alarmQueue
	byID    map[int]*alarm
	seq     uint64
	out     chan notify.Notification
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(alarmQueue, 0),
		byID:   make(map[int]*alarm),
		out:    make(chan notify.Notification, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan notify.Notification {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule adds n. An alarm with the same id replaces the pending one.
func (e *Engine) Schedule(n notify.Notification) error {
	if n.FireAt.IsZero() {
		return ErrInvalidFireTime
	}
	if n.ID <= 0 {
		return ErrInvalidAlarmID
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}

	if existing, ok := e.byID[n.ID]; ok {
		heap.Remove(&e.queue, existing.index)
	}
	e.seq++
	item := &alarm{n: n, seq: e.seq}
	heap.Push(&e.queue, item)
	e.byID[n.ID] = item
	e.signalWakeup()
	return nil
}

func (e *Engine) Cancel(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, item.index)
	delete(e.byID, id)
	e.signalWakeup()
	return true
}

// CancelAll drops every pending alarm and returns how many there were.
func (e *Engine) CancelAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.queue)
	e.queue = e.queue[:0]
	e.byID = make(map[int]*alarm)
	e.signalWakeup()
	return n
}

// Pending lists scheduled alarms in fire order.
func (e *Engine) Pending() []notify.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := make([]*alarm, len(e.queue))
	copy(items, e.queue)
	sort.Slice(items, func(i, j int) bool { return alarmQueue(items).Less(i, j) })
	out := make([]notify.Notification, 0, len(items))
	for _, item := range items {
		out = append(out, item.n)
	}
	return out
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.FireAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, n := range e.popDue(time.Now()) {
				select {
				case e.out <- n:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (notify.Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return notify.Notification{}, false
	}
	return e.queue[0].n, true
}

func (e *Engine) popDue(now time.Time) []notify.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]notify.Notification, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].n
		if next.FireAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(*alarm)
		delete(e.byID, item.n.ID)
		out = append(out, item.n)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
