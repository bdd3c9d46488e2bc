package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
	"go.uber.org/zap"
)

// DefaultSound is attached to every planned alarm.
const DefaultSound = "default"

// Notification is what the scheduler hands to a sink. ID is only meaningful for
// batches submitted to an alarm subsystem.
type Notification struct {
	ID       int
	Title    string
	Body     string
	FireAt   time.Time
	Sound    string
	Entity   model.EntityKind
	EntityID string
	Kind     model.FireKind
}

type Sink interface {
	Dispatch(ctx context.Context, n Notification) error
}

type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Dispatch(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

type Noop struct{}

func (Noop) Dispatch(context.Context, Notification) error { return nil }

// Desktop shows notifications with notify-send on Linux and osascript on macOS.
// Other platforms are a no-op.
type Desktop struct {
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewDesktop() Desktop {
	return Desktop{command: exec.CommandContext}
}

func (d Desktop) Dispatch(ctx context.Context, n Notification) error {
	command := d.command
	if command == nil {
		command = exec.CommandContext
	}
	switch runtime.GOOS {
	case "linux":
		return command(ctx, "notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		if n.Sound != "" {
			script += fmt.Sprintf(` sound name "%s"`, escapeAppleScript(n.Sound))
		}
		return command(ctx, "osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Log writes every notification to a zap logger.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Dispatch(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		return nil
	}
	logger.Info("notification",
		zap.String("entity", string(n.Entity)),
		zap.String("entity_id", n.EntityID),
		zap.String("kind", string(n.Kind)),
		zap.Time("fire_at", n.FireAt),
		zap.String("title", n.Title),
	)
	return nil
}

// Multi dispatches to every sink and joins their errors.
type Multi []Sink

func (m Multi) Dispatch(ctx context.Context, n Notification) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Dispatch(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Channel forwards notifications to a buffered channel without blocking. Full buffers
// drop the notification and count it.
type Channel struct {
	ch      chan Notification
	mu      sync.Mutex
	dropped int
}

func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = 1
	}
	return &Channel{ch: make(chan Notification, buffer)}
}

func (c *Channel) C() <-chan Notification {
	return c.ch
}

func (c *Channel) Dispatch(_ context.Context, n Notification) error {
	select {
	case c.ch <- n:
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
	}
	return nil
}

func (c *Channel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Recorder keeps every dispatched notification in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
}

func (r *Recorder) Dispatch(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.Err
}

func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Count returns how many notifications matched entity id and kind.
func (r *Recorder) Count(entityID string, kind model.FireKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.sent {
		if item.EntityID == entityID && item.Kind == kind {
			n++
		}
	}
	return n
}
