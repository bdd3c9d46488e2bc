package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
	"go.uber.org/zap"
)

const (
	GoalsKey = "bestie-goals"
	TasksKey = "bestie-schedule-tasks"
)

// Repository reads and writes the goal and task collections as JSON arrays on a KV.
// Records that fail to decode or validate are skipped; a corrupt or absent collection
// reads as empty.
type Repository struct {
	kv        KV
	loc       *time.Location
	logger    *zap.Logger
	onInvalid func(kind string)
}

type RepositoryOption func(*Repository)

func WithLogger(logger *zap.Logger) RepositoryOption {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLocation sets the zone used for calendar dates. Default time.Local.
func WithLocation(loc *time.Location) RepositoryOption {
	return func(r *Repository) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithInvalidRecordHook is called with "goal" or "task" for every skipped record.
func WithInvalidRecordHook(fn func(kind string)) RepositoryOption {
	return func(r *Repository) {
		r.onInvalid = fn
	}
}

func NewRepository(kv KV, opts ...RepositoryOption) *Repository {
	r := &Repository{kv: kv, loc: time.Local, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) ListGoals(ctx context.Context) ([]model.Goal, error) {
	raw, err := r.readCollection(ctx, GoalsKey)
	if err != nil {
		return nil, err
	}
	out := make([]model.Goal, 0, len(raw))
	for i, item := range raw {
		var rec goalRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			r.skip("goal", i, err)
			continue
		}
		goal, err := goalFromRecord(rec, r.loc)
		if err != nil {
			r.skip("goal", i, err)
			continue
		}
		out = append(out, goal)
	}
	return out, nil
}

func (r *Repository) SaveGoals(ctx context.Context, goals []model.Goal) error {
	recs := make([]goalRecord, 0, len(goals))
	for _, g := range goals {
		recs = append(recs, goalToRecord(g))
	}
	return r.writeCollection(ctx, GoalsKey, recs)
}

// UpsertGoal replaces the goal with the same id or appends it.
func (r *Repository) UpsertGoal(ctx context.Context, goal model.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}
	goals, err := r.ListGoals(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range goals {
		if goals[i].ID == goal.ID {
			goals[i] = goal
			replaced = true
			break
		}
	}
	if !replaced {
		goals = append(goals, goal)
	}
	return r.SaveGoals(ctx, goals)
}

func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	goals, err := r.ListGoals(ctx)
	if err != nil {
		return err
	}
	kept := goals[:0]
	for _, g := range goals {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(goals) {
		return ErrNotFound
	}
	return r.SaveGoals(ctx, kept)
}

func (r *Repository) GetGoal(ctx context.Context, id string) (model.Goal, error) {
	goals, err := r.ListGoals(ctx)
	if err != nil {
		return model.Goal{}, err
	}
	for _, g := range goals {
		if g.ID == id {
			return g, nil
		}
	}
	return model.Goal{}, ErrNotFound
}

func (r *Repository) ListTasks(ctx context.Context) ([]model.ScheduleTask, error) {
	raw, err := r.readCollection(ctx, TasksKey)
	if err != nil {
		return nil, err
	}
	out := make([]model.ScheduleTask, 0, len(raw))
	for i, item := range raw {
		var rec taskRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			r.skip("task", i, err)
			continue
		}
		task, err := taskFromRecord(rec, r.loc)
		if err != nil {
			r.skip("task", i, err)
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *Repository) SaveTasks(ctx context.Context, tasks []model.ScheduleTask) error {
	recs := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		recs = append(recs, taskToRecord(t))
	}
	return r.writeCollection(ctx, TasksKey, recs)
}

// AddTasks appends a batch in one write. An empty batch is a no-op.
func (r *Repository) AddTasks(ctx context.Context, batch []model.ScheduleTask) error {
	if len(batch) == 0 {
		return nil
	}
	for _, t := range batch {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return err
	}
	return r.SaveTasks(ctx, append(tasks, batch...))
}

func (r *Repository) UpsertTask(ctx context.Context, task model.ScheduleTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, task)
	}
	return r.SaveTasks(ctx, tasks)
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return err
	}
	kept := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return ErrNotFound
	}
	return r.SaveTasks(ctx, kept)
}

func (r *Repository) GetTask(ctx context.Context, id string) (model.ScheduleTask, error) {
	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return model.ScheduleTask{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.ScheduleTask{}, ErrNotFound
}

// PruneTasksBefore drops tasks dated strictly before cutoff's calendar day and returns
// how many were removed.
func (r *Repository) PruneTasksBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return 0, err
	}
	limit := model.DayStart(cutoff.In(r.loc))
	kept := make([]model.ScheduleTask, 0, len(tasks))
	for _, t := range tasks {
		if t.Date.Before(limit) {
			continue
		}
		kept = append(kept, t)
	}
	removed := len(tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, r.SaveTasks(ctx, kept)
}

func (r *Repository) Location() *time.Location {
	return r.loc
}

func (r *Repository) readCollection(ctx context.Context, key string) ([]json.RawMessage, error) {
	value, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		r.logger.Warn("corrupt collection treated as empty", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return raw, nil
}

func (r *Repository) writeCollection(ctx context.Context, key string, recs any) error {
	body, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, string(body)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (r *Repository) skip(kind string, index int, err error) {
	r.logger.Warn("skipping invalid record", zap.String("kind", kind), zap.Int("index", index), zap.Error(err))
	if r.onInvalid != nil {
		r.onInvalid(kind)
	}
}
