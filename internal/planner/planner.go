package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrGoalLimitReached = errors.New("planner: active goal limit reached")
	ErrNotFound         = storage.ErrNotFound
)

// Store is the persisted collection surface the service needs.
type Store interface {
	ListGoals(ctx context.Context) ([]model.Goal, error)
	UpsertGoal(ctx context.Context, goal model.Goal) error
	DeleteGoal(ctx context.Context, id string) error
	ListTasks(ctx context.Context) ([]model.ScheduleTask, error)
	AddTasks(ctx context.Context, batch []model.ScheduleTask) error
	UpsertTask(ctx context.Context, task model.ScheduleTask) error
	DeleteTask(ctx context.Context, id string) error
	PruneTasksBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type Config struct {
	MaxActiveGoals    int
	TaskRetentionDays int
}

// Service owns every goal and task mutation. Derived goal fields are recomputed on
// read and before every write.
type Service struct {
	store    Store
	cfg      Config
	logger   *zap.Logger
	newID    func() string
	onChange func()
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithChangeHook runs after every successful mutation, e.g. to reschedule native alarms.
func WithChangeHook(fn func()) Option {
	return func(s *Service) {
		s.onChange = fn
	}
}

func NewService(store Store, cfg Config, opts ...Option) *Service {
	if cfg.MaxActiveGoals <= 0 {
		cfg.MaxActiveGoals = 3
	}
	if cfg.TaskRetentionDays <= 0 {
		cfg.TaskRetentionDays = 365
	}
	s := &Service{store: store, cfg: cfg, logger: zap.NewNop(), newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

type GoalInput struct {
	Title         string
	Description   string
	SelectedDays  []time.Weekday
	Duration      int
	ScheduledTime string
}

func (in GoalInput) normalized() (GoalInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, errors.New("planner: goal title is required")
	}
	if err := model.ValidateWeekdays(in.SelectedDays); err != nil {
		return in, err
	}
	if in.Duration <= 0 {
		return in, fmt.Errorf("%w: %d", model.ErrInvalidDuration, in.Duration)
	}
	if strings.TrimSpace(in.ScheduledTime) != "" {
		tod, err := model.ParseTimeOfDay(in.ScheduledTime)
		if err != nil {
			return in, err
		}
		in.ScheduledTime = tod.Canonical()
	} else {
		in.ScheduledTime = ""
	}
	return in, nil
}

func countActive(goals []model.Goal, exceptID string) int {
	n := 0
	for _, g := range goals {
		if g.IsActive && g.ID != exceptID {
			n++
		}
	}
	return n
}

// CreateGoal adds an active goal. It fails with ErrGoalLimitReached when MaxActiveGoals
// goals are already active; nothing is written in that case.
func (s *Service) CreateGoal(ctx context.Context, in GoalInput, now time.Time) (model.Goal, error) {
	in, err := in.normalized()
	if err != nil {
		return model.Goal{}, err
	}
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return model.Goal{}, err
	}
	if countActive(goals, "") >= s.cfg.MaxActiveGoals {
		return model.Goal{}, fmt.Errorf("%w: you can only have %d active goals", ErrGoalLimitReached, s.cfg.MaxActiveGoals)
	}

	goal := model.Goal{
		ID:             s.newID(),
		Title:          in.Title,
		Description:    in.Description,
		SelectedDays:   in.SelectedDays,
		Duration:       in.Duration,
		ScheduledTime:  in.ScheduledTime,
		CreatedAt:      now,
		CompletedDates: []time.Time{},
		IsActive:       true,
	}.Derive(now)
	if err := s.store.UpsertGoal(ctx, goal); err != nil {
		return model.Goal{}, err
	}
	s.logger.Info("goal created", zap.String("goal_id", goal.ID), zap.String("title", goal.Title))
	s.changed()
	return goal, nil
}

// UpdateGoal edits title, description, days, duration and time. Completion history and
// creation time are kept.
func (s *Service) UpdateGoal(ctx context.Context, id string, in GoalInput, now time.Time) (model.Goal, error) {
	in, err := in.normalized()
	if err != nil {
		return model.Goal{}, err
	}
	goal, err := s.goal(ctx, id)
	if err != nil {
		return model.Goal{}, err
	}
	goal.Title = in.Title
	goal.Description = in.Description
	goal.SelectedDays = in.SelectedDays
	goal.Duration = in.Duration
	goal.ScheduledTime = in.ScheduledTime
	goal = goal.Derive(now)
	if err := s.store.UpsertGoal(ctx, goal); err != nil {
		return model.Goal{}, err
	}
	s.changed()
	return goal, nil
}

// SetGoalActive pauses or resumes a goal. Resuming counts against the active cap.
func (s *Service) SetGoalActive(ctx context.Context, id string, active bool, now time.Time) (model.Goal, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return model.Goal{}, err
	}
	goal, ok := findGoal(goals, id)
	if !ok {
		return model.Goal{}, ErrNotFound
	}
	if goal.IsActive == active {
		return goal.Derive(now), nil
	}
	if active && countActive(goals, id) >= s.cfg.MaxActiveGoals {
		return model.Goal{}, fmt.Errorf("%w: you can only have %d active goals", ErrGoalLimitReached, s.cfg.MaxActiveGoals)
	}
	goal.IsActive = active
	goal = goal.Derive(now)
	if err := s.store.UpsertGoal(ctx, goal); err != nil {
		return model.Goal{}, err
	}
	s.changed()
	return goal, nil
}

// MarkGoalComplete records a completion for now's day. The bool is false when the goal
// was already completed today, in which case nothing is written.
func (s *Service) MarkGoalComplete(ctx context.Context, id string, now time.Time) (model.Goal, bool, error) {
	goal, err := s.goal(ctx, id)
	if err != nil {
		return model.Goal{}, false, err
	}
	updated, changed := goal.MarkComplete(now)
	if !changed {
		return goal.Derive(now), false, nil
	}
	if err := s.store.UpsertGoal(ctx, updated); err != nil {
		return model.Goal{}, false, err
	}
	s.logger.Info("goal completed", zap.String("goal_id", id), zap.Int("streak", updated.Streak), zap.String("state", string(updated.State)))
	s.changed()
	return updated, true, nil
}

func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return err
	}
	s.changed()
	return nil
}

// GoalView pairs a goal with its derived progress.
type GoalView struct {
	Goal     model.Goal
	Progress model.GoalProgress
}

// Goals lists goals with freshly derived state, optionally filtered by state.
func (s *Service) Goals(ctx context.Context, state model.GoalState, now time.Time) ([]GoalView, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		g = g.Derive(now)
		if state != "" && g.State != state {
			continue
		}
		out = append(out, GoalView{Goal: g, Progress: g.Progress(now)})
	}
	return out, nil
}

func (s *Service) OverallConsistency(ctx context.Context, now time.Time) (int, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return 0, err
	}
	return model.OverallConsistency(goals, now), nil
}

func (s *Service) goal(ctx context.Context, id string) (model.Goal, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return model.Goal{}, err
	}
	goal, ok := findGoal(goals, id)
	if !ok {
		return model.Goal{}, ErrNotFound
	}
	return goal, nil
}

func findGoal(goals []model.Goal, id string) (model.Goal, bool) {
	for _, g := range goals {
		if g.ID == id {
			return g, true
		}
	}
	return model.Goal{}, false
}
