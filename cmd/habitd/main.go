package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/habitd/internal/config"
	"github.com/sandeepkv93/habitd/internal/httpapi"
	"github.com/sandeepkv93/habitd/internal/logging"
	"github.com/sandeepkv93/habitd/internal/metrics"
	"github.com/sandeepkv93/habitd/internal/notify"
	"github.com/sandeepkv93/habitd/internal/planner"
	"github.com/sandeepkv93/habitd/internal/scheduler"
	"github.com/sandeepkv93/habitd/internal/storage"
	"github.com/sandeepkv93/habitd/internal/update"
	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", ".", "directory holding habitd.yaml and .env")
	headless := flag.Bool("headless", false, "run the reminder scheduler without the terminal UI")
	flag.Parse()

	if err := run(*configDir, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "habitd failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configDir string, headless bool) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	logOpts := logging.Options{File: cfg.LogFile, Level: cfg.LogLevel}
	if headless {
		logOpts.Console = os.Stderr
	}
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := storage.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer kv.Close()

	m := metrics.New()
	repo := storage.NewRepository(kv,
		storage.WithLogger(logger),
		storage.WithInvalidRecordHook(m.InvalidRecord),
	)
	markers := storage.NewMarkerStore(kv, time.Local)

	sinks := notify.Multi{notify.Log{Logger: logger}}
	if cfg.DesktopNotifications {
		sinks = append(sinks, notify.NewDesktop())
	}
	var feed *notify.Channel
	if !headless {
		feed = notify.NewChannel(cfg.SchedulerBuffer)
		sinks = append(sinks, feed)
	}

	reminders := scheduler.NewReminders(scheduler.Config{
		Tolerance:              cfg.FireTolerance,
		GoalLead:               time.Duration(cfg.GoalLeadMinutes) * time.Minute,
		DefaultTaskLeadMinutes: cfg.DefaultTaskReminderMinutes,
		MarkerRetentionDays:    cfg.MarkerRetentionDays,
	}, repo, markers, sinks,
		scheduler.WithLogger(logger.Named("scheduler")),
		scheduler.WithObserver(m),
	)

	svcOpts := []planner.Option{planner.WithLogger(logger.Named("planner"))}
	var days *scheduler.DayPlanner
	if cfg.Mode == config.ModeNative {
		engine := scheduler.NewEngine(cfg.SchedulerBuffer)
		engine.Start()
		defer engine.Stop()
		go scheduler.Forward(ctx, engine.C(), sinks, logger.Named("alarms"))

		days = scheduler.NewDayPlanner(reminders, engine)
		svcOpts = append(svcOpts, planner.WithChangeHook(func() {
			if _, err := days.Replan(ctx, time.Now()); err != nil {
				logger.Warn("replan after change failed", zap.Error(err))
			}
		}))
	}
	svc := planner.NewService(repo, planner.Config{
		MaxActiveGoals:    cfg.MaxActiveGoals,
		TaskRetentionDays: cfg.TaskRetentionDays,
	}, svcOpts...)

	if pruned, err := svc.PruneTasks(ctx, time.Now()); err != nil {
		logger.Warn("prune tasks failed", zap.Error(err))
	} else if pruned > 0 {
		logger.Info("pruned old tasks", zap.Int("count", pruned))
	}

	if cfg.HTTPAddr != "" {
		router := httpapi.NewRouter(httpapi.Options{
			Reader:  svc,
			Pinger:  kv,
			Metrics: m.Handler(),
			Logger:  logger.Named("http"),
		})
		go func() {
			if err := httpapi.Serve(ctx, cfg.HTTPAddr, router, logger.Named("http")); err != nil {
				logger.Error("http server failed", zap.Error(err))
			}
		}()
	}

	logger.Info("habitd started",
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBPath),
		zap.Bool("headless", headless),
	)

	if headless {
		return runHeadless(ctx, cfg, reminders, days, logger)
	}

	var ticker update.Ticker
	var replanner update.Replanner
	if days != nil {
		replanner = days
	} else {
		ticker = reminders
	}
	program := tea.NewProgram(update.NewModel(update.Deps{
		Context:        ctx,
		Planner:        svc,
		Ticker:         ticker,
		Replanner:      replanner,
		Notifications:  feed.C(),
		Mode:           cfg.Mode,
		TickInterval:   cfg.TickInterval,
		MaxActiveGoals: cfg.MaxActiveGoals,
		Logger:         logger.Named("ui"),
	}), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runHeadless(ctx context.Context, cfg config.RuntimeConfig, reminders *scheduler.Reminders, days *scheduler.DayPlanner, logger *zap.Logger) error {
	var err error
	if days == nil {
		err = reminders.Run(ctx, cfg.TickInterval, time.Now)
	} else {
		err = refreshLoop(ctx, days, cfg.TickInterval, logger)
	}
	if errors.Is(err, context.Canceled) {
		logger.Info("habitd stopped")
		return nil
	}
	return err
}

func refreshLoop(ctx context.Context, days *scheduler.DayPlanner, interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := days.Refresh(ctx, time.Now()); err != nil {
			logger.Warn("alarm refresh failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
