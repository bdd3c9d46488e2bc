package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "HABITD"

type Mode string

const (
	// ModePoll ticks the reminder scheduler on TickInterval with dedup markers.
	ModePoll Mode = "poll"
	// ModeNative hands a batch of alarms to the in-process alarm engine.
	ModeNative Mode = "native"
)

func (m Mode) IsValid() bool {
	return m == ModePoll || m == ModeNative
}

type RuntimeConfig struct {
	DBPath                     string        `mapstructure:"db_path"`
	LogFile                    string        `mapstructure:"log_file"`
	LogLevel                   string        `mapstructure:"log_level"`
	DesktopNotifications       bool          `mapstructure:"desktop_notifications"`
	TickInterval               time.Duration `mapstructure:"tick_interval"`
	FireTolerance              time.Duration `mapstructure:"fire_tolerance"`
	GoalLeadMinutes            int           `mapstructure:"goal_lead_minutes"`
	DefaultTaskReminderMinutes int           `mapstructure:"default_task_reminder_minutes"`
	MaxActiveGoals             int           `mapstructure:"max_active_goals"`
	MarkerRetentionDays        int           `mapstructure:"marker_retention_days"`
	TaskRetentionDays          int           `mapstructure:"task_retention_days"`
	SchedulerBuffer            int           `mapstructure:"scheduler_buffer"`
	Mode                       Mode          `mapstructure:"mode"`
	HTTPAddr                   string        `mapstructure:"http_addr"`
}

func Default() RuntimeConfig {
	return RuntimeConfig{
		DBPath:                     "habitd.db",
		LogFile:                    filepath.Join("logs", "habitd.log"),
		LogLevel:                   "info",
		DesktopNotifications:       false,
		TickInterval:               time.Minute,
		FireTolerance:              time.Minute,
		GoalLeadMinutes:            60,
		DefaultTaskReminderMinutes: 60,
		MaxActiveGoals:             3,
		MarkerRetentionDays:        2,
		TaskRetentionDays:          365,
		SchedulerBuffer:            64,
		Mode:                       ModePoll,
		HTTPAddr:                   "",
	}
}

// Load reads dir/.env (if present), then dir/habitd.yaml (if present), then HABITD_*
// environment variables. Values that are empty, non-positive or unknown keep their defaults.
func Load(dir string) (RuntimeConfig, error) {
	if dir == "" {
		dir = "."
	}
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return RuntimeConfig{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("habitd")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("desktop_notifications", def.DesktopNotifications)
	v.SetDefault("tick_interval", def.TickInterval)
	v.SetDefault("fire_tolerance", def.FireTolerance)
	v.SetDefault("goal_lead_minutes", def.GoalLeadMinutes)
	v.SetDefault("default_task_reminder_minutes", def.DefaultTaskReminderMinutes)
	v.SetDefault("max_active_goals", def.MaxActiveGoals)
	v.SetDefault("marker_retention_days", def.MarkerRetentionDays)
	v.SetDefault("task_retention_days", def.TaskRetentionDays)
	v.SetDefault("scheduler_buffer", def.SchedulerBuffer)
	v.SetDefault("mode", string(def.Mode))
	v.SetDefault("http_addr", def.HTTPAddr)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return RuntimeConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg RuntimeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg.withDefaults(def), nil
}

func (c RuntimeConfig) withDefaults(def RuntimeConfig) RuntimeConfig {
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = def.DBPath
	}
	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = def.LogFile
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = def.LogLevel
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.FireTolerance <= 0 {
		c.FireTolerance = def.FireTolerance
	}
	if c.GoalLeadMinutes <= 0 {
		c.GoalLeadMinutes = def.GoalLeadMinutes
	}
	if c.DefaultTaskReminderMinutes <= 0 {
		c.DefaultTaskReminderMinutes = def.DefaultTaskReminderMinutes
	}
	if c.MaxActiveGoals <= 0 {
		c.MaxActiveGoals = def.MaxActiveGoals
	}
	if c.MarkerRetentionDays <= 0 {
		c.MarkerRetentionDays = def.MarkerRetentionDays
	}
	if c.TaskRetentionDays <= 0 {
		c.TaskRetentionDays = def.TaskRetentionDays
	}
	if c.SchedulerBuffer <= 0 {
		c.SchedulerBuffer = def.SchedulerBuffer
	}
	c.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	if !c.Mode.IsValid() {
		c.Mode = def.Mode
	}
	return c
}
