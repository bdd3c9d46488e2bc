package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, time.Minute, cfg.TickInterval)
	assert.Equal(t, 3, cfg.MaxActiveGoals)
	assert.Equal(t, ModePoll, cfg.Mode)
}

func TestRuntimeConfigFromEnv(t *testing.T) {
	t.Setenv("HABITD_DESKTOP_NOTIFICATIONS", "true")
	t.Setenv("HABITD_TICK_INTERVAL", "30s")
	t.Setenv("HABITD_MAX_ACTIVE_GOALS", "4")
	t.Setenv("HABITD_SCHEDULER_BUFFER", "128")
	t.Setenv("HABITD_MODE", "NATIVE")
	t.Setenv("HABITD_DB_PATH", "state/custom.db")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.DesktopNotifications)
	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	assert.Equal(t, 4, cfg.MaxActiveGoals)
	assert.Equal(t, 128, cfg.SchedulerBuffer)
	assert.Equal(t, ModeNative, cfg.Mode)
	assert.Equal(t, "state/custom.db", cfg.DBPath)
}

func TestRuntimeConfigInvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("HABITD_MAX_ACTIVE_GOALS", "-2")
	t.Setenv("HABITD_MODE", "push")
	t.Setenv("HABITD_MARKER_RETENTION_DAYS", "0")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxActiveGoals)
	assert.Equal(t, ModePoll, cfg.Mode)
	assert.Equal(t, 2, cfg.MarkerRetentionDays)
}

func TestRuntimeConfigFromFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "habitd.yaml"), []byte("goal_lead_minutes: 45\nhttp_addr: \":8089\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HABITD_TASK_RETENTION_DAYS=90\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("HABITD_TASK_RETENTION_DAYS") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.GoalLeadMinutes)
	assert.Equal(t, ":8089", cfg.HTTPAddr)
	assert.Equal(t, 90, cfg.TaskRetentionDays)
}
