package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Dispatched(model.EntityGoal, model.FireReminder)
	m.Dispatched(model.EntityGoal, model.FireReminder)
	m.Suppressed(model.EntityTask, model.FireAtTime)
	m.Evicted(3)
	m.Evicted(0)
	m.Planned(4)
	m.InvalidRecord("goal")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatched.WithLabelValues("goal", "reminder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.suppressed.WithLabelValues("task", "at-time")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.evicted))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.planned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidRecords.WithLabelValues("goal")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Dispatched(model.EntityGoal, model.FireAtTime)
	m.Suppressed(model.EntityGoal, model.FireAtTime)
	m.Evicted(1)
	m.Planned(1)
	m.InvalidRecord("task")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Dispatched(model.EntityTask, model.FireAtTime)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `habitd_reminders_dispatched_total{entity="task",kind="at-time"} 1`)
}
