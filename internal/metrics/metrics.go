package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sandeepkv93/habitd/internal/model"
)

// Metrics holds the reminder counters on a private registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	dispatched     *prometheus.CounterVec
	suppressed     *prometheus.CounterVec
	evicted        prometheus.Counter
	planned        prometheus.Counter
	invalidRecords *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "habitd",
				Name:      "reminders_dispatched_total",
				Help:      "Notifications handed to the dispatch sink.",
			},
			[]string{"entity", "kind"},
		),
		suppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "habitd",
				Name:      "reminders_suppressed_total",
				Help:      "Firings skipped because a dedup marker already existed.",
			},
			[]string{"entity", "kind"},
		),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "habitd",
			Name:      "markers_evicted_total",
			Help:      "Dedup markers removed by retention.",
		}),
		planned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "habitd",
			Name:      "alarms_planned_total",
			Help:      "Alarms submitted to the native alarm engine.",
		}),
		invalidRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "habitd",
				Name:      "invalid_records_total",
				Help:      "Stored records skipped during load.",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(m.dispatched, m.suppressed, m.evicted, m.planned, m.invalidRecords)
	return m
}

func (m *Metrics) Dispatched(entity model.EntityKind, kind model.FireKind) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(string(entity), string(kind)).Inc()
}

func (m *Metrics) Suppressed(entity model.EntityKind, kind model.FireKind) {
	if m == nil {
		return
	}
	m.suppressed.WithLabelValues(string(entity), string(kind)).Inc()
}

func (m *Metrics) Evicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evicted.Add(float64(n))
}

func (m *Metrics) Planned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.planned.Add(float64(n))
}

func (m *Metrics) InvalidRecord(kind string) {
	if m == nil {
		return
	}
	m.invalidRecords.WithLabelValues(kind).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
