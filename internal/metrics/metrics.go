package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopfloor"

type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted      prometheus.Counter
	SessionsEnded        prometheus.Counter
	SessionsForceClosed  prometheus.Counter
	SessionConflicts     prometheus.Counter
	TasksCompleted       prometheus.Counter
	MaterialFailures     *prometheus.CounterVec
	LowStockWarnings     *prometheus.CounterVec
	ProducedUnits        prometheus.Counter
	DefectUnits          prometheus.Counter
	ShiftClockEvents     *prometheus.CounterVec
	HTTPRequestsDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Total number of started work sessions",
	})
	m.SessionsEnded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_ended_total",
		Help:      "Total number of work sessions ended by operators",
	})
	m.SessionsForceClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_force_closed_total",
		Help:      "Total number of work sessions closed administratively or by the reaper",
	})
	m.SessionConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_conflicts_total",
		Help:      "Start attempts rejected because the user already had an open session",
	})
	m.TasksCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_completed_total",
		Help:      "Tasks that reached COMPLETED",
	})
	m.MaterialFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "material_consumption_failures_total",
		Help:      "Material consumption attempts rolled back",
	}, []string{"reason"})
	m.LowStockWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "low_stock_warnings_total",
		Help:      "Low stock warnings emitted after consumption",
	}, []string{"material"})
	m.ProducedUnits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "produced_units_total",
		Help:      "Units reported as produced",
	})
	m.DefectUnits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "defect_units_total",
		Help:      "Units reported as defective",
	})
	m.ShiftClockEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shift_clock_events_total",
		Help:      "Clock scans by outcome",
	}, []string{"event"})
	m.HTTPRequestsDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})

	registry.MustRegister(
		m.SessionsStarted,
		m.SessionsEnded,
		m.SessionsForceClosed,
		m.SessionConflicts,
		m.TasksCompleted,
		m.MaterialFailures,
		m.LowStockWarnings,
		m.ProducedUnits,
		m.DefectUnits,
		m.ShiftClockEvents,
		m.HTTPRequestsDuration,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest: route это шаблон маршрута chi, а не фактический путь.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
