package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for status-sentry.
type Metrics struct {
	registry                 *prometheus.Registry
	cycleDurationSeconds     prometheus.Histogram
	componentsTotal          *prometheus.GaugeVec
	alertsTotal              *prometheus.CounterVec
	fetchErrorsTotal         prometheus.Counter
	lastSuccessfulCycleGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cycleDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "status_sentry_cycle_duration_seconds",
			Help:    "Duration of monitoring cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		componentsTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "status_sentry_components_total",
			Help: "Monitored components by group and status.",
		}, []string{"group", "status"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "status_sentry_alerts_total",
			Help: "Total alert entries emitted by kind.",
		}, []string{"kind"}),
		fetchErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "status_sentry_fetch_errors_total",
			Help: "Total status page fetch failures.",
		}),
		lastSuccessfulCycleGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "status_sentry_last_successful_cycle_timestamp",
			Help: "Unix timestamp of the last fully persisted cycle.",
		}),
	}

	registry.MustRegister(
		m.cycleDurationSeconds,
		m.componentsTotal,
		m.alertsTotal,
		m.fetchErrorsTotal,
		m.lastSuccessfulCycleGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycleDuration records the duration of a completed cycle.
func (m *Metrics) ObserveCycleDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleDurationSeconds.Observe(duration.Seconds())
}

// SetComponentsTotal sets the components gauge for the given group/status.
func (m *Metrics) SetComponentsTotal(group string, status string, value int) {
	if m == nil {
		return
	}
	m.componentsTotal.WithLabelValues(group, status).Set(float64(value))
}

// IncAlerts increments the alerts counter for the given kind.
func (m *Metrics) IncAlerts(kind string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(kind).Inc()
}

// IncFetchErrors increments the fetch error counter.
func (m *Metrics) IncFetchErrors() {
	if m == nil {
		return
	}
	m.fetchErrorsTotal.Inc()
}

// SetLastSuccessfulCycleTimestamp sets the last successful cycle time.
func (m *Metrics) SetLastSuccessfulCycleTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulCycleGauge.Set(float64(t.Unix()))
}
