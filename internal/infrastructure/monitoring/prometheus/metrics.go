// Package prometheus exposes the engine's operational metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

const namespace = "sentinel"

// Collector implements monitoring.Metrics on a dedicated Prometheus
// registry.  Poll durations are labelled by result only; per-watchlist
// labels would blow up cardinality with thousands of watchlists.
type Collector struct {
	registry *prometheus.Registry

	pollDuration     *prometheus.HistogramVec
	alertsCreated    *prometheus.CounterVec
	dispatchOutcomes *prometheus.CounterVec
	activeSchedulers prometheus.Gauge
}

// NewCollector builds and registers the engine metric set.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		pollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of event-source polls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		alertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Alerts created, by type and severity.",
		}, []string{"type", "severity"}),
		dispatchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_outcomes_total",
			Help:      "Notification dispatch outcomes.",
		}, []string{"outcome"}),
		activeSchedulers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_schedulers",
			Help:      "Watchlist polling loops currently running.",
		}),
	}
	registry.MustRegister(
		c.pollDuration,
		c.alertsCreated,
		c.dispatchOutcomes,
		c.activeSchedulers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObservePoll records one poll cycle.
func (c *Collector) ObservePoll(_ common.ID, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.pollDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// AlertCreated counts one stored alert.
func (c *Collector) AlertCreated(alertType mtypes.AlertType, severity mtypes.AlertSeverity) {
	c.alertsCreated.WithLabelValues(string(alertType), string(severity)).Inc()
}

// DispatchOutcome counts one dispatch decision.
func (c *Collector) DispatchOutcome(outcome monitoring.Outcome) {
	c.dispatchOutcomes.WithLabelValues(string(outcome)).Inc()
}

// SetActiveSchedulers tracks the supervisor's loop count.
func (c *Collector) SetActiveSchedulers(n int) {
	c.activeSchedulers.Set(float64(n))
}

// Handler serves the exposition endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
