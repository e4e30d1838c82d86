// Package metrics exposes the Prometheus instruments of a meshboot run. All
// recording methods are safe to call on a nil *Registry, which records
// nothing; components take an optional registry without nil checks.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/specialistvlad/meshboot/internal/validate"
)

// Registry holds all metrics for one application instance.
type Registry struct {
	// Validation
	ValidationsTotal *prometheus.CounterVec

	// Bootstrap
	BootstrapDuration prometheus.Histogram
	BootstrapsTotal   *prometheus.CounterVec
	NodesLaunched     *prometheus.CounterVec
	NodesRunning      *prometheus.GaugeVec

	// Supervision
	NodeEventsTotal   *prometheus.CounterVec
	ShortcutsTotal    prometheus.Counter
	SinkFailuresTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized on a fresh,
// private Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initValidationMetrics()
	r.initBootstrapMetrics()
	r.initSupervisorMetrics()
	return r
}

func (r *Registry) initValidationMetrics() {
	r.ValidationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshboot_validations_total",
			Help: "Topology validations by outcome and failed check",
		},
		[]string{"result", "check"},
	)
}

func (r *Registry) initBootstrapMetrics() {
	r.BootstrapDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meshboot_bootstrap_duration_seconds",
			Help:    "Time from validation to the last node launch",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.BootstrapsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshboot_bootstraps_total",
			Help: "Bootstrap attempts by outcome",
		},
		[]string{"result"},
	)
	r.NodesLaunched = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshboot_nodes_launched_total",
			Help: "Node goroutines launched, by role",
		},
		[]string{"role"},
	)
	r.NodesRunning = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshboot_nodes_running",
			Help: "Node goroutines currently running, by role",
		},
		[]string{"role"},
	)
}

func (r *Registry) initSupervisorMetrics() {
	r.NodeEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshboot_node_events_total",
			Help: "Events received from nodes, by role and event",
		},
		[]string{"role", "event"},
	)
	r.ShortcutsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "meshboot_controller_shortcuts_total",
			Help: "Packets delivered by the supervisor on a relay's behalf",
		},
	)
	r.SinkFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshboot_sink_failures_total",
			Help: "Events a sink failed to accept",
		},
		[]string{"sink"},
	)
}

// RecordValidation counts one validation outcome.
func (r *Registry) RecordValidation(err error) {
	if r == nil {
		return
	}
	if err == nil {
		r.ValidationsTotal.WithLabelValues("valid", "").Inc()
		return
	}
	check := "unknown"
	var v *validate.Violation
	if errors.As(err, &v) {
		check = v.Check.String()
	}
	r.ValidationsTotal.WithLabelValues("invalid", check).Inc()
}

// RecordBootstrap counts one bootstrap attempt and its duration.
func (r *Registry) RecordBootstrap(duration time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.BootstrapsTotal.WithLabelValues(result).Inc()
	r.BootstrapDuration.Observe(duration.Seconds())
}

// NodeStarted counts a launched node goroutine.
func (r *Registry) NodeStarted(role string) {
	if r == nil {
		return
	}
	r.NodesLaunched.WithLabelValues(role).Inc()
	r.NodesRunning.WithLabelValues(role).Inc()
}

// NodeStopped marks a node goroutine as finished.
func (r *Registry) NodeStopped(role string) {
	if r == nil {
		return
	}
	r.NodesRunning.WithLabelValues(role).Dec()
}

// RecordEvent counts one node event.
func (r *Registry) RecordEvent(role, event string) {
	if r == nil {
		return
	}
	r.NodeEventsTotal.WithLabelValues(role, event).Inc()
}

// RecordShortcut counts one packet delivered by the supervisor.
func (r *Registry) RecordShortcut() {
	if r == nil {
		return
	}
	r.ShortcutsTotal.Inc()
}

// RecordSinkFailure counts one event a sink rejected.
func (r *Registry) RecordSinkFailure(sink string) {
	if r == nil {
		return
	}
	r.SinkFailuresTotal.WithLabelValues(sink).Inc()
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
