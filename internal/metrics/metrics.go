package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	priceChecks    *prometheus.CounterVec
	pollFailures   *prometheus.CounterVec
	alertsFired    *prometheus.CounterVec
	monitorsActive prometheus.Gauge
	monitorRuns    *prometheus.CounterVec
	gatewayRetries *prometheus.CounterVec
	pollDuration   prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		priceChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_price_checks_total",
				Help: "Total number of successful price checks",
			},
			[]string{"symbol"},
		),
		pollFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_poll_failures_total",
				Help: "Total number of poll cycles skipped after retry exhaustion",
			},
			[]string{"symbol"},
		),
		alertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_alerts_fired_total",
				Help: "Total number of price change alerts fired",
			},
			[]string{"symbol"},
		),
		monitorsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vigil_monitors_active",
				Help: "Number of supervisors currently monitoring",
			},
		),
		monitorRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_monitor_runs_total",
				Help: "Total number of completed monitor runs",
			},
			[]string{"outcome"},
		),
		gatewayRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_gateway_retries_total",
				Help: "Total number of gateway call retries",
			},
			[]string{"operation"},
		),
		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vigil_poll_duration_seconds",
				Help:    "Quote fetch duration per poll cycle in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(r.priceChecks)
	reg.MustRegister(r.pollFailures)
	reg.MustRegister(r.alertsFired)
	reg.MustRegister(r.monitorsActive)
	reg.MustRegister(r.monitorRuns)
	reg.MustRegister(r.gatewayRetries)
	reg.MustRegister(r.pollDuration)

	return r
}

// RecordPriceCheck records a successful price sample for a symbol.
func (r *Registry) RecordPriceCheck(symbol string, duration float64) {
	r.priceChecks.WithLabelValues(symbol).Inc()
	r.pollDuration.Observe(duration)
}

// RecordPollFailure records a skipped poll cycle.
func (r *Registry) RecordPollFailure(symbol string) {
	r.pollFailures.WithLabelValues(symbol).Inc()
}

// RecordAlert records a fired alert.
func (r *Registry) RecordAlert(symbol string) {
	r.alertsFired.WithLabelValues(symbol).Inc()
}

// MonitorStarted increments the active monitor gauge.
func (r *Registry) MonitorStarted() {
	r.monitorsActive.Inc()
}

// MonitorFinished decrements the active monitor gauge and records the
// run outcome ("completed", "stopped", or "failed").
func (r *Registry) MonitorFinished(outcome string) {
	r.monitorsActive.Dec()
	r.monitorRuns.WithLabelValues(outcome).Inc()
}

// RecordGatewayRetry records a retried gateway call.
func (r *Registry) RecordGatewayRetry(operation string) {
	r.gatewayRetries.WithLabelValues(operation).Inc()
}
