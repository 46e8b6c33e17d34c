// Package metrics provides the Prometheus collectors every operator
// pass updates, grounded on r3e-network-service_layer's metrics
// registration style.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector an operator pool registers once at
// startup.
type Metrics struct {
	OperatorPassesTotal  *prometheus.CounterVec
	OperatorPassDuration *prometheus.HistogramVec
	OperatorErrorsTotal  *prometheus.CounterVec
	ComponentsByPhase    *prometheus.GaugeVec
	SessionsByStatus     *prometheus.GaugeVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperatorPassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bos_operator_passes_total",
				Help: "Total number of completed operator passes.",
			},
			[]string{"operator"},
		),
		OperatorPassDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bos_operator_pass_duration_seconds",
				Help:    "Duration of one operator pass.",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operator"},
		),
		OperatorErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bos_operator_errors_total",
				Help: "Total number of errors an operator pass encountered.",
			},
			[]string{"operator", "kind"},
		),
		ComponentsByPhase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bos_components_by_phase",
				Help: "Current number of components in each phase.",
			},
			[]string{"phase"},
		),
		SessionsByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bos_sessions_by_status",
				Help: "Current number of sessions in each status.",
			},
			[]string{"status"},
		),
	}

	registerer.MustRegister(
		m.OperatorPassesTotal,
		m.OperatorPassDuration,
		m.OperatorErrorsTotal,
		m.ComponentsByPhase,
		m.SessionsByStatus,
	)

	return m
}
