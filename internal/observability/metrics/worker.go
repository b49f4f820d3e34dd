package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics aggregates citation statistics from turn-completed events.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	turnsTotal     *prometheus.CounterVec
	citationsTotal *prometheus.CounterVec
	sourcesPerTurn *prometheus.HistogramVec
	eventLag       *prometheus.HistogramVec
	handleInFlight prometheus.Gauge
	handleDuration *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	m := &WorkerMetrics{
		registry: registry,
		service:  service,

		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "turns_total",
				Help:      "Completed chat turns by attribution outcome.",
			},
			[]string{"service", "outcome"},
		),
		citationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "citations_total",
				Help:      "Sources cited next to answers by source type.",
			},
			[]string{"service", "source"},
		),
		sourcesPerTurn: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "sources_per_turn",
				Help:      "Cited sources per completed turn.",
				Buckets:   []float64{0, 1, 2, 3},
			},
			[]string{"service"},
		),
		eventLag: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "event_lag_seconds",
				Help:      "Delay between turn completion and event handling.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"service"},
		),
		handleInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "worker",
				Name:        "events_in_flight",
				Help:        "Number of turn events being handled.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		handleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "event_handle_duration_seconds",
				Help:      "Turn event handling duration in seconds by status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "status"},
		),
	}

	registry.MustRegister(m.turnsTotal, m.citationsTotal, m.sourcesPerTurn, m.eventLag, m.handleInFlight, m.handleDuration)
	return m
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) StartEvent() {
	m.handleInFlight.Inc()
}

func (m *WorkerMetrics) FinishEvent(duration time.Duration, err error) {
	m.handleInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.handleDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

// RecordTurn counts one turn and its cited source types.
func (m *WorkerMetrics) RecordTurn(suppressed bool, sourceTypes []string, lag time.Duration) {
	outcome := "cited"
	switch {
	case suppressed:
		outcome = "suppressed"
	case len(sourceTypes) == 0:
		outcome = "uncited"
	}
	m.turnsTotal.WithLabelValues(m.service, outcome).Inc()
	m.sourcesPerTurn.WithLabelValues(m.service).Observe(float64(len(sourceTypes)))
	for _, source := range sourceTypes {
		m.citationsTotal.WithLabelValues(m.service, source).Inc()
	}
	if lag >= 0 {
		m.eventLag.WithLabelValues(m.service).Observe(lag.Seconds())
	}
}
