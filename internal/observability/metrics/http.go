package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
)

const namespace = "smartcare"

// HTTPServerMetrics owns the API registry: HTTP traffic, the answer pipeline and upstream resilience.
type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal     *prometheus.CounterVec
	retrievalDuration  *prometheus.HistogramVec
	retrievedPassages  *prometheus.HistogramVec
	completionTotal    *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	contextCandidates  *prometheus.HistogramVec
	attributedSources  *prometheus.HistogramVec
	suppressedTotal    *prometheus.CounterVec

	retriesTotal *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	m := &HTTPServerMetrics{
		registry: registry,
		service:  service,

		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"service", "method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "http",
				Name:        "in_flight_requests",
				Help:        "Number of in-flight HTTP requests.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),

		retrievalTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "source_retrievals_total",
				Help:      "Knowledge source retrievals by source and status.",
			},
			[]string{"service", "source", "status"},
		),
		retrievalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "source_retrieval_duration_seconds",
				Help:      "Knowledge source retrieval duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "source"},
		),
		retrievedPassages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rag",
				Name:      "retrieved_passages",
				Help:      "Passages returned per source retrieval.",
				Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12},
			},
			[]string{"service", "source"},
		),
		completionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "completions_total",
				Help:      "Model completions by status.",
			},
			[]string{"service", "status"},
		),
		completionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "completion_duration_seconds",
				Help:      "Model completion duration in seconds.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"service"},
		),
		contextCandidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "attribution",
				Name:      "context_candidates",
				Help:      "Source candidates that made it into the model context.",
				Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
			},
			[]string{"service"},
		),
		attributedSources: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "attribution",
				Name:      "attributed_sources",
				Help:      "Sources shown next to an answer.",
				Buckets:   []float64{0, 1, 2, 3},
			},
			[]string{"service"},
		),
		suppressedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "attribution",
				Name:      "suppressed_total",
				Help:      "Turns whose sources were suppressed as conversational.",
			},
			[]string{"service"},
		),

		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "retries_total",
				Help:      "Retried upstream calls by operation.",
			},
			[]string{"service", "operation"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state by operation (0 closed, 1 half-open, 2 open).",
			},
			[]string{"service", "operation"},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.retrievalTotal,
		m.retrievalDuration,
		m.retrievedPassages,
		m.completionTotal,
		m.completionDuration,
		m.contextCandidates,
		m.attributedSources,
		m.suppressedTotal,
		m.retriesTotal,
		m.breakerState,
	)
	return m
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/messages/"):
		return "/v1/messages/{message_id}/sources"
	case strings.HasPrefix(path, "/v1/conversations/"):
		return "/v1/conversations/{conversation_id}/messages"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) ObserveSourceRetrieval(source string, passages int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.retrievalTotal.WithLabelValues(m.service, source, status).Inc()
	m.retrievalDuration.WithLabelValues(m.service, source).Observe(duration.Seconds())
	if err == nil {
		m.retrievedPassages.WithLabelValues(m.service, source).Observe(float64(passages))
	}
}

func (m *HTTPServerMetrics) ObserveCompletion(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.completionTotal.WithLabelValues(m.service, status).Inc()
	m.completionDuration.WithLabelValues(m.service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) ObserveAttribution(candidates, attributed int, suppressed bool) {
	m.contextCandidates.WithLabelValues(m.service).Observe(float64(candidates))
	m.attributedSources.WithLabelValues(m.service).Observe(float64(attributed))
	if suppressed {
		m.suppressedTotal.WithLabelValues(m.service).Inc()
	}
}

func (m *HTTPServerMetrics) ObserveRetry(operation string) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *HTTPServerMetrics) ObserveBreakerState(operation string, state gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, operation).Set(breakerStateValue(state))
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
