package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/djval79/caresync1/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics HTTP and domain counters on a private registry.
type Metrics struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	events           *prometheus.CounterVec
	insightFallbacks prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caresync",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "caresync",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caresync",
			Name:      "domain_events_total",
			Help:      "Committed mutations by event type.",
		}, []string{"type"}),
		insightFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caresync",
			Name:      "insight_fallbacks_total",
			Help:      "Insight requests answered with the fallback set.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.events,
		m.insightFallbacks,
		collectors.NewGoCollector(),
	)
	return m
}

// Publish counts domain events; it lets Metrics sit in a MultiPublisher.
func (m *Metrics) Publish(_ context.Context, ev service.Event) error {
	m.events.WithLabelValues(ev.Type).Inc()
	return nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records count and latency under the route pattern.
func (m *Metrics) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
