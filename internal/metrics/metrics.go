// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	AuthzDenials    *prometheus.CounterVec
	SweepRuns       prometheus.Counter
	ArticlesPurged  prometheus.Counter
	PurgeFailures   prometheus.Counter
	EventsPublished *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		AuthzDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdesk_authz_denials_total",
			Help: "Requests rejected by the session or role gate.",
		}, []string{"reason"}),
		SweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsdesk_retention_sweeps_total",
			Help: "Completed retention sweep runs.",
		}),
		ArticlesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsdesk_articles_purged_total",
			Help: "Soft deleted articles permanently removed by the retention sweep.",
		}),
		PurgeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsdesk_article_purge_failures_total",
			Help: "Articles the retention sweep failed to remove.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdesk_events_published_total",
			Help: "Article lifecycle events handed to the broker.",
		}, []string{"routing_key", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.AuthzDenials,
		m.SweepRuns,
		m.ArticlesPurged,
		m.PurgeFailures,
		m.EventsPublished,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Denied records a rejected request. Safe on a nil receiver.
func (m *Metrics) Denied(reason string) {
	if m == nil {
		return
	}
	m.AuthzDenials.WithLabelValues(reason).Inc()
}

// Middleware measures request count, latency and in-flight requests. Routes
// are labelled by their registered template so ids do not explode cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.httpInFlight.Inc()
			defer m.httpInFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			m.httpRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
			m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
			return nil
		}
	}
}
