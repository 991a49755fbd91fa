// Package metrics holds the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.HistogramVec
	resyncs       *prometheus.CounterVec
	subscriptions *prometheus.GaugeVec
	answers       *prometheus.CounterVec
	uploads       *prometheus.CounterVec
	pushes        *prometheus.CounterVec
}

// New registers every collector on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kinship",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinship",
			Name:      "feed_resyncs_total",
			Help:      "Full collection re-fetches triggered by the change feed.",
		}, []string{"collection", "result"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "kinship",
			Name:      "live_subscriptions",
			Help:      "Open change-feed subscriptions by collection.",
		}, []string{"collection"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinship",
			Name:      "quiz_answers_total",
			Help:      "Submitted quiz answers by difficulty and outcome.",
		}, []string{"difficulty", "correct"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinship",
			Name:      "media_uploads_total",
			Help:      "Media uploads by type and outcome.",
		}, []string{"type", "result"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinship",
			Name:      "push_sends_total",
			Help:      "Web push deliveries by outcome.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.resyncs,
		m.subscriptions,
		m.answers,
		m.uploads,
		m.pushes,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) Resync(collection string, err error) {
	if m == nil {
		return
	}
	m.resyncs.WithLabelValues(collection, result(err)).Inc()
}

// SubscriptionOpened and SubscriptionClosed track the live gauge.
func (m *Metrics) SubscriptionOpened(collection string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(collection).Inc()
}

func (m *Metrics) SubscriptionClosed(collection string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(collection).Dec()
}

func (m *Metrics) QuizAnswer(difficulty string, correct bool) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(difficulty, strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) MediaUpload(mediaType string, err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(mediaType, result(err)).Inc()
}

func (m *Metrics) PushSend(err error) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
