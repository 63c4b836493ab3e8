// Package metrics holds the prometheus collectors of the catalog service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalog"

// Metrics groups every collector the service exports.
type Metrics struct {
	RequestDuration       *prometheus.HistogramVec
	RequestsInFlight      prometheus.Gauge
	RecalculationDuration prometheus.Histogram
	VideosRescored        prometheus.Counter
	VideosScored          *prometheus.CounterVec
	CacheRequests         *prometheus.CounterVec
	SummariesProcessed    *prometheus.CounterVec
	EventsPublished       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds, by route, method and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		RecalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bci_recalculation_duration_seconds",
			Help:      "Duration of full BCI recalculations.",
			Buckets:   prometheus.DefBuckets,
		}),
		VideosRescored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bci_recalculation_videos_updated_total",
			Help:      "Videos whose stored score changed during recalculation.",
		}),
		VideosScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bci_videos_scored_total",
			Help:      "Videos scored, by mutation pathway.",
		}, []string{"pathway"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_cache_requests_total",
			Help:      "Video detail cache lookups, by result.",
		}, []string{"result"}),
		SummariesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_processed_total",
			Help:      "Summarization tasks handled, by outcome.",
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events published, by routing key and outcome.",
		}, []string{"routing_key", "outcome"}),
	}

	reg.MustRegister(
		m.RequestDuration,
		m.RequestsInFlight,
		m.RecalculationDuration,
		m.VideosRescored,
		m.VideosScored,
		m.CacheRequests,
		m.SummariesProcessed,
		m.EventsPublished,
	)

	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

// RequestStarted increments the in-flight gauge and returns its decrement.
func (m *Metrics) RequestStarted() func() {
	if m == nil {
		return func() {}
	}
	m.RequestsInFlight.Inc()
	return m.RequestsInFlight.Dec
}

// ObserveRecalculation records a completed recalculation run.
func (m *Metrics) ObserveRecalculation(d time.Duration, updated int) {
	if m == nil {
		return
	}
	m.RecalculationDuration.Observe(d.Seconds())
	m.VideosRescored.Add(float64(updated))
}

// VideoScored counts a score computed by a mutation pathway.
func (m *Metrics) VideoScored(pathway string) {
	if m == nil {
		return
	}
	m.VideosScored.WithLabelValues(pathway).Inc()
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// SummaryProcessed counts a summarization outcome.
func (m *Metrics) SummaryProcessed(outcome string) {
	if m == nil {
		return
	}
	m.SummariesProcessed.WithLabelValues(outcome).Inc()
}

// EventPublished counts a publish attempt.
func (m *Metrics) EventPublished(routingKey string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsPublished.WithLabelValues(routingKey, outcome).Inc()
}
