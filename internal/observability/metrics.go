package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// safety lookup pipeline.
type Metrics struct {
	// Search pipeline metrics.
	Searches       *prometheus.CounterVec // labels: outcome={ok,invalid_zip,duplicate,geocode_not_found,provider_unavailable,provider_bad_response,provider_rejected,superseded}
	SearchDuration prometheus.Histogram

	// Outbound call metrics. Error classes stay distinguishable here even
	// though the API collapses them into one user-facing message.
	GeocodeRequests  *prometheus.CounterVec // labels: outcome={success,not_found,error}
	ProviderRequests *prometheus.CounterVec // labels: provider, outcome={success,unavailable,bad_response,rejected}

	// Session state gauges.
	ResultsDisplayed prometheus.Gauge
	MarkersLive      prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Searches,
		m.SearchDuration,
		m.GeocodeRequests,
		m.ProviderRequests,
		m.ResultsDisplayed,
		m.MarkersLive,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can construct sessions freely without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zip_safety",
			Name:      "searches_total",
			Help:      "Search attempts by outcome.",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zip_safety",
			Name:      "search_duration_seconds",
			Help:      "Duration of the full geocode-fetch-score pipeline.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zip_safety",
			Name:      "geocode_requests_total",
			Help:      "ZIP geocoding lookups by outcome.",
		}, []string{"outcome"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zip_safety",
			Name:      "provider_requests_total",
			Help:      "Crime data provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ResultsDisplayed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "zip_safety",
			Name:      "results_displayed",
			Help:      "Number of results currently in the session.",
		}),
		MarkersLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "zip_safety",
			Name:      "markers_live",
			Help:      "Number of live map markers.",
		}),
	}
}
