package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "collisions"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Load metrics.
	RowsRead       prometheus.Counter
	RowsDropped    *prometheus.CounterVec // labels: reason={missing_coordinates,zero_latitude,unparsable}
	RecordsLoaded  prometheus.Gauge
	LoadDuration   prometheus.Histogram
	LoadErrors     prometheus.Counter
	DatasetLookups *prometheus.CounterVec // labels: result={hit,miss}

	// View metrics.
	ViewRequests *prometheus.CounterVec   // labels: view
	ViewDuration *prometheus.HistogramVec // labels: view
	ViewRecords  *prometheus.HistogramVec // labels: view

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RowsRead,
		m.RowsDropped,
		m.RecordsLoaded,
		m.LoadDuration,
		m.LoadErrors,
		m.DatasetLookups,
		m.ViewRequests,
		m.ViewDuration,
		m.ViewRecords,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total data rows read from the CSV source.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows discarded during cleaning, by reason.",
		}, []string{"reason"}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Records in the most recently loaded dataset.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a full CSV load.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Total failed dataset loads.",
		}),
		DatasetLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_lookups_total",
			Help:      "Memoized dataset lookups by result.",
		}, []string{"result"}),
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_requests_total",
			Help:      "Dashboard view computations by view.",
		}, []string{"view"}),
		ViewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_duration_seconds",
			Help:      "Time spent computing a dashboard view.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"view"}),
		ViewRecords: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_records",
			Help:      "Records remaining after filtering, by view.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"view"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}
}
