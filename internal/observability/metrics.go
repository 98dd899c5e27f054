package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	CatalogLookups *prometheus.CounterVec
	Evaluations    prometheus.Counter
	GridPoints     prometheus.Histogram

	// Render metrics
	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Histogram

	// Mirror metrics
	MirrorFetches *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	catalogLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_lookups_total",
			Help:      "Total number of catalog lookups",
		},
		[]string{"variant", "status"},
	)

	evaluations := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sed_evaluations_total",
			Help:      "Total number of SED evaluations",
		},
	)

	gridPoints := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sed_grid_points",
			Help:      "Grid sizes used for SED evaluations",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 5000},
		},
	)

	renders := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of rendered plots",
		},
		[]string{"format", "status"},
	)

	renderDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Plot rendering duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	mirrorFetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_fetches_total",
			Help:      "Total number of catalog mirror fetches",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		catalogLookups,
		evaluations,
		gridPoints,
		renders,
		renderDuration,
		mirrorFetches,
	)

	globalCollector = &Collector{
		registry:       registry,
		HTTPRequests:   httpRequests,
		HTTPDuration:   httpDuration,
		CatalogLookups: catalogLookups,
		Evaluations:    evaluations,
		GridPoints:     gridPoints,
		Renders:        renders,
		RenderDuration: renderDuration,
		MirrorFetches:  mirrorFetches,
	}

	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
