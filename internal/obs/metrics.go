package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every collector exported on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// HTTPRequests counts served requests by route and status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "http_requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "route", "status"})

	// HTTPLatency observes request latency by route.
	HTTPLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// UpstreamFetches counts product source loads by origin and outcome.
	UpstreamFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "upstream_fetches_total",
		Help:      "Product source loads.",
	}, []string{"origin", "outcome"})

	// SourceState is the product source warm-up state (0 cold, 1 warming, 2 warm, 3 failed).
	SourceState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "catalog",
		Name:      "source_state",
		Help:      "Product source warm-up state.",
	})

	// SourceProducts is the number of products currently loaded.
	SourceProducts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "catalog",
		Name:      "source_products",
		Help:      "Products loaded in the product source.",
	})

	// BindingFallbacks counts multi-value parameters bound with the default separator.
	BindingFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "binding_fallbacks_total",
		Help:      "Multi-value parameters whose separator was not detected.",
	}, []string{"field"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPLatency,
		UpstreamFetches,
		SourceState,
		SourceProducts,
		BindingFallbacks,
	)
}
