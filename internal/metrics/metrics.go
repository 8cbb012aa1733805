package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	providerRequests *prometheus.CounterVec
	quotaExhausted   prometheus.Counter
	resolverLookups  *prometheus.CounterVec
	watchlistWrites  prometheus.Counter
	watchlistSymbols prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.providerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatch_provider_requests_total",
			Help: "Total number of market data provider requests",
		},
		[]string{"endpoint", "status"},
	)
	r.quotaExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockwatch_provider_quota_exhausted_total",
			Help: "Number of provider responses signalling quota exhaustion",
		},
	)
	r.resolverLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatch_resolver_lookups_total",
			Help: "Ticker resolutions by path (listing, search or search-ticker) and result",
		},
		[]string{"path", "result"},
	)
	r.watchlistWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockwatch_watchlist_writes_total",
			Help: "Number of watchlist writes to storage",
		},
	)
	r.watchlistSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockwatch_watchlist_symbols",
			Help: "Number of symbols in watchlist",
		},
	)

	reg.MustRegister(r.providerRequests)
	reg.MustRegister(r.quotaExhausted)
	reg.MustRegister(r.resolverLookups)
	reg.MustRegister(r.watchlistWrites)
	reg.MustRegister(r.watchlistSymbols)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordProviderRequest records one provider call. status is "ok", "quota"
// or "error".
func (r *Registry) RecordProviderRequest(endpoint, status string) {
	r.providerRequests.WithLabelValues(endpoint, status).Inc()
	if status == "quota" {
		r.quotaExhausted.Inc()
	}
}

// RecordLookup records a resolver lookup. path is "listing" for the local
// fast path, otherwise the provider endpoint ("search" or "search-ticker").
func (r *Registry) RecordLookup(path string, found bool) {
	result := "found"
	if !found {
		result = "not_found"
	}
	r.resolverLookups.WithLabelValues(path, result).Inc()
}

// RecordWatchlistWrite records a persisted watchlist of the given size.
func (r *Registry) RecordWatchlistWrite(size int) {
	r.watchlistWrites.Inc()
	r.watchlistSymbols.Set(float64(size))
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	r.watchlistSymbols.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
