package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics of the service. A nil *Registry is
// valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	FetchDuration   *prometheus.HistogramVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	Lookups         *prometheus.CounterVec
	ScheduledWarmed prometheus.Counter
}

// New creates a registry with process and Go runtime collectors attached.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_chart_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earnings_chart_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earnings_chart_provider_fetch_seconds",
				Help:    "Market data provider fetch latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "result"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_chart_cache_hits_total",
				Help: "Price series cache hits by cache type",
			},
			[]string{"cache_type"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_chart_cache_misses_total",
				Help: "Price series cache misses by cache type",
			},
			[]string{"cache_type"},
		),
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnings_chart_lookups_total",
				Help: "Chart lookups by outcome kind",
			},
			[]string{"outcome"},
		),
		ScheduledWarmed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "earnings_chart_scheduled_warms_total",
				Help: "Tickers refreshed by the warm-up job",
			},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.HTTPRequests,
		r.HTTPDuration,
		r.FetchDuration,
		r.CacheHits,
		r.CacheMisses,
		r.Lookups,
		r.ScheduledWarmed,
	)
	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying gatherer, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) ObserveRequest(route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (r *Registry) ObserveFetch(provider string, err error, d time.Duration) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.FetchDuration.WithLabelValues(provider, result).Observe(d.Seconds())
}

func (r *Registry) CacheHit(cacheType string) {
	if r == nil {
		return
	}
	r.CacheHits.WithLabelValues(cacheType).Inc()
}

func (r *Registry) CacheMiss(cacheType string) {
	if r == nil {
		return
	}
	r.CacheMisses.WithLabelValues(cacheType).Inc()
}

func (r *Registry) Lookup(outcome string) {
	if r == nil {
		return
	}
	r.Lookups.WithLabelValues(outcome).Inc()
}

func (r *Registry) Warmed() {
	if r == nil {
		return
	}
	r.ScheduledWarmed.Inc()
}
