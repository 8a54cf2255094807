package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the domain Metrics interface using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	cacheOps     *prometheus.CounterVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_source_fetches_total",
				Help: "Quote fetches per source and outcome",
			},
			[]string{"source", "result"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinpulse_last_price",
				Help: "Last aggregated price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_cache_ops_total",
				Help: "Cache operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// RecordFetch records a quote fetch attempt and its outcome.
func (r *Recorder) RecordFetch(source, result string) {
	r.fetchesTotal.WithLabelValues(source, result).Inc()
}

// RecordLastPrice records the last aggregated price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCache records a cache hit or miss for an operation.
func (r *Recorder) RecordCache(op string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheOps.WithLabelValues(op, outcome).Inc()
}
