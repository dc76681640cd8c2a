// Package metrics exposes sieve's runtime counters and gauges as
// Prometheus collectors, replacing the reference implementation's ad hoc
// stats struct with a standard /metrics surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector sieve registers. Pass the zero value's
// address nowhere — always build one through New so the collectors are
// actually registered.
type Metrics struct {
	EventsIngested   *prometheus.CounterVec
	DedupDropped     *prometheus.CounterVec
	FilterMatches    *prometheus.CounterVec
	DecodeCacheHits  prometheus.Counter
	DecodeCacheMiss  prometheus.Counter
	WindowsOpened    prometheus.Counter
	WindowsMatched   prometheus.Counter
	WindowsTimedOut  prometheus.Counter
	ActiveChains     prometheus.Gauge
	SubscriberLag    *prometheus.CounterVec
}

// New registers sieve's collectors against reg and returns the handle used
// to update them. Pass prometheus.NewRegistry() for test isolation, or
// prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sieve_events_ingested_total",
			Help: "Events received from chain RPC pollers, before dedup.",
		}, []string{"chain", "kind"}),
		DedupDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sieve_events_deduped_total",
			Help: "Events dropped as duplicates of an already-seen identity.",
		}, []string{"chain", "kind"}),
		FilterMatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sieve_filter_matches_total",
			Help: "Events that matched a subscribed filter.",
		}, []string{"chain"}),
		DecodeCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "sieve_decode_cache_hits_total",
			Help: "ABI decodes served from cache.",
		}),
		DecodeCacheMiss: factory.NewCounter(prometheus.CounterOpts{
			Name: "sieve_decode_cache_misses_total",
			Help: "ABI decodes that required an actual unpack.",
		}),
		WindowsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "sieve_correlation_windows_opened_total",
			Help: "Correlation windows opened by WatchWithin.",
		}),
		WindowsMatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "sieve_correlation_windows_matched_total",
			Help: "Correlation windows whose every filter matched within bound.",
		}),
		WindowsTimedOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "sieve_correlation_windows_timed_out_total",
			Help: "Correlation windows discarded after bound elapsed unfilled.",
		}),
		ActiveChains: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sieve_active_chains",
			Help: "Number of chains currently connected.",
		}),
		SubscriberLag: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sieve_subscriber_dropped_events_total",
			Help: "Events dropped because a subscriber's buffer was full.",
		}, []string{"chain"}),
	}
}
