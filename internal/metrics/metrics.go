package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics for the tracker.
type Metrics struct {
	CyclesTotal   *prometheus.CounterVec // labels: trigger
	CycleDuration prometheus.Histogram
	FetchesTotal  *prometheus.CounterVec // labels: status
	SkippedTotal  prometheus.Counter

	RSI   *prometheus.GaugeVec // labels: symbol
	Price *prometheus.GaugeVec // labels: symbol

	SignalsTotal    *prometheus.CounterVec // labels: type
	SignalDrops     prometheus.Counter
	WatchlistSize   prometheus.Gauge
	SubscriberDrops prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsitracker_refresh_cycles_total",
			Help: "Refresh cycles run, by trigger",
		}, []string{"trigger"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rsitracker_refresh_cycle_duration_seconds",
			Help:    "Wall time of a full refresh cycle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsitracker_symbol_fetches_total",
			Help: "Per-symbol fetch results, by reading status",
		}, []string{"status"}),
		SkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsitracker_symbol_backoff_skips_total",
			Help: "Symbols skipped in a cycle because of failure backoff",
		}),
		RSI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rsitracker_rsi",
			Help: "Latest RSI per symbol",
		}, []string{"symbol"}),
		Price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rsitracker_price",
			Help: "Latest price per symbol",
		}, []string{"symbol"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rsitracker_signals_total",
			Help: "Classification transitions, by signal type",
		}, []string{"type"}),
		SignalDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsitracker_signal_drops_total",
			Help: "Signals dropped because the delivery queue was full",
		}),
		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rsitracker_watchlist_size",
			Help: "Number of symbols on the watchlist",
		}),
		SubscriberDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rsitracker_subscriber_drops_total",
			Help: "Board updates dropped because a subscriber was slow",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.FetchesTotal,
		m.SkippedTotal,
		m.RSI,
		m.Price,
		m.SignalsTotal,
		m.SignalDrops,
		m.WatchlistSize,
		m.SubscriberDrops,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ForgetSymbol drops the per-symbol series of a removed symbol.
func (m *Metrics) ForgetSymbol(symbol string) {
	m.RSI.DeleteLabelValues(symbol)
	m.Price.DeleteLabelValues(symbol)
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the HTTP handler serving these metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
