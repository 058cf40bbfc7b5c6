package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SymbolsCollected counts funding quotes successfully fetched per exchange.
var SymbolsCollected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingwatcher",
		Subsystem: "collector",
		Name:      "symbols_collected_total",
		Help:      "Number of symbols with a funding quote collected",
	},
	[]string{"exchange"},
)

// FetchFailures counts skipped symbols per exchange and failure kind.
var FetchFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingwatcher",
		Subsystem: "collector",
		Name:      "fetch_failures_total",
		Help:      "Number of symbol fetches skipped during collection",
	},
	[]string{"exchange", "kind"},
)

// PassDuration observes wall time of a full collection pass.
var PassDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "fundingwatcher",
		Subsystem: "collector",
		Name:      "pass_duration_seconds",
		Help:      "Duration of a full collection pass across all exchanges",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
	},
)

// AlertsSent counts Telegram messages delivered per tier.
var AlertsSent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingwatcher",
		Subsystem: "dispatcher",
		Name:      "alerts_sent_total",
		Help:      "Number of alert messages delivered",
	},
	[]string{"tier"},
)

// AlertsDropped counts messages dropped after retry exhaustion or a terminal
// response.
var AlertsDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingwatcher",
		Subsystem: "dispatcher",
		Name:      "alerts_dropped_total",
		Help:      "Number of alert messages dropped",
	},
	[]string{"tier"},
)

// Handler exposes the default registry for the optional metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
