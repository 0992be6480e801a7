package childchain

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusWatcherRequests *prometheus.CounterVec
	prometheusPollAttempts    *prometheus.CounterVec

	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusWatcherRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plasma",
			Subsystem: "childchain",
			Name:      "watcher_requests",
			Help:      "Number of requests sent to the watcher",
		},
		[]string{
			"endpoint", // watcher endpoint called
			"result",   // ok, watcher_error or network_error
		},
	)
	prometheusPollAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plasma",
			Subsystem: "childchain",
			Name:      "poll_attempts",
			Help:      "Number of confirmation poll attempts",
		},
		[]string{
			"kind", // balance or utxo
		},
	)
}
