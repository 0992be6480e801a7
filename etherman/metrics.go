package etherman

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusRootchainTxs   *prometheus.CounterVec
	prometheusRootchainPolls prometheus.Counter

	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusRootchainTxs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plasma",
			Subsystem: "rootchain",
			Name:      "transactions",
			Help:      "Number of root chain transactions sent",
		},
		[]string{
			"method", // contract method
			"result", // ok or the error kind
		},
	)
	prometheusRootchainPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plasma",
			Subsystem: "rootchain",
			Name:      "confirmation_polls",
			Help:      "Number of polls made while waiting for root chain confirmations",
		},
	)
}
