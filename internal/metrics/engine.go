package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine call metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "engine_requests_total",
			Help:      "Total number of search engine calls",
		},
		[]string{"op", "result"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)
)

// Config store metrics.
var ConfigStoreWritesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "configstore_writes_total",
		Help:      "Config store mutations by store, operation and result",
	},
	[]string{"store", "op", "result"},
)

var (
	engineMetricsRegistered bool
	storeMetricsRegistered  bool
)

// RegisterEngineMetrics registers engine collectors. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	engineMetricsRegistered = true
}

// RegisterConfigStoreMetrics registers config store collectors. Must be called once from main.
func RegisterConfigStoreMetrics() {
	if storeMetricsRegistered {
		return
	}
	prometheus.MustRegister(ConfigStoreWritesTotal)
	storeMetricsRegistered = true
}
