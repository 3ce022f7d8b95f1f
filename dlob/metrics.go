package dlob

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "dlob"

type subscriberMetrics struct {
	rebuildLatency prometheus.Histogram
	rebuildErrors  prometheus.Counter
	userUpdates    prometheus.Counter
	orders         prometheus.Gauge
}

func newSubscriberMetrics(registerer prometheus.Registerer) *subscriberMetrics {
	m := &subscriberMetrics{
		rebuildLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Time taken to rebuild the order book from its source",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		rebuildErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rebuild_errors_total",
			Help:      "Total number of failed order book rebuilds",
		}),
		userUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "user_updates_total",
			Help:      "Total number of user order updates applied between rebuilds",
		}),
		orders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "orders",
			Help:      "Number of orders in the current order book",
		}),
	}
	if registerer != nil {
		registerer.MustRegister(m.rebuildLatency, m.rebuildErrors, m.userUpdates, m.orders)
	}
	return m
}
