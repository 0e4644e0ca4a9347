package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var batchesDispatched prometheus.Counter
var exchangesSent prometheus.Counter
var requestsSent prometheus.Counter

var MetricsBatchesDispatched = "lightreq_batches_dispatched_total"
var MetricsExchangesSent = "lightreq_exchanges_sent_total"
var MetricsRequestsSent = "lightreq_requests_sent_total"

func initClientMetrics() {
	batchesDispatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricsBatchesDispatched,
		Help: "Number of batches dispatched to completion",
	})
	exchangesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricsExchangesSent,
		Help: "Number of exchanges (pipelined request windows) sent",
	})
	requestsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricsRequestsSent,
		Help: "Number of complete requests sent",
	})
}

func registerClientMetrics() {
	registry.MustRegister(batchesDispatched)
	registry.MustRegister(exchangesSent)
	registry.MustRegister(requestsSent)
}

// ExchangeSent counts one exchange carrying n requests.
func ExchangeSent(n int) {
	exchangesSent.Inc()
	requestsSent.Add(float64(n))
}

// BatchDispatched counts a batch answered in full.
func BatchDispatched() {
	batchesDispatched.Inc()
}
