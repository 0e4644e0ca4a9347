package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var requestsServed *prometheus.CounterVec
var requestsFailed *prometheus.CounterVec

var MetricsRequestsServed = "lightreq_requests_served_total"
var MetricsRequestsFailed = "lightreq_requests_failed_total"

func initServerMetrics() {
	requestsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricsRequestsServed,
		Help: "Number of requests answered by the server, by request kind",
	}, []string{"kind"})
	requestsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricsRequestsFailed,
		Help: "Number of requests the server failed to answer, by request kind",
	}, []string{"kind"})
}

func registerServerMetrics() {
	registry.MustRegister(requestsServed)
	registry.MustRegister(requestsFailed)
}

// RequestServed counts a successfully answered request.
func RequestServed(kind string) {
	requestsServed.WithLabelValues(kind).Inc()
}

// RequestFailed counts a request the provider could not answer.
func RequestFailed(kind string) {
	requestsFailed.WithLabelValues(kind).Inc()
}
