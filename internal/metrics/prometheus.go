// Package metrics holds the prometheus collectors of the light
// request server and client.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var regMux sync.Mutex
var registry *prometheus.Registry

func init() {
	initMetricsCollectors()
}

// Registry returns the customized Prometheus registry, creating it and
// registering every collector on first use.
func Registry() *prometheus.Registry {
	regMux.Lock()
	defer regMux.Unlock()
	if registry == nil {
		registry = prometheus.NewRegistry()
		registerMetricsCollectors()
	}
	return registry
}

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

// Clear resets the registry and all collectors, useful for testing.
func Clear() {
	regMux.Lock()
	defer regMux.Unlock()
	registry = nil
	initMetricsCollectors()
}

func initMetricsCollectors() {
	initServerMetrics()
	initClientMetrics()
}

func registerMetricsCollectors() {
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registerServerMetrics()
	registerClientMetrics()
}
