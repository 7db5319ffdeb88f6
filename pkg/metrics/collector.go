// Package metrics exposes responder request counters and latencies in
// Prometheus format.
package metrics

import (
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/wire"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "benita"

// Collector holds the responder metrics. It satisfies
// service.MetricsRecorder.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec   // by kind and status
	executionFailures *prometheus.CounterVec   // by kind and command
	requestDuration   *prometheus.HistogramVec // by kind
}

// NewCollector creates a collector registered on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "responder",
			Name:      "requests_total",
			Help:      "Total number of requests answered by the responder",
		}, []string{"kind", "status"}),

		executionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "responder",
			Name:      "execution_failures_total",
			Help:      "Recognized commands that failed on the device",
		}, []string{"kind", "command"}),

		// EZO processing delays sit between 300ms and 900ms.
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "responder",
			Name:      "request_duration_seconds",
			Help:      "Time from request receipt to reply",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.25, 0.5, 0.75, 1, 2.5},
		}, []string{"kind"}),
	}

	c.registry.MustRegister(c.requestsTotal, c.executionFailures, c.requestDuration)
	return c
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveRequest records one answered request.
func (c *Collector) ObserveRequest(kind sensor.Kind, status wire.Status, elapsed time.Duration) {
	c.requestsTotal.WithLabelValues(kind.String(), status.String()).Inc()
	c.requestDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// ObserveExecutionFailure records a device failure for command.
func (c *Collector) ObserveExecutionFailure(kind sensor.Kind, command string) {
	c.executionFailures.WithLabelValues(kind.String(), command).Inc()
}
