package probecarto

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector with Prometheus metrics
// registered on a private registry.
type PrometheusCollector struct {
	registry *prometheus.Registry

	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	batchSize *prometheus.CounterVec
}

// NewPrometheusCollector creates a collector with its own registry.
func NewPrometheusCollector() *PrometheusCollector {
	p := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "probecarto_operation_latency_seconds",
			Help:    "Latency of engine operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probecarto_operations_total",
			Help: "Total engine operations",
		}, []string{"op", "status"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probecarto_bytes_total",
			Help: "Encoded bytes moved to and from the blob store",
		}, []string{"direction"}),
		batchSize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probecarto_batch_items_total",
			Help: "Blobs processed by batch operations",
		}, []string{"op", "status"}),
	}
	p.registry.MustRegister(p.opLatency, p.ops, p.bytes, p.batchSize)
	return p
}

// Registry returns the registry holding the collector's metrics.
func (p *PrometheusCollector) Registry() *prometheus.Registry { return p.registry }

// WriteToTextfile writes the current metrics in the node_exporter textfile format.
func (p *PrometheusCollector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *PrometheusCollector) observe(op string, duration time.Duration, err error) {
	p.opLatency.WithLabelValues(op).Observe(duration.Seconds())
	p.ops.WithLabelValues(op, status(err)).Inc()
}

// RecordSave implements MetricsCollector.
func (p *PrometheusCollector) RecordSave(bytes int, duration time.Duration, err error) {
	p.observe("save", duration, err)
	if err == nil {
		p.bytes.WithLabelValues("out").Add(float64(bytes))
	}
}

// RecordLoad implements MetricsCollector.
func (p *PrometheusCollector) RecordLoad(bytes int, duration time.Duration, err error) {
	p.observe("load", duration, err)
	if err == nil {
		p.bytes.WithLabelValues("in").Add(float64(bytes))
	}
}

// RecordBatch implements MetricsCollector.
func (p *PrometheusCollector) RecordBatch(op string, count, failed int, duration time.Duration) {
	p.opLatency.WithLabelValues(op).Observe(duration.Seconds())
	p.batchSize.WithLabelValues(op, "ok").Add(float64(count - failed))
	p.batchSize.WithLabelValues(op, "error").Add(float64(failed))
}

// RecordEdit implements MetricsCollector.
func (p *PrometheusCollector) RecordEdit(op string, duration time.Duration, err error) {
	p.observe(op, duration, err)
}
