// Package metrics holds the Prometheus collectors exported by the client.
//
// All methods are safe to call on a nil *Metrics, so components can be used
// without metrics wired in (as tests do).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "ascending").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the client collectors.
type Metrics struct {
	packetsReceived *prometheus.CounterVec
	packetsSent     *prometheus.CounterVec
	bytesSent       *prometheus.CounterVec
	bytesReceived   prometheus.Counter
	mapTasks        *prometheus.CounterVec
	queueDepth      *prometheus.GaugeVec
}

// New registers the client collectors.
func New(opts ...Option) *Metrics {
	config := Config{
		Namespace: "ascending",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "packets_received_total",
			Help:      "Inbound packets dispatched, by packet and result",
		}, []string{"packet", "result"}),

		packetsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "packets_sent_total",
			Help:      "Outbound packets, by send path",
		}, []string{"path"}),

		bytesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "bytes_sent_total",
			Help:      "Outbound framed bytes, by send path",
		}, []string{"path"}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "bytes_received_total",
			Help:      "Inbound framed bytes",
		}),

		mapTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "map_tasks_total",
			Help:      "Deferred map tasks executed, by kind and outcome",
		}, []string{"kind", "outcome"}),

		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "task_queue_depth",
			Help:      "Entries waiting in a deferred task queue",
		}, []string{"queue"}),
	}
}

func (m *Metrics) PacketReceived(packet, result string) {
	if m == nil {
		return
	}
	m.packetsReceived.WithLabelValues(packet, result).Inc()
}

func (m *Metrics) PacketSent(path string, bytes int) {
	if m == nil {
		return
	}
	m.packetsSent.WithLabelValues(path).Inc()
	m.bytesSent.WithLabelValues(path).Add(float64(bytes))
}

func (m *Metrics) BytesReceived(bytes int) {
	if m == nil {
		return
	}
	m.bytesReceived.Add(float64(bytes))
}

func (m *Metrics) MapTask(kind, outcome string) {
	if m == nil {
		return
	}
	m.mapTasks.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) QueueDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(queue).Set(float64(depth))
}
