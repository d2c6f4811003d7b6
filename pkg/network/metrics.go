package network

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the gauges the handler updates as peers connect,
// headers sync, and the task queue fills — grounded on the teacher's
// prometheus.NewGauge/MustRegister pattern for service-level metrics.
// A nil Registerer yields a Metrics that updates its gauges but never
// registers them anywhere, so tests can construct a handler without a
// registry.
type Metrics struct {
	peerCount  prometheus.Gauge
	queueDepth prometheus.Gauge
	nSync      prometheus.Gauge
}

// NewMetrics creates and, if reg is non-nil, registers the core's
// gauges.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		peerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corenode",
			Subsystem: "network",
			Name:      "connected_peers",
			Help:      "Number of peers currently in the peer registry.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corenode",
			Subsystem: "network",
			Name:      "task_queue_depth",
			Help:      "Current depth of the dispatcher's bounded task queue.",
		}),
		nSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corenode",
			Subsystem: "network",
			Name:      "headers_syncing_peers",
			Help:      "Number of peers currently being headers-synced from.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.peerCount, m.queueDepth, m.nSync)
	}
	return m
}

func (m *Metrics) setPeerCount(n int) {
	m.peerCount.Set(float64(n))
}

func (m *Metrics) setQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) setNSync(n int32) {
	m.nSync.Set(float64(n))
}
