// Package metrics declares the Prometheus instruments an Endpoint
// reports against, grouped into a Set so repeated Bind calls (as in
// tests, one endpoint per test) can each register against their own
// *prometheus.Registry instead of panicking on duplicate
// registration against the global default one.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set is the collection of instruments one Endpoint updates over its
// lifetime.
type Set struct {
	PacketsSent        *prometheus.CounterVec
	PacketsReceived    *prometheus.CounterVec
	PacketsDropped     *prometheus.CounterVec
	Retransmits        prometheus.Counter
	HandshakeTimeouts  prometheus.Counter
	ConnectionsActive  prometheus.Gauge
	PendingAcks        prometheus.Gauge
}

// Drop reasons used as the "reason" label on PacketsDropped.
const (
	ReasonMalformed         = "malformed"
	ReasonBacklogFull       = "backlog_full"
	ReasonUnknownConnection = "unknown_connection"
	ReasonDedup             = "dedup"
)

// NewSet builds a Set and registers every instrument against reg. If
// reg is nil, a private *prometheus.Registry is created and used, so
// callers that don't care about exposing metrics (most tests) never
// need to worry about double-registering against
// prometheus.DefaultRegisterer across repeated Bind calls.
func NewSet(reg *prometheus.Registry) *Set {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Set{
		PacketsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rudp",
			Name:      "packets_sent_total",
			Help:      "Packets transmitted by the endpoint, by method.",
		}, []string{"method"}),
		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rudp",
			Name:      "packets_received_total",
			Help:      "Packets accepted by the endpoint's receive loop, by method.",
		}, []string{"method"}),
		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rudp",
			Name:      "packets_dropped_total",
			Help:      "Packets dropped before delivery, by reason.",
		}, []string{"reason"}),
		Retransmits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rudp",
			Name:      "retransmits_total",
			Help:      "Retransmit attempts issued by the retransmit loop.",
		}),
		HandshakeTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rudp",
			Name:      "handshake_timeouts_total",
			Help:      "Connect attempts whose pending-ack budget was exhausted.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rudp",
			Name:      "connections_active",
			Help:      "Connections currently present in the endpoint's connection table.",
		}),
		PendingAcks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rudp",
			Name:      "pending_acks",
			Help:      "Outstanding pending-ack records awaiting acknowledgement.",
		}),
	}

	reg.MustRegister(
		s.PacketsSent,
		s.PacketsReceived,
		s.PacketsDropped,
		s.Retransmits,
		s.HandshakeTimeouts,
		s.ConnectionsActive,
		s.PendingAcks,
	)
	return s
}
