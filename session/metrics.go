package session

import (
	"github.com/JiscSD/cpdlc-channel-adapter/message"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cpdlc_channel_adapter"

// Metrics are the collectors updated by a Client.
type Metrics struct {
	EnvelopesReceived *prometheus.CounterVec
	RequestsSent      *prometheus.CounterVec
	PollFailures      prometheus.Counter
	CallbackFailures  prometheus.Counter
	ConnectionState   prometheus.Gauge
}

// NewMetrics returns unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		EnvelopesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelopes_received_total",
			Help:      "The total number of envelopes received from the relay.",
		}, []string{"type"}),
		RequestsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_sent_total",
			Help:      "The total number of requests delivered to the relay.",
		}, []string{"type"}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "The total number of failed poll cycles.",
		}),
		CallbackFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_failures_total",
			Help:      "The total number of observers that failed or panicked.",
		}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "CPDLC connection state (0=disconnected, 1=connecting, 2=connected, 3=disconnecting).",
		}),
	}
}

// Collectors returns every collector, e.g. to register them.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.EnvelopesReceived,
		m.RequestsSent,
		m.PollFailures,
		m.CallbackFailures,
		m.ConnectionState,
	}
}

func (m *Metrics) received(env *message.Envelope) {
	m.EnvelopesReceived.WithLabelValues(string(env.Type)).Inc()
}

func (m *Metrics) sent(t message.PacketType) {
	m.RequestsSent.WithLabelValues(string(t)).Inc()
}
