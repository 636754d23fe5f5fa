package discovery

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts ring activity. A nil *Metrics records nothing.
type Metrics struct {
	processed  *prometheus.CounterVec
	completed  *prometheus.CounterVec
	forwarded  prometheus.Counter
	acks       prometheus.Counter
	duplicates prometheus.Counter
	unresolved prometheus.Counter
	dropped    prometheus.Counter
	sendFails  prometheus.Counter
}

// NewMetrics creates unregistered ring metrics.
func NewMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "discovery",
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "discovery",
			Name:      "messages_processed_total",
			Help:      "Payloads handed to local listeners, by payload type",
		}, []string{"type"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "discovery",
			Name:      "passes_completed_total",
			Help:      "Ring passes completed on this node as creator, by payload type",
		}, []string{"type"}),
		forwarded:  counter("envelopes_forwarded_total", "Envelopes sent to a successor"),
		acks:       counter("acks_generated_total", "Acknowledgement passes started"),
		duplicates: counter("duplicates_suppressed_total", "Completed passes seen again and ignored"),
		unresolved: counter("unresolved_payloads_total", "Payloads relayed without being decoded"),
		dropped:    counter("frames_dropped_total", "Inbound frames that could not be decoded"),
		sendFails:  counter("send_failures_total", "Failed sends to a successor"),
	}
}

// Register adds the metrics to registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.processed, m.completed, m.forwarded, m.acks,
		m.duplicates, m.unresolved, m.dropped, m.sendFails,
	} {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) messageProcessed(typ string) {
	if m != nil {
		m.processed.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) passCompleted(typ string) {
	if m != nil {
		m.completed.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) envelopeForwarded() {
	if m != nil {
		m.forwarded.Inc()
	}
}

func (m *Metrics) ackGenerated() {
	if m != nil {
		m.acks.Inc()
	}
}

func (m *Metrics) duplicateSuppressed() {
	if m != nil {
		m.duplicates.Inc()
	}
}

func (m *Metrics) payloadUnresolved() {
	if m != nil {
		m.unresolved.Inc()
	}
}

func (m *Metrics) frameDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) sendFailed() {
	if m != nil {
		m.sendFails.Inc()
	}
}
