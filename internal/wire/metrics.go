package wire

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts codec traffic. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	messagesWritten  *prometheus.CounterVec
	messagesRead     *prometheus.CounterVec
	bytesWritten     prometheus.Counter
	bytesRead        prometheus.Counter
	chunksWritten    prometheus.Counter
	chunksRead       prometheus.Counter
	compressed       prometheus.Counter
	compressionSaved prometheus.Counter
}

// NewMetrics creates unregistered codec metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		messagesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "wire",
			Name:      "messages_written_total",
			Help:      "Messages fully encoded, by type",
		}, []string{"type"}),
		messagesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "wire",
			Name:      "messages_read_total",
			Help:      "Messages fully decoded, by type",
		}, []string{"type"}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "wire",
			Name:      "bytes_written_total",
			Help:      "Bytes produced by writers",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "wire",
			Name:      "bytes_read_total",
			Help:      "Bytes consumed by readers",
		}),
		chunksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "wire",
			Name:      "chunks_written_total",
			Help:      "Chunks emitted by chunked fields",
		}),
		chunksRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "wire",
			Name:      "chunks_read_total",
			Help:      "Chunks received by chunked fields",
		}),
		compressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "wire",
			Name:      "payloads_compressed_total",
			Help:      "Chunked payloads sent deflated",
		}),
		compressionSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "wire",
			Name:      "compression_saved_bytes_total",
			Help:      "Bytes saved by deflating chunked payloads",
		}),
	}
}

// Register adds the metrics to registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.messagesWritten, m.messagesRead,
		m.bytesWritten, m.bytesRead,
		m.chunksWritten, m.chunksRead,
		m.compressed, m.compressionSaved,
	} {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) messageWritten(typ string) {
	if m != nil {
		m.messagesWritten.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) messageRead(typ string) {
	if m != nil {
		m.messagesRead.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) addBytesWritten(n int) {
	if m != nil && n > 0 {
		m.bytesWritten.Add(float64(n))
	}
}

func (m *Metrics) addBytesRead(n int) {
	if m != nil && n > 0 {
		m.bytesRead.Add(float64(n))
	}
}

func (m *Metrics) chunkWritten() {
	if m != nil {
		m.chunksWritten.Inc()
	}
}

func (m *Metrics) chunkRead() {
	if m != nil {
		m.chunksRead.Inc()
	}
}

func (m *Metrics) payloadCompressed(saved int) {
	if m != nil {
		m.compressed.Inc()
		m.compressionSaved.Add(float64(saved))
	}
}
