package wire

import "github.com/klauspost/compress/flate"

// Codec defaults.
const (
	// ChunkSize is the largest chunk body a chunked field emits.
	ChunkSize = 10 * 1024

	// DefaultBufferSize is the scratch buffer used by Marshal.
	DefaultBufferSize = 4096

	// MaxArrayLength bounds a single length-prefixed array or chunked
	// payload accepted by a Reader.
	MaxArrayLength = 256 << 20

	// MaxCollectionLength bounds the element count of a list or map.
	MaxCollectionLength = 16 << 20
)

// Option configures a Writer, Reader, Marshal or Unmarshal call.
type Option func(*options)

type options struct {
	chunkSize        int
	compressionLevel int
	bufferSize       int
	metrics          *Metrics
}

func defaultOptions() options {
	return options{
		chunkSize:        ChunkSize,
		compressionLevel: flate.DefaultCompression,
		bufferSize:       DefaultBufferSize,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithChunkSize overrides ChunkSize for chunked fields.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithCompressionLevel sets the deflate level for chunked fields.
// flate.NoCompression disables compression.
func WithCompressionLevel(level int) Option {
	return func(o *options) {
		o.compressionLevel = level
	}
}

// WithBufferSize sets the scratch buffer size Marshal drives the writer
// through.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithMetrics attaches codec metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
