package metastore

import "time"

// Config configures a Store.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in memory.
	InMemory bool

	// GCInterval is the period of value log garbage collection. Zero
	// disables the background loop.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to value log GC.
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	CacheSize int64

	// SyncWrites fsyncs every write.
	SyncWrites bool
}

// DefaultConfig returns defaults for a store in dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   16 << 20,
	}
}
