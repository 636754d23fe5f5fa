package config

import "time"

// NodeConfig is the root configuration for gridwire-node.
type NodeConfig struct {
	Node      NodeSection      `koanf:"node" yaml:"node"`
	Cluster   ClusterSection   `koanf:"cluster" yaml:"cluster"`
	Codec     CodecSection     `koanf:"codec" yaml:"codec"`
	Metastore MetastoreSection `koanf:"metastore" yaml:"metastore"`
	Admin     AdminSection     `koanf:"admin" yaml:"admin"`
	Log       LogSection       `koanf:"log" yaml:"log"`
}

// NodeSection identifies the node.
type NodeSection struct {
	// ID is a UUID. When empty, an ID is generated once and kept in
	// DataDir/node-id.
	ID string `koanf:"id" yaml:"id"`

	DataDir string `koanf:"data_dir" yaml:"data_dir"`
}

// ClusterSection configures the discovery ring.
type ClusterSection struct {
	Gossip GossipConfig `koanf:"gossip" yaml:"gossip"`

	// Seeds are host:port gossip addresses of existing members.
	Seeds []string `koanf:"seeds" yaml:"seeds"`

	// Partitions is the partition count of the published partition map.
	Partitions int `koanf:"partitions" yaml:"partitions"`

	InboxSize          int           `koanf:"inbox_size" yaml:"inbox_size"`
	CompletedCacheSize int           `koanf:"completed_cache_size" yaml:"completed_cache_size"`
	SendTimeout        time.Duration `koanf:"send_timeout" yaml:"send_timeout"`

	// RequestTimeout bounds admin operations that wait for a ring pass.
	RequestTimeout time.Duration `koanf:"request_timeout" yaml:"request_timeout"`
}

// GossipConfig is the memberlist listener.
type GossipConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Port     int    `koanf:"port" yaml:"port"`
	LogLevel string `koanf:"log_level" yaml:"log_level"`
}

// CodecSection tunes the wire codec.
type CodecSection struct {
	BufferSize       int `koanf:"buffer_size" yaml:"buffer_size"`
	ChunkSize        int `koanf:"chunk_size" yaml:"chunk_size"`
	CompressionLevel int `koanf:"compression_level" yaml:"compression_level"`
}

// MetastoreSection configures the binary metadata store.
type MetastoreSection struct {
	InMemory    bool          `koanf:"in_memory" yaml:"in_memory"`
	GCInterval  time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold" yaml:"gc_threshold"`
	SyncWrites  bool          `koanf:"sync_writes" yaml:"sync_writes"`
}

// AdminSection configures the admin HTTP API.
type AdminSection struct {
	Addr string `koanf:"addr" yaml:"addr"`

	// Token, when set, is required as a bearer token on every /v1 call.
	Token string `koanf:"token" yaml:"token"`

	RateLimit RateLimitConfig `koanf:"rate_limit" yaml:"rate_limit"`

	TLS TLSConfig `koanf:"tls" yaml:"tls"`
}

// TLSConfig enables HTTPS on the admin API when both files are set. The
// pair is reloaded when it changes on disk.
type TLSConfig struct {
	CertFile string `koanf:"cert_file" yaml:"cert_file"`
	KeyFile  string `koanf:"key_file" yaml:"key_file"`
}

// Enabled reports whether HTTPS is configured.
func (c TLSConfig) Enabled() bool { return c.CertFile != "" }

// RateLimitConfig is a token bucket shared by all clients. A zero RPS
// disables limiting.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" yaml:"rps"`
	Burst int     `koanf:"burst" yaml:"burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
