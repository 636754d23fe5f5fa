package config

import (
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/yndnr/gridwire-go/internal/discovery"
	"github.com/yndnr/gridwire-go/internal/exchange"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// Default configuration values.
const (
	DefaultDataDir        = "/var/lib/gridwire"
	DefaultGossipAddr     = "0.0.0.0"
	DefaultGossipPort     = 7946
	DefaultAdminAddr      = "127.0.0.1:7080"
	DefaultRequestTimeout = 30 * time.Second
	DefaultRateLimitRPS   = 50
	DefaultRateLimitBurst = 100
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
)

// Default returns the default node configuration.
func Default() *NodeConfig {
	return &NodeConfig{
		Node: NodeSection{
			DataDir: DefaultDataDir,
		},
		Cluster: ClusterSection{
			Gossip: GossipConfig{
				Addr:     DefaultGossipAddr,
				Port:     DefaultGossipPort,
				LogLevel: "warn",
			},
			Partitions:         exchange.DefaultPartitions,
			InboxSize:          discovery.DefaultInboxSize,
			CompletedCacheSize: discovery.DefaultCompletedCacheSize,
			SendTimeout:        discovery.DefaultSendTimeout,
			RequestTimeout:     DefaultRequestTimeout,
		},
		Codec: CodecSection{
			BufferSize:       wire.DefaultBufferSize,
			ChunkSize:        wire.ChunkSize,
			CompressionLevel: flate.DefaultCompression,
		},
		Metastore: MetastoreSection{
			GCInterval:  10 * time.Minute,
			GCThreshold: 0.5,
		},
		Admin: AdminSection{
			Addr: DefaultAdminAddr,
			RateLimit: RateLimitConfig{
				RPS:   DefaultRateLimitRPS,
				Burst: DefaultRateLimitBurst,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultMap returns Default as a koanf tree, so file and environment
// values layer on top of it.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"node": map[string]any{
			"id":       d.Node.ID,
			"data_dir": d.Node.DataDir,
		},
		"cluster": map[string]any{
			"gossip": map[string]any{
				"addr":      d.Cluster.Gossip.Addr,
				"port":      d.Cluster.Gossip.Port,
				"log_level": d.Cluster.Gossip.LogLevel,
			},
			"seeds":                []string{},
			"partitions":           d.Cluster.Partitions,
			"inbox_size":           d.Cluster.InboxSize,
			"completed_cache_size": d.Cluster.CompletedCacheSize,
			"send_timeout":         d.Cluster.SendTimeout.String(),
			"request_timeout":      d.Cluster.RequestTimeout.String(),
		},
		"codec": map[string]any{
			"buffer_size":       d.Codec.BufferSize,
			"chunk_size":        d.Codec.ChunkSize,
			"compression_level": d.Codec.CompressionLevel,
		},
		"metastore": map[string]any{
			"in_memory":    d.Metastore.InMemory,
			"gc_interval":  d.Metastore.GCInterval.String(),
			"gc_threshold": d.Metastore.GCThreshold,
			"sync_writes":  d.Metastore.SyncWrites,
		},
		"admin": map[string]any{
			"addr":  d.Admin.Addr,
			"token": d.Admin.Token,
			"rate_limit": map[string]any{
				"rps":   d.Admin.RateLimit.RPS,
				"burst": d.Admin.RateLimit.Burst,
			},
			"tls": map[string]any{
				"cert_file": "",
				"key_file":  "",
			},
		},
		"log": map[string]any{
			"level":  d.Log.Level,
			"format": d.Log.Format,
		},
	}
}
