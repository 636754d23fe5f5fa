package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"

	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// MinChunkSize is the smallest accepted codec.chunk_size.
const MinChunkSize = 64

// Verify validates cfg and returns every problem found.
func Verify(cfg *NodeConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if cfg.Node.ID != "" {
		if _, err := uuid.Parse(cfg.Node.ID); err != nil {
			add("node.id: %w", err)
		}
	}
	if cfg.Node.DataDir == "" && (cfg.Node.ID == "" || !cfg.Metastore.InMemory) {
		add("node.data_dir is required")
	}

	if p := cfg.Cluster.Gossip.Port; p < 0 || p > 65535 {
		add("cluster.gossip.port %d out of range", p)
	}
	for _, seed := range cfg.Cluster.Seeds {
		if _, _, err := net.SplitHostPort(seed); err != nil {
			add("cluster.seeds: %q: %w", seed, err)
		}
	}
	if cfg.Cluster.Partitions < 1 {
		add("cluster.partitions must be positive")
	}
	if cfg.Cluster.SendTimeout < 0 || cfg.Cluster.RequestTimeout < 0 {
		add("cluster timeouts must not be negative")
	}

	if cfg.Codec.BufferSize < 1 {
		add("codec.buffer_size must be at least 1")
	}
	if cfg.Codec.ChunkSize < MinChunkSize {
		add("codec.chunk_size must be at least %d", MinChunkSize)
	}
	if l := cfg.Codec.CompressionLevel; l < flate.HuffmanOnly || l > flate.BestCompression {
		add("codec.compression_level %d out of range [%d, %d]", l, flate.HuffmanOnly, flate.BestCompression)
	}

	if cfg.Metastore.GCThreshold < 0 || cfg.Metastore.GCThreshold >= 1 {
		add("metastore.gc_threshold must be in [0, 1)")
	}

	if _, _, err := net.SplitHostPort(cfg.Admin.Addr); err != nil {
		add("admin.addr: %w", err)
	}
	if t := cfg.Admin.Token; t != "" && !strings.HasPrefix(t, logger.AdminTokenPrefix) {
		add("admin.token must start with %q", logger.AdminTokenPrefix)
	}
	if (cfg.Admin.TLS.CertFile == "") != (cfg.Admin.TLS.KeyFile == "") {
		add("admin.tls needs both cert_file and key_file")
	}
	if cfg.Admin.RateLimit.RPS < 0 || cfg.Admin.RateLimit.Burst < 0 {
		add("admin.rate_limit values must not be negative")
	}

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		add("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text", "console":
	default:
		add("log.format %q is not json or text", cfg.Log.Format)
	}

	return errors.Join(errs...)
}
