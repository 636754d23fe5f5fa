package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/discovery"
	"github.com/yndnr/gridwire-go/internal/storage/metastore"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
	"github.com/yndnr/gridwire-go/internal/wire"
)

const nodeIDFile = "node-id"

// NodeID returns the configured ID, or the one persisted in the data
// directory, generating and saving it on first start.
func NodeID(cfg *NodeConfig) (uuid.UUID, error) {
	if cfg.Node.ID != "" {
		return uuid.Parse(cfg.Node.ID)
	}
	path := filepath.Join(cfg.Node.DataDir, nodeIDFile)
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		id, perr := uuid.Parse(strings.TrimSpace(string(b)))
		if perr != nil {
			return uuid.Nil, fmt.Errorf("parse %s: %w", path, perr)
		}
		return id, nil
	case !errors.Is(err, os.ErrNotExist):
		return uuid.Nil, fmt.Errorf("read node id: %w", err)
	}

	id := uuid.New()
	if err := os.MkdirAll(cfg.Node.DataDir, 0o750); err != nil {
		return uuid.Nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o640); err != nil {
		return uuid.Nil, fmt.Errorf("write node id: %w", err)
	}
	return id, nil
}

// WireOptions returns the codec options for frames.
func WireOptions(cfg *NodeConfig, m *wire.Metrics) []wire.Option {
	return []wire.Option{
		wire.WithBufferSize(cfg.Codec.BufferSize),
		wire.WithChunkSize(cfg.Codec.ChunkSize),
		wire.WithCompressionLevel(cfg.Codec.CompressionLevel),
		wire.WithMetrics(m),
	}
}

// MemberlistConfig maps the cluster section onto the gossip transport.
func MemberlistConfig(cfg *NodeConfig, id uuid.UUID, meta discovery.NodeMeta, log logger.Logger) discovery.MemberlistConfig {
	return discovery.MemberlistConfig{
		NodeID:    id,
		BindAddr:  cfg.Cluster.Gossip.Addr,
		BindPort:  cfg.Cluster.Gossip.Port,
		SeedNodes: cfg.Cluster.Seeds,
		Meta:      meta,
		LogLevel:  cfg.Cluster.Gossip.LogLevel,
		Logger:    log,
	}
}

// MetastoreConfig maps the metastore section.
func MetastoreConfig(cfg *NodeConfig) metastore.Config {
	mc := metastore.DefaultConfig(filepath.Join(cfg.Node.DataDir, "metastore"))
	mc.InMemory = cfg.Metastore.InMemory
	mc.GCInterval = cfg.Metastore.GCInterval
	mc.GCThreshold = cfg.Metastore.GCThreshold
	mc.SyncWrites = cfg.Metastore.SyncWrites
	return mc
}
