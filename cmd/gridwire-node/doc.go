// Package main provides the entry point for gridwire-node.
//
// gridwire-node runs one member of a gridwire cluster:
//
//   - gossip membership and the discovery ring
//   - two-phase binary metadata removal
//   - cluster-wide cache statistics requests
//   - the partition assignment view
//   - the admin HTTP API and Prometheus metrics
//
// Usage:
//
//	gridwire-node -config /etc/gridwire/node.yaml
//	GRIDWIRE_ADMIN_ADDR=:7081 gridwire-node
//
// Environment variables prefixed with GRIDWIRE_ override file settings.
// A single underscore separates nesting levels and a double underscore
// stands for an underscore inside a key, so GRIDWIRE_NODE_DATA__DIR sets
// node.data_dir.
package main
