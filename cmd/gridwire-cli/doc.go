// Package main provides the entry point for gridwire-cli.
//
// The CLI talks to the admin API of a gridwire node:
//
//   - cluster, partition and message type views
//   - binary metadata registration and removal
//   - cache statistics control
//   - connection profiles and node config checks
//
// Usage:
//
//	gridwire-cli [command] [flags]
//	gridwire-cli cluster show -o json
//	gridwire-cli connect local --server 127.0.0.1:7080
//
// The CLI supports both single-command mode and interactive shell mode.
package main
