// Package config defines the gridwire-node configuration.
//
//   - spec.go: NodeConfig and its sections
//   - default.go: defaults, also exported as a koanf map
//   - verify.go: range and consistency checks
//   - sanitize.go: a copy safe to log
//   - cluster.go: node identity and conversion to component configs
//
// Values are loaded through internal/infra/confloader.
package config
