package config

import "github.com/yndnr/gridwire-go/internal/telemetry/logger"

// Sanitize returns a copy of cfg with the admin token masked.
func Sanitize(cfg *NodeConfig) *NodeConfig {
	out := *cfg
	out.Cluster.Seeds = append([]string(nil), cfg.Cluster.Seeds...)
	if t := out.Admin.Token; t != "" {
		if masked := logger.RedactString(t); masked != t {
			out.Admin.Token = masked
		} else {
			out.Admin.Token = "***"
		}
	}
	return &out
}
