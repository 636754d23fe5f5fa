// Package buildinfo reports the build of the running binary.
//
// Release builds inject values through ldflags:
//
//	go build -ldflags "-X github.com/yndnr/gridwire-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Commit and Go version fall back to the module build info.
package buildinfo
