// Package config holds the gridwire-cli profile file (~/.gridwire/cli.yaml).
//
// A profile names an admin endpoint together with the token, CA file and
// security subject used to reach it. Flags and GRIDWIRE_* environment
// variables override the selected profile.
package config
