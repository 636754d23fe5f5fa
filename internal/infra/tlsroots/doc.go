// Package tlsroots loads TLS material for the admin API: trusted roots
// for gridwire-cli and a reloading server certificate for gridwire-node.
package tlsroots
