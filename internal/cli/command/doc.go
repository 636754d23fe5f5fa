// Package command defines the gridwire-cli commands.
//
// Every command talks to one node's admin API over HTTP. Global flags pick
// the node (directly or through a saved profile) and the output format;
// the same command tree also backs the interactive shell.
package command
