// Package shutdown runs named teardown hooks in reverse registration
// order when the process receives SIGINT or SIGTERM, or when a component
// asks for shutdown itself.
package shutdown
