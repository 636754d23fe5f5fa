// Package logger provides structured logging for gridwire.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: handler construction and runtime level control
//   - context.go: loggers and request IDs carried in a context
//   - redact.go: masking of admin tokens and security subjects
//
// Components receive a Logger through their constructors. Default exists
// for constructors handed a nil Logger and for cmd/ before configuration
// is loaded.
package logger
