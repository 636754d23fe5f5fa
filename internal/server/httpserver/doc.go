// Package httpserver serves the gridwire admin API.
//
// Request flow for /v1 routes:
//
//	RequestID -> Recover -> AccessLog -> Instrument -> RateLimit -> TokenAuth -> handler
//
// /health, /ready and /metrics skip authentication and rate limiting.
package httpserver
