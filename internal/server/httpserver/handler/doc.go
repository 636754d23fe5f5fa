// Package handler implements the gridwire admin API.
//
// Every JSON response uses the Response envelope. Errors carry the
// domain error code in both the body and the X-Error-Code header, and
// operations that drive a ring pass block until the pass completes or
// the request timeout expires.
package handler
