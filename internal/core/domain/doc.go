// Package domain holds the error taxonomy shared by the gridwire codec,
// the discovery ring and the admin API.
//
// Every failure that crosses a package boundary carries a stable code of
// the form GW-<AREA>-<NNNN> so that logs, HTTP responses and CLI output
// can be correlated without string matching on messages.
package domain
