// Package statistics switches and clears cache statistics cluster-wide.
//
// ModeChange is a typed wire message; Clear has no wire layout and travels
// through the discovery marshaller. Both are immutable requests whose
// acknowledgement is a response carrying the same request id and no cache
// names.
package statistics
