// Package metadata implements cluster-wide removal of binary type
// metadata over the discovery ring.
//
// A RemoveProposed message makes one pass; the coordinator rejects it if
// the type is unknown or already being removed. When the pass returns to
// the initiator unrejected, its acknowledgement RemoveAccepted makes a
// second pass and every node drops the type from its local store.
package metadata
