// Package discovery circulates custom messages around the cluster ring.
//
// A message is wrapped in an Envelope, sent from its creator to the next
// node in ring order and forwarded hop by hop until it returns to the
// creator. Every node, the creator included, hands the payload to its
// listeners once. When the pass completes the creator asks the payload
// for an acknowledgement and, if it gets one, starts a second pass with it.
//
// Payloads travel either as typed wire messages or, for types that have
// no wire layout, as CBOR bytes produced by a Marshaller. A node that
// cannot decode such bytes keeps an UnresolvedMessage stand-in so the
// envelope can still be relayed unchanged.
package discovery
