// Package wire implements the gridwire binary message codec.
//
// A message is a registered Type: a signed 16-bit code plus an ordered
// field list. The wire layout of a message is
//
//	[type code: int16][field 0][field 1]...[field N]
//
// with every integer written big-endian at fixed width. Strings and byte
// arrays carry an int32 length prefix (-1 for nil byte arrays), lists and
// maps an int32 count prefix. Polymorphic nested messages carry their own
// type code (math.MinInt16 for nil); monomorphic nested messages carry a
// single presence byte instead.
//
// Writer and Reader are resumable: every call works against a bounded
// Buffer and reports whether the whole message was produced or consumed.
// When a buffer runs out mid-value the partial bytes stay in the buffer
// and the next call continues at the exact byte where the previous one
// stopped, so a message may be split over arbitrarily small buffers.
//
// Large payloads travel as chunked fields: a header (original length,
// chunk count, compressed flag) followed by length-prefixed chunks of at
// most ChunkSize bytes. The body is deflated first when that makes it
// smaller.
//
// A Writer or Reader drives one message at a time and must not be shared
// between goroutines.
package wire
