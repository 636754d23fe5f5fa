// Package exchange builds the partition map a coordinator distributes
// after a topology change and the wire messages that carry it.
//
// Partitions are placed on nodes with consistent hashing: every node
// contributes DefaultVirtualNodes points on a murmur3 ring and a partition
// belongs to the first point at or after its own hash. The full map is
// sent as a compressed nested message because it grows with both the node
// count and the partition count.
package exchange
