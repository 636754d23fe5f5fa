package discovery

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

// RingOrder sorts node ids into ring order: ascending murmur3 hash of the
// id bytes, ties broken by the bytes themselves. The first node is the
// coordinator.
func RingOrder(nodes []uuid.UUID) []uuid.UUID {
	out := slices.Clone(nodes)
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		ha, hb := murmur3.Sum64(a[:]), murmur3.Sum64(b[:])
		switch {
		case ha < hb:
			return -1
		case ha > hb:
			return 1
		}
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}

// Successors returns the nodes after self in ring order, wrapping around
// and excluding self. If self is not a member the whole order is returned.
func Successors(order []uuid.UUID, self uuid.UUID) []uuid.UUID {
	idx := slices.Index(order, self)
	if idx < 0 {
		return slices.Clone(order)
	}
	out := make([]uuid.UUID, 0, len(order)-1)
	out = append(out, order[idx+1:]...)
	return append(out, order[:idx]...)
}
