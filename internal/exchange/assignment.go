package exchange

import (
	"encoding/binary"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"

	"github.com/yndnr/gridwire-go/internal/wire"
)

const (
	// DefaultPartitions is the partition count of a cache.
	DefaultPartitions = 1024

	// DefaultVirtualNodes is the number of ring points per node.
	DefaultVirtualNodes = 128
)

// Assignment maps partitions to owner nodes.
type Assignment struct {
	mu sync.RWMutex

	partitions int
	vnodes     int

	// points maps a ring hash to its node; hashes is the sorted key set.
	points map[uint64]uuid.UUID
	hashes []uint64

	version int64
}

// NewAssignment creates an empty assignment over partitions partitions.
// Non-positive arguments select the defaults.
func NewAssignment(partitions, vnodes int) *Assignment {
	if partitions <= 0 {
		partitions = DefaultPartitions
	}
	if vnodes <= 0 {
		vnodes = DefaultVirtualNodes
	}
	return &Assignment{
		partitions: partitions,
		vnodes:     vnodes,
		points:     make(map[uint64]uuid.UUID),
	}
}

// Partitions returns the partition count.
func (a *Assignment) Partitions() int { return a.partitions }

// Version increases on every membership change.
func (a *Assignment) Version() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version
}

// AddNode places id's virtual nodes on the ring.
func (a *Assignment) AddNode(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < a.vnodes; i++ {
		a.points[hashVirtualNode(id, i)] = id
	}
	a.rebuild()
}

// RemoveNode drops id's virtual nodes.
func (a *Assignment) RemoveNode(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < a.vnodes; i++ {
		h := hashVirtualNode(id, i)
		if a.points[h] == id {
			delete(a.points, h)
		}
	}
	a.rebuild()
}

// SetNodes replaces the membership with nodes.
func (a *Assignment) SetNodes(nodes []uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.points)
	for _, id := range nodes {
		for i := 0; i < a.vnodes; i++ {
			a.points[hashVirtualNode(id, i)] = id
		}
	}
	a.rebuild()
}

// Owner returns the node owning partition p.
func (a *Assignment) Owner(p int32) (uuid.UUID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ownerLocked(p)
}

func (a *Assignment) ownerLocked(p int32) (uuid.UUID, bool) {
	if len(a.hashes) == 0 {
		return uuid.Nil, false
	}
	h := hashPartition(p)
	idx := sort.Search(len(a.hashes), func(i int) bool {
		return a.hashes[i] >= h
	})
	if idx == len(a.hashes) {
		idx = 0
	}
	return a.points[a.hashes[idx]], true
}

// Owned returns the partitions each node owns, in ascending order.
func (a *Assignment) Owned() map[uuid.UUID][]int32 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[uuid.UUID][]int32)
	for p := 0; p < a.partitions; p++ {
		if id, ok := a.ownerLocked(int32(p)); ok {
			out[id] = append(out[id], int32(p))
		}
	}
	return out
}

// Nodes lists the members in ascending id order.
func (a *Assignment) Nodes() []uuid.UUID {
	a.mu.RLock()
	defer a.mu.RUnlock()

	set := make(map[uuid.UUID]struct{})
	for _, id := range a.points {
		set[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.SortFunc(out, wire.CompareUUID)
	return out
}

func (a *Assignment) rebuild() {
	a.hashes = a.hashes[:0]
	for h := range a.points {
		a.hashes = append(a.hashes, h)
	}
	sort.Slice(a.hashes, func(i, j int) bool { return a.hashes[i] < a.hashes[j] })
	a.version++
}

func hashVirtualNode(id uuid.UUID, i int) uint64 {
	h := murmur3.New64()
	h.Write(id[:])

	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(i))
	h.Write(idx[:])

	return h.Sum64()
}

func hashPartition(p int32) uint64 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(p))
	return murmur3.Sum64(b[:])
}
