package exchange

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/wire"
)

// Wire codes.
const (
	TypePartitionsFull int16 = 46
	TypePartitionMap   int16 = 47
)

// Unowned marks a partition a node does not hold.
const Unowned int64 = -1

// PartitionMap holds, per node, an update counter for every partition
// indexed by partition id. Partitions the node does not own hold Unowned.
type PartitionMap struct {
	Owners map[uuid.UUID][]int64
}

// Counter returns node's counter for partition p.
func (m *PartitionMap) Counter(node uuid.UUID, p int32) (int64, bool) {
	c, ok := m.Owners[node]
	if !ok || p < 0 || int(p) >= len(c) || c[p] == Unowned {
		return 0, false
	}
	return c[p], true
}

func (m *PartitionMap) TypeCode() int16 { return TypePartitionMap }

func (m *PartitionMap) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return wire.WriteMap(w, m.Owners, wire.CompareUUID, (*wire.Writer).WriteUUID, (*wire.Writer).WriteInt64s)
	}
	return true
}

func (m *PartitionMap) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.Owners, ok = wire.ReadMap(r, (*wire.Reader).ReadUUID, (*wire.Reader).ReadInt64s)
	return ok
}

// PartitionsFull is the full partition state for one topology version.
type PartitionsFull struct {
	TopologyVersion int64
	Partitions      *PartitionMap
}

func (m *PartitionsFull) TypeCode() int16 { return TypePartitionsFull }

func (m *PartitionsFull) String() string {
	n := 0
	if m.Partitions != nil {
		n = len(m.Partitions.Owners)
	}
	return fmt.Sprintf("PartitionsFull[topVer=%d, nodes=%d]", m.TopologyVersion, n)
}

func (m *PartitionsFull) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt64(m.TopologyVersion)
	case 1:
		if m.Partitions == nil {
			return w.WriteCompressed(nil)
		}
		return w.WriteCompressed(m.Partitions)
	}
	return true
}

func (m *PartitionsFull) ReadField(r *wire.Reader, idx int) bool {
	switch idx {
	case 0:
		v, ok := r.ReadInt64()
		m.TopologyVersion = v
		return ok
	case 1:
		msg, ok := r.ReadCompressed()
		if !ok || msg == nil {
			return ok
		}
		pm, isMap := msg.(*PartitionMap)
		if !isMap {
			return r.Fail(fmt.Errorf("exchange: partitions field holds type code %d", msg.TypeCode()))
		}
		m.Partitions = pm
	}
	return true
}

// Snapshot builds a PartitionMap from a. counter supplies the update
// counter of an owned partition; nil yields zero counters.
func Snapshot(a *Assignment, counter func(node uuid.UUID, p int32) int64) *PartitionMap {
	owned := a.Owned()
	pm := &PartitionMap{Owners: make(map[uuid.UUID][]int64, len(owned))}
	for _, node := range a.Nodes() {
		c := make([]int64, a.Partitions())
		for i := range c {
			c[i] = Unowned
		}
		for _, p := range owned[node] {
			if counter != nil {
				c[p] = counter(node, p)
			} else {
				c[p] = 0
			}
		}
		pm.Owners[node] = c
	}
	return pm
}

// RegisterMessages adds both partition messages to reg.
func RegisterMessages(reg *wire.Registry) error {
	types := []wire.Type{
		{
			Code:   TypePartitionsFull,
			Name:   "PartitionsFull",
			Fields: []wire.Field{{Name: "topVer", Kind: wire.KindInt64}, {Name: "partitions", Kind: wire.KindCompressed}},
			New:    func() wire.Message { return &PartitionsFull{} },
		},
		{
			Code:   TypePartitionMap,
			Name:   "PartitionMap",
			Fields: []wire.Field{{Name: "owners", Kind: wire.KindMap}},
			New:    func() wire.Message { return &PartitionMap{} },
		},
	}
	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
