package exchange

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/wire"
)

func newRegistry(t *testing.T) *wire.Registry {
	t.Helper()
	reg := wire.NewRegistry()
	if err := RegisterMessages(reg); err != nil {
		t.Fatalf("RegisterMessages() error = %v", err)
	}
	return reg
}

func nodes(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func TestAssignmentCoversEveryPartition(t *testing.T) {
	ids := nodes(4)
	a := NewAssignment(256, 32)
	a.SetNodes(ids)

	seen := make(map[int32]uuid.UUID)
	for node, parts := range a.Owned() {
		for _, p := range parts {
			if prev, dup := seen[p]; dup {
				t.Fatalf("partition %d owned by %s and %s", p, prev, node)
			}
			seen[p] = node
		}
	}
	if len(seen) != 256 {
		t.Fatalf("assigned %d partitions, want 256", len(seen))
	}

	b := NewAssignment(256, 32)
	for i := len(ids) - 1; i >= 0; i-- {
		b.AddNode(ids[i])
	}
	if !reflect.DeepEqual(a.Owned(), b.Owned()) {
		t.Error("assignment depends on join order")
	}
}

func TestRemoveNodeKeepsOtherOwners(t *testing.T) {
	ids := nodes(5)
	a := NewAssignment(512, 64)
	a.SetNodes(ids)
	before := a.Owned()
	v := a.Version()

	a.RemoveNode(ids[2])
	if a.Version() <= v {
		t.Error("RemoveNode() did not bump the version")
	}
	for p := int32(0); p < 512; p++ {
		owner, ok := a.Owner(p)
		if !ok || owner == ids[2] {
			t.Fatalf("Owner(%d) = %s, %v", p, owner, ok)
		}
	}
	for _, node := range ids {
		if node == ids[2] {
			continue
		}
		for _, p := range before[node] {
			if owner, _ := a.Owner(p); owner != node {
				t.Errorf("partition %d moved from %s to %s", p, node, owner)
			}
		}
	}
	if len(a.Nodes()) != 4 {
		t.Errorf("Nodes() = %d, want 4", len(a.Nodes()))
	}
}

func TestEmptyAssignment(t *testing.T) {
	a := NewAssignment(0, 0)
	if a.Partitions() != DefaultPartitions {
		t.Errorf("Partitions() = %d, want %d", a.Partitions(), DefaultPartitions)
	}
	if _, ok := a.Owner(1); ok {
		t.Error("Owner() reported an owner with no nodes")
	}
}

func TestSnapshot(t *testing.T) {
	ids := nodes(3)
	a := NewAssignment(64, 16)
	a.SetNodes(ids)
	pm := Snapshot(a, func(node uuid.UUID, p int32) int64 { return int64(p) * 10 })

	for p := int32(0); p < 64; p++ {
		owner, _ := a.Owner(p)
		for _, node := range ids {
			c, ok := pm.Counter(node, p)
			if node == owner && (!ok || c != int64(p)*10) {
				t.Errorf("Counter(%s, %d) = %d, %v", node, p, c, ok)
			}
			if node != owner && ok {
				t.Errorf("non-owner %s reports partition %d", node, p)
			}
		}
	}
}

// chunkBodyLen sums the chunk lengths of the partitions field in a
// PartitionsFull frame.
func chunkBodyLen(t *testing.T, frame []byte) (count, total int) {
	t.Helper()
	off := 2 + 8
	count = int(int32(binary.BigEndian.Uint32(frame[off+4:])))
	off += 4 + 4 + 1
	for i := 0; i < count; i++ {
		n := int(binary.BigEndian.Uint32(frame[off:]))
		total += n
		off += 4 + n
	}
	if off != len(frame) {
		t.Fatalf("frame has %d bytes after the last chunk", len(frame)-off)
	}
	return count, total
}

func TestLargePartitionMapNeedsSeveralWrites(t *testing.T) {
	rng := rand.New(rand.NewSource(46))
	pm := &PartitionMap{Owners: make(map[uuid.UUID][]int64)}
	for i := 0; i < 500; i++ {
		c := make([]int64, 8)
		for j := range c {
			c[j] = rng.Int63()
		}
		pm.Owners[uuid.New()] = c
	}
	msg := &PartitionsFull{TopologyVersion: 7, Partitions: pm}

	reg := newRegistry(t)
	w := wire.NewWriter(reg)
	buf := wire.NewBuffer(make([]byte, 4096))
	var out bytes.Buffer
	calls := 0
	for done := false; !done; {
		buf.Clear()
		var err error
		done, err = w.WriteMessage(buf, msg)
		if err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
		out.Write(buf.Bytes())
		calls++
	}
	if calls <= 2 {
		t.Fatalf("flushed in %d calls, want more than 2", calls)
	}

	count, total := chunkBodyLen(t, out.Bytes())
	if total <= 2*wire.ChunkSize {
		t.Fatalf("chunk data is %d bytes, want more than %d", total, 2*wire.ChunkSize)
	}
	if count <= 2 {
		t.Fatalf("chunk count = %d", count)
	}

	got, err := wire.Unmarshal(reg, out.Bytes())
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(got, msg) {
		t.Fatal("decoded partition map differs")
	}
}

func TestCompressiblePartitionMapChunkCount(t *testing.T) {
	pm := &PartitionMap{Owners: make(map[uuid.UUID][]int64)}
	for i := 0; i < 500; i++ {
		pm.Owners[uuid.New()] = make([]int64, 8)
	}
	msg := &PartitionsFull{TopologyVersion: 3, Partitions: pm}

	reg := newRegistry(t)
	data, err := wire.Marshal(reg, msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	raw, err := wire.Marshal(reg, pm)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	count, total := chunkBodyLen(t, data)
	if want := wire.ChunkCount(len(raw), wire.ChunkSize); count != want || count <= 2 {
		t.Fatalf("chunk count = %d, want %d (> 2)", count, want)
	}
	if total >= len(raw) {
		t.Fatalf("chunk data is %d bytes, raw map %d; want deflated", total, len(raw))
	}

	got, err := wire.Unmarshal(reg, data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(got, msg) {
		t.Fatal("decoded partition map differs")
	}
}

func TestPartitionsFullNilMap(t *testing.T) {
	reg := newRegistry(t)
	msg := &PartitionsFull{TopologyVersion: 1}
	data, err := wire.Marshal(reg, msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := wire.Unmarshal(reg, data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(got, msg) {
		t.Errorf("decoded %v, want %v", got, msg)
	}
}
