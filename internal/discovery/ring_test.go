package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/gridwire-go/internal/wire"
)

// recorder logs every payload a node sees and every pass it completes.
type recorder struct {
	mu        sync.Mutex
	visits    []CustomMessage
	completed []CustomMessage
}

func (r *recorder) OnCustomMessage(ctx context.Context, env *Envelope, msg CustomMessage) {
	if p, ok := Unwrap(msg).(*pingMessage); ok && !p.ack {
		env.Mutate(func() { p.hops++ })
	}
	r.mu.Lock()
	r.visits = append(r.visits, msg)
	r.mu.Unlock()
}

func (r *recorder) OnPassCompleted(ctx context.Context, env *Envelope, msg CustomMessage) {
	r.mu.Lock()
	r.completed = append(r.completed, msg)
	r.mu.Unlock()
}

func (r *recorder) countVisits(match func(CustomMessage) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.visits {
		if match(m) {
			n++
		}
	}
	return n
}

func (r *recorder) completions() []CustomMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CustomMessage(nil), r.completed...)
}

type testNode struct {
	id        uuid.UUID
	transport *MemoryTransport
	ring      *Ring
	rec       *recorder
	marsh     *CBORMarshaller
	reg       *wire.Registry
	metrics   *Metrics
}

func newTestCluster(t *testing.T, n int, knowsNote func(i int) bool) (*MemoryHub, []*testNode) {
	t.Helper()
	hub := NewMemoryHub()
	nodes := make([]*testNode, n)
	for i := range nodes {
		id := uuid.New()
		m := newTestMarshaller(t, knowsNote == nil || knowsNote(i))
		reg := newTestRegistry(t, m)
		tr := hub.Join(id)
		metrics := NewMetrics()
		ring, err := NewRing(RingConfig{
			Transport:   tr,
			Registry:    reg,
			Marshaller:  m,
			WireOptions: []wire.Option{wire.WithBufferSize(64)},
			Metrics:     metrics,
		})
		if err != nil {
			t.Fatalf("NewRing() error = %v", err)
		}
		rec := &recorder{}
		ring.AddListener(rec)
		ring.Start()
		t.Cleanup(ring.Stop)
		nodes[i] = &testNode{id: id, transport: tr, ring: ring, rec: rec, marsh: m, reg: reg, metrics: metrics}
	}
	return hub, nodes
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func isPing(seq int32, ack bool) func(CustomMessage) bool {
	return func(m CustomMessage) bool {
		p, ok := Unwrap(m).(*pingMessage)
		return ok && p.seq == seq && p.ack == ack
	}
}

func TestRingFullPassAndAck(t *testing.T) {
	_, nodes := newTestCluster(t, 4, nil)
	creator := nodes[1]

	if err := creator.ring.Send(context.Background(), newPing(1)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	waitFor(t, "ack pass", func() bool { return len(creator.rec.completions()) == 2 })

	for i, n := range nodes {
		if got := n.rec.countVisits(isPing(1, false)); got != 1 {
			t.Errorf("node %d saw the ping %d times, want 1", i, got)
		}
		if got := n.rec.countVisits(isPing(1, true)); got != 1 {
			t.Errorf("node %d saw the ack %d times, want 1", i, got)
		}
	}

	done := creator.rec.completions()
	first, ok := done[0].(*pingMessage)
	if !ok || first.ack {
		t.Fatalf("first completion = %#v, want the ping", done[0])
	}
	if first.hops != int32(len(nodes)) {
		t.Errorf("ping completed with %d hops, want %d", first.hops, len(nodes))
	}
	if !isPing(1, true)(done[1]) {
		t.Errorf("second completion = %#v, want the ack", done[1])
	}
	if got := testutil.ToFloat64(creator.metrics.acks); got != 1 {
		t.Errorf("acks generated = %v, want 1", got)
	}
}

func TestRingRepeatedPassIgnored(t *testing.T) {
	_, nodes := newTestCluster(t, 3, nil)
	creator := nodes[0]

	env := NewEnvelope(creator.id, newPing(2))
	if err := env.PrepareMarshal(creator.marsh); err != nil {
		t.Fatalf("PrepareMarshal() error = %v", err)
	}
	frame, err := wire.Marshal(creator.reg, env)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// The same completed envelope arrives twice, as after a retried send.
	creator.ring.HandleFrame(append([]byte(nil), frame...))
	creator.ring.HandleFrame(append([]byte(nil), frame...))

	waitFor(t, "ack pass", func() bool {
		for _, n := range nodes {
			if n.rec.countVisits(isPing(2, true)) == 0 {
				return false
			}
		}
		return len(creator.rec.completions()) == 2
	})
	waitFor(t, "duplicate suppression", func() bool {
		return testutil.ToFloat64(creator.metrics.duplicates) == 1
	})
	for i, n := range nodes {
		if got := n.rec.countVisits(isPing(2, true)); got != 1 {
			t.Errorf("node %d saw the ack %d times, want 1", i, got)
		}
	}
	if got := testutil.ToFloat64(creator.metrics.acks); got != 1 {
		t.Errorf("acks generated = %v, want 1", got)
	}
}

func TestRingStopProcess(t *testing.T) {
	_, nodes := newTestCluster(t, 3, nil)
	creator := nodes[0]

	stop := newPing(3)
	stop.stop = true
	if err := creator.ring.Send(context.Background(), stop); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	// A later pass from the same node is processed after the stopped one.
	if err := creator.ring.Send(context.Background(), newPing(4)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	waitFor(t, "second ping", func() bool { return len(creator.rec.completions()) == 2 })

	if got := creator.rec.countVisits(isPing(3, false)); got != 1 {
		t.Errorf("creator saw the stopped ping %d times, want 1", got)
	}
	for i, n := range nodes[1:] {
		if got := n.rec.countVisits(isPing(3, false)); got != 0 {
			t.Errorf("node %d saw the stopped ping", i+1)
		}
	}
}

func TestRingSingleNode(t *testing.T) {
	_, nodes := newTestCluster(t, 1, nil)
	n := nodes[0]
	if !n.ring.IsCoordinator() {
		t.Fatal("single node should coordinate")
	}
	if err := n.ring.Send(context.Background(), newPing(5)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	waitFor(t, "ack pass", func() bool { return len(n.rec.completions()) == 2 })
}

func TestRingRelaysUndecodablePayload(t *testing.T) {
	// Node 1 does not know the note payload type.
	_, nodes := newTestCluster(t, 3, func(i int) bool { return i != 1 })
	creator := nodes[0]
	note := newNote("for everyone")
	if err := creator.ring.Send(context.Background(), note); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	waitFor(t, "note pass", func() bool { return len(creator.rec.completions()) == 1 })

	isNote := func(m CustomMessage) bool {
		n, ok := Unwrap(m).(*noteMessage)
		return ok && n.MsgID == note.MsgID && n.Text == "for everyone"
	}
	if nodes[1].rec.countVisits(func(CustomMessage) bool { return true }) != 0 {
		t.Error("node without the payload type should not notify listeners")
	}
	if got := testutil.ToFloat64(nodes[1].metrics.unresolved); got != 1 {
		t.Errorf("unresolved payloads on node 1 = %v, want 1", got)
	}
	for _, i := range []int{0, 2} {
		if nodes[i].rec.countVisits(isNote) != 1 {
			t.Errorf("node %d did not see the note", i)
		}
	}
}

func TestRingSkipsUnreachableSuccessor(t *testing.T) {
	_, nodes := newTestCluster(t, 3, nil)
	creator := nodes[0]
	nodes[1].transport.Bind(nil)

	if err := creator.ring.Send(context.Background(), newPing(6)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	waitFor(t, "ack pass", func() bool { return len(creator.rec.completions()) == 2 })
	if nodes[2].rec.countVisits(isPing(6, false)) != 1 {
		t.Error("reachable node missed the ping")
	}
	if nodes[1].rec.countVisits(isPing(6, false)) != 0 {
		t.Error("unreachable node saw the ping")
	}
}

func TestRingWrappedPayload(t *testing.T) {
	_, nodes := newTestCluster(t, 3, nil)
	creator := nodes[2]
	subject := uuid.New()
	msg := NewSecurityAwareWrapper(newNote("secured"), subject, creator.marsh)

	if err := creator.ring.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	waitFor(t, "wrapped pass", func() bool { return len(creator.rec.completions()) == 1 })

	for i, n := range nodes {
		got := n.rec.countVisits(func(m CustomMessage) bool {
			w, ok := m.(*SecurityAwareWrapper)
			if !ok || w.SubjectID() != subject {
				return false
			}
			note, ok := w.Delegate().(*noteMessage)
			return ok && note.Text == "secured"
		})
		if got != 1 {
			t.Errorf("node %d saw the wrapped note %d times, want 1", i, got)
		}
	}
}

func TestRingTopologyVersion(t *testing.T) {
	hub, nodes := newTestCluster(t, 2, nil)
	before := nodes[0].ring.TopologyVersion()
	hub.Join(uuid.New())
	hub.Leave(nodes[1].id)
	if got := nodes[0].ring.TopologyVersion(); got != before+2 {
		t.Fatalf("TopologyVersion() = %d, want %d", got, before+2)
	}
}

func TestRingTopologyHooks(t *testing.T) {
	hub, nodes := newTestCluster(t, 1, nil)
	var seen []int64
	nodes[0].ring.OnTopologyChange(func(v int64) { seen = append(seen, v) })
	hub.Join(uuid.New())
	hub.Join(uuid.New())
	if len(seen) != 2 || seen[1] != seen[0]+1 {
		t.Fatalf("hook saw versions %v, want two consecutive", seen)
	}
}

func TestRingSendAfterStop(t *testing.T) {
	_, nodes := newTestCluster(t, 1, nil)
	nodes[0].ring.Stop()
	if err := nodes[0].ring.Send(context.Background(), newPing(1)); err == nil {
		t.Fatal("Send() after Stop should fail")
	}
}
