package discovery

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

// FrameHandler receives encoded envelopes from a transport. The frame is
// owned by the handler.
type FrameHandler interface {
	HandleFrame(frame []byte)
}

// Transport moves encoded envelopes between nodes.
type Transport interface {
	// LocalID is the id of this node.
	LocalID() uuid.UUID

	// Members returns the live nodes, this one included.
	Members() []uuid.UUID

	// Send delivers frame to node to. A nil error means the frame was
	// handed to the peer, not that it was processed.
	Send(ctx context.Context, to uuid.UUID, frame []byte) error

	// Bind sets the handler for inbound frames.
	Bind(h FrameHandler)
}

// MemoryHub connects in-process transports. It backs single-process
// clusters and tests.
type MemoryHub struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]*MemoryTransport
	order []uuid.UUID
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{nodes: make(map[uuid.UUID]*MemoryTransport)}
}

// Join adds a node and returns its transport.
func (h *MemoryHub) Join(id uuid.UUID) *MemoryTransport {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.nodes[id]; ok {
		return t
	}
	t := &MemoryTransport{hub: h, id: id}
	h.nodes[id] = t
	h.order = append(h.order, id)
	h.notifyLocked()
	return t
}

// Leave removes a node; frames sent to it fail afterwards.
func (h *MemoryHub) Leave(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.nodes, id)
	for i, n := range h.order {
		if n == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.notifyLocked()
}

func (h *MemoryHub) notifyLocked() {
	for _, t := range h.nodes {
		t.mu.RLock()
		fn := t.onChange
		t.mu.RUnlock()
		if fn != nil {
			fn()
		}
	}
}

func (h *MemoryHub) members() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]uuid.UUID(nil), h.order...)
}

func (h *MemoryHub) lookup(id uuid.UUID) (*MemoryTransport, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.nodes[id]
	return t, ok
}

// MemoryTransport is one node's view of a MemoryHub.
type MemoryTransport struct {
	hub *MemoryHub
	id  uuid.UUID

	mu       sync.RWMutex
	handler  FrameHandler
	onChange func()
}

// LocalID implements Transport.
func (t *MemoryTransport) LocalID() uuid.UUID { return t.id }

// Members implements Transport.
func (t *MemoryTransport) Members() []uuid.UUID { return t.hub.members() }

// Bind implements Transport.
func (t *MemoryTransport) Bind(h FrameHandler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// OnMembershipChange implements MembershipNotifier.
func (t *MemoryTransport) OnMembershipChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Send implements Transport. The frame is copied before delivery.
func (t *MemoryTransport) Send(ctx context.Context, to uuid.UUID, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	peer, ok := t.hub.lookup(to)
	if !ok {
		return domain.ErrUnknownNode.Detailf("node %s", to)
	}
	peer.mu.RLock()
	h := peer.handler
	peer.mu.RUnlock()
	if h == nil {
		return domain.ErrUnknownNode.Detailf("node %s has no handler", to)
	}
	h.HandleFrame(append([]byte(nil), frame...))
	return nil
}
