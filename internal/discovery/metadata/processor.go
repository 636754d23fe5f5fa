package metadata

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/discovery"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// Store is the node-local metadata the processor removes from.
type Store interface {
	Has(ctx context.Context, typeID int32) (bool, error)
	Remove(ctx context.Context, typeID int32) (bool, error)
}

// Ring is the part of the discovery ring the processor uses.
type Ring interface {
	Send(ctx context.Context, msg discovery.CustomMessage) error
	LocalID() uuid.UUID
	IsCoordinator() bool
}

// DefaultReservationTTL bounds how long the coordinator holds a type for a
// validated proposal whose acceptance has not come back.
const DefaultReservationTTL = 2 * time.Minute

// reservation is the coordinator's hold on a type between validating a
// proposal and seeing its acceptance.
type reservation struct {
	proposal ulid.ULID
	origin   uuid.UUID
	expires  time.Time
}

// Processor runs the removal protocol on one node. Register it with the
// ring as a listener.
type Processor struct {
	ring  Ring
	store Store
	log   logger.Logger
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	pending map[int32]reservation
	waiters map[int32]chan error

	removed atomic.Int64
}

// Option configures a Processor.
type Option func(*Processor)

// WithReservationTTL overrides DefaultReservationTTL.
func WithReservationTTL(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.ttl = d
		}
	}
}

// NewProcessor creates a processor.
func NewProcessor(ring Ring, store Store, log logger.Logger, opts ...Option) *Processor {
	if log == nil {
		log = logger.Default()
	}
	p := &Processor{
		ring:    ring,
		store:   store,
		log:     log.With("component", "metadata"),
		ttl:     DefaultReservationTTL,
		now:     time.Now,
		pending: make(map[int32]reservation),
		waiters: make(map[int32]chan error),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReleaseDeparted drops reservations whose proposing node is not in
// members. Their acceptance can no longer be generated.
func (p *Processor) ReleaseDeparted(members []uuid.UUID) int {
	live := make(map[uuid.UUID]struct{}, len(members))
	for _, id := range members {
		live[id] = struct{}{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	released := 0
	for typeID, r := range p.pending {
		if _, ok := live[r.origin]; !ok {
			delete(p.pending, typeID)
			released++
			p.log.Info("released removal reservation of departed node",
				"type_id", typeID, "proposal_id", r.proposal.String(), "origin", r.origin.String())
		}
	}
	return released
}

// Removed returns how many types this node has dropped from its store.
func (p *Processor) Removed() int64 { return p.removed.Load() }

// RemoveType removes typeID cluster-wide and waits for the outcome. A
// non-nil subject wraps the proposal with that security subject.
func (p *Processor) RemoveType(ctx context.Context, typeID int32, subject uuid.UUID) error {
	ch := make(chan error, 1)
	p.mu.Lock()
	if _, busy := p.waiters[typeID]; busy {
		p.mu.Unlock()
		return domain.ErrMetadataRemovalRejected.Detailf("removal of type %d already requested on this node", typeID)
	}
	p.waiters[typeID] = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.waiters[typeID] == ch {
			delete(p.waiters, typeID)
		}
		p.mu.Unlock()
	}()

	var msg discovery.CustomMessage = NewRemoveProposed(p.ring.LocalID(), typeID)
	if subject != uuid.Nil {
		msg = discovery.NewSecurityAwareWrapper(msg, subject, nil)
	}
	if err := p.ring.Send(ctx, msg); err != nil {
		return err
	}
	p.log.Info("type removal proposed", "type_id", typeID, "proposal_id", msg.ID().String())

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return domain.ErrTimeout.WithCause(ctx.Err())
	}
}

// OnCustomMessage implements discovery.Listener.
func (p *Processor) OnCustomMessage(ctx context.Context, env *discovery.Envelope, msg discovery.CustomMessage) {
	switch m := discovery.Unwrap(msg).(type) {
	case *RemoveProposed:
		p.onProposed(ctx, env, m)
	case *RemoveAccepted:
		p.onAccepted(ctx, env, m)
	}
}

// OnPassCompleted implements discovery.CompletionListener.
func (p *Processor) OnPassCompleted(ctx context.Context, env *discovery.Envelope, msg discovery.CustomMessage) {
	switch m := discovery.Unwrap(msg).(type) {
	case *RemoveProposed:
		if !m.Rejected() && m.OnCoordinator() {
			env.Mutate(func() { m.MarkRejected("proposal was not validated by a coordinator") })
		}
		if m.Rejected() {
			p.log.Warn("type removal rejected", "type_id", m.TypeID(), "reason", m.ErrorMessage())
			p.resolve(m.TypeID(), domain.ErrMetadataRemovalRejected.WithDetails(m.ErrorMessage()))
		}
	case *RemoveAccepted:
		p.resolve(m.TypeID(), nil)
	}
}

func (p *Processor) onProposed(ctx context.Context, env *discovery.Envelope, m *RemoveProposed) {
	if m.Rejected() || !m.OnCoordinator() || !p.ring.IsCoordinator() {
		return
	}
	reason := p.validate(ctx, m)
	env.Mutate(func() {
		if reason != "" {
			m.MarkRejected(reason)
		}
		m.Validated()
	})
}

// validate runs on the coordinator and returns a rejection reason, or ""
// after reserving the type for removal. A reservation held by another
// proposal blocks the type until its acceptance is seen or it expires.
func (p *Processor) validate(ctx context.Context, m *RemoveProposed) string {
	typeID := m.TypeID()
	has, err := p.store.Has(ctx, typeID)
	if err != nil {
		return fmt.Sprintf("metadata lookup failed: %v", err)
	}
	if !has {
		return fmt.Sprintf("type %d is not registered", typeID)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if r, busy := p.pending[typeID]; busy && r.proposal != m.ID() {
		if now.Before(r.expires) {
			return fmt.Sprintf("removal of type %d is already in progress", typeID)
		}
		p.log.Warn("removal reservation expired", "type_id", typeID, "proposal_id", r.proposal.String())
	}
	p.pending[typeID] = reservation{proposal: m.ID(), origin: m.OriginNodeID(), expires: now.Add(p.ttl)}
	return ""
}

func (p *Processor) onAccepted(ctx context.Context, env *discovery.Envelope, m *RemoveAccepted) {
	if m.Duplicated() {
		p.log.Debug("skipping duplicated acceptance", "type_id", m.TypeID())
		return
	}

	p.mu.Lock()
	_, wasPending := p.pending[m.TypeID()]
	delete(p.pending, m.TypeID())
	p.mu.Unlock()

	if p.ring.IsCoordinator() && !wasPending {
		// Nothing reserved this removal: it was applied by an earlier pass.
		has, err := p.store.Has(ctx, m.TypeID())
		if err == nil && !has {
			env.Mutate(m.MarkDuplicated)
			p.log.Info("acceptance marked duplicated", "type_id", m.TypeID())
			return
		}
	}

	existed, err := p.store.Remove(ctx, m.TypeID())
	if err != nil {
		p.log.Error("failed to remove type metadata", "type_id", m.TypeID(), "error", err)
		return
	}
	if existed {
		p.removed.Add(1)
		p.log.Info("type metadata removed", "type_id", m.TypeID())
	}
}

func (p *Processor) resolve(typeID int32, err error) {
	p.mu.Lock()
	ch := p.waiters[typeID]
	delete(p.waiters, typeID)
	p.mu.Unlock()
	if ch != nil {
		ch <- err
	}
}
