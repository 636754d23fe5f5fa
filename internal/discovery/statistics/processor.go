package statistics

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/discovery"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// Ring is the part of the discovery ring the processor uses.
type Ring interface {
	Send(ctx context.Context, msg discovery.CustomMessage) error
}

// Processor applies statistics requests to a local Table and lets callers
// wait for cluster-wide completion.
type Processor struct {
	ring  Ring
	table *Table
	marsh discovery.Marshaller
	log   logger.Logger

	mu      sync.Mutex
	waiters map[uuid.UUID]chan struct{}
}

// NewProcessor creates a processor. marsh is used to wrap Clear requests
// that carry a security subject.
func NewProcessor(ring Ring, table *Table, marsh discovery.Marshaller, log logger.Logger) *Processor {
	if log == nil {
		log = logger.Default()
	}
	return &Processor{
		ring:    ring,
		table:   table,
		marsh:   marsh,
		log:     log.With("component", "statistics"),
		waiters: make(map[uuid.UUID]chan struct{}),
	}
}

// Table returns the local statistics table.
func (p *Processor) Table() *Table { return p.table }

// SetEnabled switches statistics for caches on every node and waits until
// the response has made its pass.
func (p *Processor) SetEnabled(ctx context.Context, caches []string, enabled bool, subject uuid.UUID) error {
	if len(caches) == 0 {
		return domain.ErrBadRequest.Detailf("no caches given")
	}
	reqID := uuid.New()
	return p.request(ctx, reqID, p.wrap(NewModeChange(reqID, caches, enabled), subject))
}

// Clear resets statistics for caches on every node and waits for the
// response pass.
func (p *Processor) Clear(ctx context.Context, caches []string, subject uuid.UUID) error {
	if len(caches) == 0 {
		return domain.ErrBadRequest.Detailf("no caches given")
	}
	reqID := uuid.New()
	return p.request(ctx, reqID, p.wrap(NewClear(reqID, caches), subject))
}

func (p *Processor) wrap(msg discovery.CustomMessage, subject uuid.UUID) discovery.CustomMessage {
	if subject == uuid.Nil {
		return msg
	}
	return discovery.NewSecurityAwareWrapper(msg, subject, p.marsh)
}

func (p *Processor) request(ctx context.Context, reqID uuid.UUID, msg discovery.CustomMessage) error {
	ch := make(chan struct{})
	p.mu.Lock()
	p.waiters[reqID] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.waiters, reqID)
		p.mu.Unlock()
	}()

	if err := p.ring.Send(ctx, msg); err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return domain.ErrTimeout.WithCause(ctx.Err())
	}
}

// OnCustomMessage implements discovery.Listener.
func (p *Processor) OnCustomMessage(ctx context.Context, env *discovery.Envelope, msg discovery.CustomMessage) {
	switch m := discovery.Unwrap(msg).(type) {
	case *ModeChange:
		if m.Initial() {
			p.table.SetEnabled(m.Caches(), m.Enabled())
			p.log.Info("statistics mode changed", "caches", m.Caches(), "enabled", m.Enabled())
		}
	case *Clear:
		if m.Initial {
			p.table.Clear(m.Caches)
			p.log.Info("statistics cleared", "caches", m.Caches)
		}
	}
}

// OnPassCompleted implements discovery.CompletionListener.
func (p *Processor) OnPassCompleted(ctx context.Context, env *discovery.Envelope, msg discovery.CustomMessage) {
	switch m := discovery.Unwrap(msg).(type) {
	case *ModeChange:
		if !m.Initial() {
			p.resolve(m.RequestID())
		}
	case *Clear:
		if !m.Initial {
			p.resolve(m.ReqID)
		}
	}
}

func (p *Processor) resolve(reqID uuid.UUID) {
	p.mu.Lock()
	ch, ok := p.waiters[reqID]
	delete(p.waiters, reqID)
	p.mu.Unlock()
	if ok {
		close(ch)
	}
}
