package discovery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// Ring defaults.
const (
	DefaultInboxSize          = 256
	DefaultCompletedCacheSize = 4096
	DefaultSendTimeout        = 5 * time.Second
)

// RingConfig configures a Ring.
type RingConfig struct {
	// Transport moves frames between nodes. Required.
	Transport Transport

	// Registry decodes envelopes. It must have the discovery types and
	// every typed payload registered. Required.
	Registry *wire.Registry

	// Marshaller serializes payloads without a wire layout. Required.
	Marshaller Marshaller

	// WireOptions are passed to every frame encode and decode.
	WireOptions []wire.Option

	InboxSize          int
	CompletedCacheSize int
	SendTimeout        time.Duration

	Logger  logger.Logger
	Metrics *Metrics
}

type task struct {
	frame  []byte
	origin *Envelope
}

// Ring runs the local node's share of the discovery ring. All envelopes,
// inbound and locally created, are handled one at a time on a single
// goroutine, so listeners never run concurrently with each other.
type Ring struct {
	id        uuid.UUID
	transport Transport
	reg       *wire.Registry
	marsh     Marshaller
	wireOpts  []wire.Option
	timeout   time.Duration
	log       logger.Logger
	metrics   *Metrics

	// completed holds ids of envelopes this node created whose pass has
	// already completed.
	completed *lru.Cache

	mu        sync.RWMutex
	listeners []Listener
	onTopo    []func(version int64)

	topVer atomic.Int64

	inbox    chan task
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewRing creates a ring and binds it to cfg.Transport. Call Start to
// begin processing.
func NewRing(cfg RingConfig) (*Ring, error) {
	if cfg.Transport == nil || cfg.Registry == nil || cfg.Marshaller == nil {
		return nil, domain.ErrBadRequest.Detailf("ring needs a transport, a registry and a marshaller")
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultInboxSize
	}
	if cfg.CompletedCacheSize <= 0 {
		cfg.CompletedCacheSize = DefaultCompletedCacheSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	completed, err := lru.New(cfg.CompletedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create completed cache: %w", err)
	}

	r := &Ring{
		id:        cfg.Transport.LocalID(),
		transport: cfg.Transport,
		reg:       cfg.Registry,
		marsh:     cfg.Marshaller,
		wireOpts:  cfg.WireOptions,
		timeout:   cfg.SendTimeout,
		log:       cfg.Logger.With("component", "ring", "node_id", cfg.Transport.LocalID().String()),
		metrics:   cfg.Metrics,
		completed: completed,
		inbox:     make(chan task, cfg.InboxSize),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	if n, ok := cfg.Transport.(MembershipNotifier); ok {
		n.OnMembershipChange(r.TopologyChanged)
	}
	cfg.Transport.Bind(r)
	return r, nil
}

// MembershipNotifier is implemented by transports that report joins and
// leaves.
type MembershipNotifier interface {
	OnMembershipChange(fn func())
}

// LocalID is the id of this node.
func (r *Ring) LocalID() uuid.UUID { return r.id }

// TopologyVersion is bumped on every membership change.
func (r *Ring) TopologyVersion() int64 { return r.topVer.Load() }

// TopologyChanged records a membership change.
func (r *Ring) TopologyChanged() {
	v := r.topVer.Add(1)
	r.log.Debug("topology changed", "topology_version", v)

	r.mu.RLock()
	hooks := append([]func(int64){}, r.onTopo...)
	r.mu.RUnlock()
	for _, fn := range hooks {
		fn(v)
	}
}

// OnTopologyChange registers fn to run after every membership change. fn
// runs on the transport's event goroutine and must not block.
func (r *Ring) OnTopologyChange(fn func(version int64)) {
	r.mu.Lock()
	r.onTopo = append(r.onTopo, fn)
	r.mu.Unlock()
}

// Order returns the current members in ring order.
func (r *Ring) Order() []uuid.UUID {
	return RingOrder(r.transport.Members())
}

// Coordinator returns the first node in ring order.
func (r *Ring) Coordinator() uuid.UUID {
	order := r.Order()
	if len(order) == 0 {
		return r.id
	}
	return order[0]
}

// IsCoordinator reports whether this node coordinates the ring.
func (r *Ring) IsCoordinator() bool {
	return r.Coordinator() == r.id
}

// AddListener registers l for every payload passing through this node.
// Listeners that also implement CompletionListener are told when a pass
// this node started is complete.
func (r *Ring) AddListener(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

func (r *Ring) snapshotListeners() []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Listener(nil), r.listeners...)
}

// Start launches the processing goroutine.
func (r *Ring) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-r.stopCh
		cancel()
	}()
	go r.run(ctx)
	r.log.Info("ring started")
}

// Stop ends processing and waits for the current envelope to finish.
func (r *Ring) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.started.Load() {
			<-r.doneCh
		}
		r.log.Info("ring stopped")
	})
}

func (r *Ring) run(ctx context.Context) {
	defer close(r.doneCh)
	for {
		select {
		case <-r.stopCh:
			return
		case t := <-r.inbox:
			if t.origin != nil {
				r.originate(ctx, t.origin)
			} else {
				r.receive(ctx, t.frame)
			}
		}
	}
}

// Send starts a pass for msg from this node.
func (r *Ring) Send(ctx context.Context, msg CustomMessage) error {
	if msg == nil {
		return domain.ErrBadRequest.Detailf("nil message")
	}
	return r.enqueue(ctx, task{origin: NewEnvelope(r.id, msg)})
}

// HandleFrame implements FrameHandler.
func (r *Ring) HandleFrame(frame []byte) {
	if err := r.enqueue(context.Background(), task{frame: frame}); err != nil {
		r.log.Warn("dropping inbound frame", "error", err)
	}
}

func (r *Ring) enqueue(ctx context.Context, t task) error {
	select {
	case <-r.stopCh:
		return domain.ErrRingClosed
	default:
	}
	select {
	case r.inbox <- t:
		return nil
	case <-r.stopCh:
		return domain.ErrRingClosed
	case <-ctx.Done():
		return domain.ErrTimeout.WithCause(ctx.Err())
	}
}

// originate processes an envelope created on this node and forwards it.
func (r *Ring) originate(ctx context.Context, env *Envelope) {
	msg := env.Message()
	r.log.Debug("starting pass", "envelope_id", env.ID().String(), "payload", r.payloadName(msg))
	r.visit(ctx, env, msg)
	if msg.StopProcess() {
		return
	}
	r.forward(ctx, env)
}

func (r *Ring) receive(ctx context.Context, frame []byte) {
	decoded, err := wire.Unmarshal(r.reg, frame, r.wireOpts...)
	if err != nil {
		r.metrics.frameDropped()
		r.log.Warn("dropping undecodable frame", "bytes", len(frame), "error", err)
		return
	}
	env, ok := decoded.(*Envelope)
	if !ok {
		r.metrics.frameDropped()
		r.log.Warn("dropping frame that is not an envelope", "type_code", decoded.TypeCode())
		return
	}
	if err := env.FinishUnmarshal(r.marsh); err != nil {
		r.metrics.frameDropped()
		r.log.Warn("dropping envelope without usable payload", "envelope_id", env.ID().String(), "error", err)
		return
	}

	msg := env.Message()
	if env.CreatorNodeID() == r.id {
		r.complete(ctx, env, msg)
		return
	}
	r.visit(ctx, env, msg)
	if msg.StopProcess() {
		r.log.Debug("payload stopped", "envelope_id", env.ID().String(), "payload", r.payloadName(msg))
		return
	}
	r.forward(ctx, env)
}

// visit hands msg to the local listeners.
func (r *Ring) visit(ctx context.Context, env *Envelope, msg CustomMessage) {
	if env.VerifierNodeID() == uuid.Nil && r.IsCoordinator() {
		env.SetVerifierNodeID(r.id)
	}
	if IsUnresolved(msg) {
		r.metrics.payloadUnresolved()
		r.log.Warn("relaying payload that could not be decoded",
			"envelope_id", env.ID().String(),
			"payload", r.payloadName(msg))
		return
	}
	r.metrics.messageProcessed(r.payloadName(msg))
	for _, l := range r.snapshotListeners() {
		l.OnCustomMessage(ctx, env, msg)
	}
}

// complete runs once per envelope when it is back on its creator.
func (r *Ring) complete(ctx context.Context, env *Envelope, msg CustomMessage) {
	if seen, _ := r.completed.ContainsOrAdd(env.ID(), struct{}{}); seen {
		r.metrics.duplicateSuppressed()
		r.log.Debug("ignoring repeated pass", "envelope_id", env.ID().String())
		return
	}
	r.metrics.passCompleted(r.payloadName(msg))
	if IsUnresolved(msg) {
		r.log.Warn("pass completed with undecodable payload", "envelope_id", env.ID().String())
		return
	}
	for _, l := range r.snapshotListeners() {
		if cl, ok := l.(CompletionListener); ok {
			cl.OnPassCompleted(ctx, env, msg)
		}
	}

	ack := msg.AckMessage()
	if ack == nil {
		return
	}
	r.metrics.ackGenerated()
	r.originate(ctx, NewEnvelope(r.id, ack))
}

// forward encodes env and sends it to the first reachable successor.
func (r *Ring) forward(ctx context.Context, env *Envelope) {
	env.SetTopologyVersion(r.topVer.Load())
	if err := env.PrepareMarshal(r.marsh); err != nil {
		r.log.Error("cannot marshal payload", "envelope_id", env.ID().String(), "error", err)
		return
	}
	frame, err := wire.Marshal(r.reg, env, r.wireOpts...)
	if err != nil {
		r.log.Error("cannot encode envelope", "envelope_id", env.ID().String(), "error", err)
		return
	}

	for _, next := range Successors(r.Order(), r.id) {
		sendCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.transport.Send(sendCtx, next, frame)
		cancel()
		if err == nil {
			r.metrics.envelopeForwarded()
			return
		}
		r.metrics.sendFailed()
		r.log.Warn("successor unreachable, trying the next one", "successor", next.String(), "error", err)
	}

	if env.CreatorNodeID() == r.id {
		r.complete(ctx, env, env.Message())
		return
	}
	r.log.Warn("dropping envelope: no reachable successor", "envelope_id", env.ID().String())
}

func (r *Ring) payloadName(msg CustomMessage) string {
	switch m := Unwrap(msg).(type) {
	case *UnresolvedMessage:
		if m.TypeName != "" {
			return m.TypeName
		}
		return "unresolved"
	case NamedPayload:
		return m.PayloadType()
	case wire.Message:
		if t, ok := r.reg.Lookup(m.TypeCode()); ok {
			return t.Name
		}
		return fmt.Sprintf("%T", m)
	default:
		return fmt.Sprintf("%T", m)
	}
}
