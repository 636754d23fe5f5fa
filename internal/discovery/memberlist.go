package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/memberlist"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// MemberlistConfig configures a gossip transport.
type MemberlistConfig struct {
	// NodeID names the node in the gossip pool.
	NodeID uuid.UUID

	// BindAddr and BindPort are the gossip listener. Port 0 picks a free
	// port.
	BindAddr string
	BindPort int

	// SeedNodes are host:port addresses joined on start.
	SeedNodes []string

	// Meta is published to other members.
	Meta NodeMeta

	// LogLevel filters memberlist's own log lines.
	LogLevel string

	Logger logger.Logger
}

// NodeMeta is the metadata every member publishes.
type NodeMeta struct {
	Version   string `json:"version,omitempty"`
	AdminAddr string `json:"admin_addr,omitempty"`
}

// MemberlistTransport carries frames over hashicorp/memberlist reliable
// (TCP) user messages.
type MemberlistTransport struct {
	id   uuid.UUID
	ml   *memberlist.Memberlist
	log  logger.Logger
	meta []byte

	mu       sync.RWMutex
	handler  FrameHandler
	onChange func()

	shutdown atomic.Bool
}

// NewMemberlistTransport starts gossip and joins the seed nodes.
func NewMemberlistTransport(cfg MemberlistConfig) (*MemberlistTransport, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.NodeID == uuid.Nil {
		cfg.NodeID = uuid.New()
	}
	meta, err := json.Marshal(cfg.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode node meta: %w", err)
	}

	t := &MemberlistTransport{
		id:   cfg.NodeID,
		log:  cfg.Logger.With("component", "memberlist"),
		meta: meta,
	}

	mlConfig := memberlist.DefaultLANConfig()
	mlConfig.Name = cfg.NodeID.String()
	mlConfig.BindAddr = cfg.BindAddr
	mlConfig.BindPort = cfg.BindPort
	if cfg.BindPort != 0 {
		mlConfig.AdvertisePort = cfg.BindPort
	}
	mlConfig.Delegate = &frameDelegate{t: t}
	mlConfig.Events = &eventDelegate{t: t}
	mlConfig.Logger = newHCLogBridge(t.log, cfg.LogLevel).StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("create memberlist: %w", err)
	}
	t.ml = ml

	if len(cfg.SeedNodes) > 0 {
		n, err := ml.Join(cfg.SeedNodes)
		if err != nil {
			_ = ml.Shutdown()
			return nil, fmt.Errorf("join seed nodes: %w", err)
		}
		t.log.Info("joined cluster", "seed_nodes", cfg.SeedNodes, "joined_count", n)
	} else {
		t.log.Info("started gossip (bootstrap mode)", "bind_port", ml.LocalNode().Port)
	}
	return t, nil
}

// LocalID implements Transport.
func (t *MemberlistTransport) LocalID() uuid.UUID { return t.id }

// Addr returns the gossip address other nodes can join.
func (t *MemberlistTransport) Addr() string {
	n := t.ml.LocalNode()
	return n.Addr.String() + ":" + strconv.Itoa(int(n.Port))
}

// Members implements Transport.
func (t *MemberlistTransport) Members() []uuid.UUID {
	nodes := t.ml.Members()
	out := make([]uuid.UUID, 0, len(nodes))
	for _, n := range nodes {
		id, err := uuid.Parse(n.Name)
		if err != nil {
			t.log.Warn("ignoring member with non-uuid name", "name", n.Name)
			continue
		}
		out = append(out, id)
	}
	return out
}

// MemberMeta returns the metadata published by each member.
func (t *MemberlistTransport) MemberMeta() map[uuid.UUID]NodeMeta {
	out := make(map[uuid.UUID]NodeMeta)
	for _, n := range t.ml.Members() {
		id, err := uuid.Parse(n.Name)
		if err != nil {
			continue
		}
		var meta NodeMeta
		if len(n.Meta) > 0 {
			if err := json.Unmarshal(n.Meta, &meta); err != nil {
				t.log.Debug("unreadable node meta", "node_id", n.Name, "error", err)
			}
		}
		out[id] = meta
	}
	return out
}

// Bind implements Transport.
func (t *MemberlistTransport) Bind(h FrameHandler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// OnMembershipChange implements MembershipNotifier.
func (t *MemberlistTransport) OnMembershipChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Send implements Transport.
func (t *MemberlistTransport) Send(ctx context.Context, to uuid.UUID, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.shutdown.Load() {
		return domain.ErrRingClosed
	}
	name := to.String()
	for _, n := range t.ml.Members() {
		if n.Name == name {
			return t.ml.SendReliable(n, frame)
		}
	}
	return domain.ErrUnknownNode.Detailf("node %s", to)
}

// Leave broadcasts a leave and waits up to timeout for it to propagate.
func (t *MemberlistTransport) Leave(timeout time.Duration) error {
	if err := t.ml.Leave(timeout); err != nil {
		t.log.Error("failed to leave cluster", "error", err)
		return err
	}
	t.log.Info("left cluster")
	return nil
}

// Shutdown stops gossip without a leave broadcast.
func (t *MemberlistTransport) Shutdown() error {
	if !t.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	if err := t.ml.Shutdown(); err != nil {
		return fmt.Errorf("shutdown memberlist: %w", err)
	}
	t.log.Info("gossip shutdown complete")
	return nil
}

func (t *MemberlistTransport) membershipChanged() {
	t.mu.RLock()
	fn := t.onChange
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// frameDelegate implements memberlist.Delegate.
type frameDelegate struct {
	t *MemberlistTransport
}

func (d *frameDelegate) NodeMeta(limit int) []byte {
	if len(d.t.meta) > limit {
		return nil
	}
	return d.t.meta
}

// NotifyMsg hands a user message to the bound handler. memberlist reuses
// b, so it is copied.
func (d *frameDelegate) NotifyMsg(b []byte) {
	d.t.mu.RLock()
	h := d.t.handler
	d.t.mu.RUnlock()
	if h == nil {
		return
	}
	h.HandleFrame(append([]byte(nil), b...))
}

func (d *frameDelegate) GetBroadcasts(overhead, limit int) [][]byte { return nil }

func (d *frameDelegate) LocalState(join bool) []byte { return nil }

func (d *frameDelegate) MergeRemoteState(buf []byte, join bool) {}

// eventDelegate implements memberlist.EventDelegate.
type eventDelegate struct {
	t *MemberlistTransport
}

func (e *eventDelegate) NotifyJoin(node *memberlist.Node) {
	e.t.log.Info("node joined", "node_id", node.Name, "addr", node.Address())
	e.t.membershipChanged()
}

func (e *eventDelegate) NotifyLeave(node *memberlist.Node) {
	e.t.log.Info("node left", "node_id", node.Name, "addr", node.Address())
	e.t.membershipChanged()
}

func (e *eventDelegate) NotifyUpdate(node *memberlist.Node) {
	e.t.log.Debug("node updated", "node_id", node.Name)
}

// newHCLogBridge returns an hclog logger whose lines are re-emitted
// through l at the level hclog tagged them with.
func newHCLogBridge(l logger.Logger, level string) hclog.Logger {
	if level == "" {
		level = "warn"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "memberlist",
		Level:      hclog.LevelFromString(level),
		Output:     &bridgeWriter{log: l},
	})
}

type bridgeWriter struct {
	log logger.Logger
}

func (w *bridgeWriter) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	switch {
	case strings.Contains(line, "[ERROR]"):
		w.log.Error(line)
	case strings.Contains(line, "[WARN]"):
		w.log.Warn(line)
	case strings.Contains(line, "[INFO]"):
		w.log.Info(line)
	default:
		w.log.Debug(line)
	}
	return len(p), nil
}
