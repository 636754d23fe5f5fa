package discovery

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// TypeEnvelope is the wire code of Envelope.
const TypeEnvelope int16 = 21

// Envelope carries one CustomMessage around the ring.
//
// The payload is held in one of two forms on the wire: as a nested typed
// message when it implements wire.Message, otherwise as marshaller bytes.
// Call PrepareMarshal before encoding and FinishUnmarshal after decoding.
type Envelope struct {
	id              ulid.ULID
	creatorNodeID   uuid.UUID
	verifierNodeID  uuid.UUID
	topologyVersion int64
	msgBytes        []byte
	serMsg          wire.Message

	msg CustomMessage
}

// NewEnvelope wraps msg for a pass started by creator.
func NewEnvelope(creator uuid.UUID, msg CustomMessage) *Envelope {
	return &Envelope{
		id:            ulid.Make(),
		creatorNodeID: creator,
		msg:           msg,
	}
}

// ID identifies this envelope; an acknowledgement gets a new one.
func (e *Envelope) ID() ulid.ULID { return e.id }

// CreatorNodeID is the node that started the pass.
func (e *Envelope) CreatorNodeID() uuid.UUID { return e.creatorNodeID }

// VerifierNodeID is the coordinator that saw the envelope, if any yet.
func (e *Envelope) VerifierNodeID() uuid.UUID { return e.verifierNodeID }

// SetVerifierNodeID records the coordinator that processed the envelope.
func (e *Envelope) SetVerifierNodeID(id uuid.UUID) { e.verifierNodeID = id }

// TopologyVersion is the membership version the envelope was last sent at.
func (e *Envelope) TopologyVersion() int64 { return e.topologyVersion }

// SetTopologyVersion updates the membership version.
func (e *Envelope) SetTopologyVersion(v int64) { e.topologyVersion = v }

// Message returns the payload. After decoding it is nil until
// FinishUnmarshal runs.
func (e *Envelope) Message() CustomMessage { return e.msg }

// PrepareMarshal fixes the wire form of the payload. Typed payloads are
// nested directly. Others are marshalled to bytes; immutable payloads keep
// the bytes from an earlier call, mutable ones are re-marshalled each time.
// An envelope that was decoded and never resolved is left as received.
func (e *Envelope) PrepareMarshal(m Marshaller) error {
	if e.msg == nil {
		return nil
	}
	if typed, ok := e.msg.(wire.Message); ok {
		e.serMsg, e.msgBytes = typed, nil
		return nil
	}
	if u, ok := e.msg.(*UnresolvedMessage); ok {
		e.serMsg, e.msgBytes = nil, u.Raw
		return nil
	}
	if e.msgBytes != nil && !e.msg.IsMutable() {
		return nil
	}
	b, err := m.Marshal(e.msg)
	if err != nil {
		return err
	}
	e.serMsg, e.msgBytes = nil, b
	return nil
}

// FinishUnmarshal restores the payload from its wire form. Bytes that the
// marshaller can only partly decode leave an *UnresolvedMessage as the
// payload and return nil; the envelope can still be forwarded.
func (e *Envelope) FinishUnmarshal(m Marshaller) error {
	if e.msg != nil {
		return nil
	}
	if e.serMsg != nil {
		cm, ok := e.serMsg.(CustomMessage)
		if !ok {
			return domain.ErrUnsupportedPayloadType.Detailf("wire type %d is not a custom message", e.serMsg.TypeCode())
		}
		e.msg = cm
		return nil
	}
	if e.msgBytes == nil {
		return domain.ErrIncompleteDeserialization.Detailf("envelope %s carries no payload", e.id)
	}
	msg, err := m.Unmarshal(e.msgBytes)
	if err != nil {
		partial, ok := PartialMessage(err)
		if !ok {
			return err
		}
		msg = partial
	}
	e.msg = msg
	return nil
}

// Mutate runs fn, which changes the payload in place, and drops any bytes
// cached for it. Changing an immutable payload that already has a wire
// form breaks every node that reuses those bytes, so it panics.
func (e *Envelope) Mutate(fn func()) {
	if e.msg != nil && !e.msg.IsMutable() && (e.msgBytes != nil || e.serMsg != nil) {
		panic(fmt.Sprintf("discovery: mutating immutable payload %T of envelope %s after marshal", Unwrap(e.msg), e.id))
	}
	fn()
	e.msgBytes = nil
	if w, ok := e.msg.(*SecurityAwareWrapper); ok {
		w.invalidate()
	}
}

// TypeCode implements wire.Message.
func (e *Envelope) TypeCode() int16 { return TypeEnvelope }

// WriteField implements wire.Message.
func (e *Envelope) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteULID(e.id)
	case 1:
		return w.WriteUUID(e.creatorNodeID)
	case 2:
		return w.WriteUUID(e.verifierNodeID)
	case 3:
		return w.WriteInt64(e.topologyVersion)
	case 4:
		return w.WriteBytes(e.msgBytes)
	case 5:
		return w.WriteNested(e.serMsg)
	}
	return true
}

// ReadField implements wire.Message.
func (e *Envelope) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		e.id, ok = r.ReadULID()
	case 1:
		e.creatorNodeID, ok = r.ReadUUID()
	case 2:
		e.verifierNodeID, ok = r.ReadUUID()
	case 3:
		e.topologyVersion, ok = r.ReadInt64()
	case 4:
		e.msgBytes, ok = r.ReadBytes()
	case 5:
		e.serMsg, ok = r.ReadNested()
	default:
		ok = true
	}
	return ok
}

var envelopeFields = []wire.Field{
	{Name: "id", Kind: wire.KindULID},
	{Name: "creatorNodeId", Kind: wire.KindUUID},
	{Name: "verifierNodeId", Kind: wire.KindUUID},
	{Name: "topologyVersion", Kind: wire.KindInt64},
	{Name: "msgBytes", Kind: wire.KindBytes},
	{Name: "serMsg", Kind: wire.KindMessage},
}
