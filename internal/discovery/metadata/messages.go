package metadata

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/discovery"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// Wire codes.
const (
	TypeRemoveAccepted int16 = 502
	TypeRemoveProposed int16 = 503
)

// RemoveProposed asks the cluster to drop the metadata of one type.
type RemoveProposed struct {
	id            ulid.ULID
	origNodeID    uuid.UUID
	typeID        int32
	rejected      bool
	onCoordinator bool
	errMsg        string
}

// NewRemoveProposed creates a proposal from origin.
func NewRemoveProposed(origin uuid.UUID, typeID int32) *RemoveProposed {
	return &RemoveProposed{
		id:            ulid.Make(),
		origNodeID:    origin,
		typeID:        typeID,
		onCoordinator: true,
	}
}

// ID returns the proposal id. The coordinator's reservation is held under it.
func (m *RemoveProposed) ID() ulid.ULID { return m.id }

// OriginNodeID returns the node that proposed the removal.
func (m *RemoveProposed) OriginNodeID() uuid.UUID { return m.origNodeID }

// TypeID returns the type to remove.
func (m *RemoveProposed) TypeID() int32 { return m.typeID }

// Rejected reports whether a node rejected the proposal.
func (m *RemoveProposed) Rejected() bool { return m.rejected }

// ErrorMessage returns the rejection reason, or "".
func (m *RemoveProposed) ErrorMessage() string { return m.errMsg }

// OnCoordinator reports whether the coordinator has yet to validate the
// proposal.
func (m *RemoveProposed) OnCoordinator() bool { return m.onCoordinator }

// Validated clears the on-coordinator flag.
func (m *RemoveProposed) Validated() { m.onCoordinator = false }

// MarkRejected rejects the proposal. A rejection is never undone; later
// calls keep the first reason.
func (m *RemoveProposed) MarkRejected(reason string) {
	if m.rejected {
		return
	}
	m.rejected = true
	m.errMsg = reason
}

// AckMessage returns a fresh acceptance, or nil once rejected.
func (m *RemoveProposed) AckMessage() discovery.CustomMessage {
	if m.rejected {
		return nil
	}
	return NewRemoveAccepted(m.typeID)
}

// IsMutable is true: the coordinator validates or rejects in flight.
func (m *RemoveProposed) IsMutable() bool { return true }

// StopProcess is false: a rejected proposal still completes its pass.
func (m *RemoveProposed) StopProcess() bool { return false }

// TypeCode returns TypeRemoveProposed.
func (m *RemoveProposed) TypeCode() int16 { return TypeRemoveProposed }

// WriteField writes field idx in the order id, origNodeId, typeId,
// rejected, onCoordinator, errMsg.
func (m *RemoveProposed) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteULID(m.id)
	case 1:
		return w.WriteUUID(m.origNodeID)
	case 2:
		return w.WriteInt32(m.typeID)
	case 3:
		return w.WriteBool(m.rejected)
	case 4:
		return w.WriteBool(m.onCoordinator)
	case 5:
		return w.WriteString(m.errMsg)
	}
	return true
}

// ReadField reads field idx in the order WriteField writes it.
func (m *RemoveProposed) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.id, ok = r.ReadULID()
	case 1:
		m.origNodeID, ok = r.ReadUUID()
	case 2:
		m.typeID, ok = r.ReadInt32()
	case 3:
		m.rejected, ok = r.ReadBool()
	case 4:
		m.onCoordinator, ok = r.ReadBool()
	case 5:
		m.errMsg, ok = r.ReadString()
	default:
		ok = true
	}
	return ok
}

// RemoveAccepted tells every node to drop the type.
type RemoveAccepted struct {
	id         ulid.ULID
	typeID     int32
	duplicated bool
}

// NewRemoveAccepted creates an acceptance with a fresh id.
func NewRemoveAccepted(typeID int32) *RemoveAccepted {
	return &RemoveAccepted{id: ulid.Make(), typeID: typeID}
}

// ID returns the message id.
func (m *RemoveAccepted) ID() ulid.ULID { return m.id }

// TypeID returns the removed type.
func (m *RemoveAccepted) TypeID() int32 { return m.typeID }

// Duplicated reports that this pass repeats one already applied.
func (m *RemoveAccepted) Duplicated() bool { return m.duplicated }

// MarkDuplicated flags the pass so later nodes skip it.
func (m *RemoveAccepted) MarkDuplicated() { m.duplicated = true }

// AckMessage returns nil: the acceptance ends the exchange.
func (m *RemoveAccepted) AckMessage() discovery.CustomMessage { return nil }

// IsMutable is true: the coordinator may mark the pass duplicated.
func (m *RemoveAccepted) IsMutable() bool { return true }

// StopProcess is false.
func (m *RemoveAccepted) StopProcess() bool { return false }

// TypeCode returns TypeRemoveAccepted.
func (m *RemoveAccepted) TypeCode() int16 { return TypeRemoveAccepted }

// WriteField writes field idx in the order id, typeId, duplicated.
func (m *RemoveAccepted) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteULID(m.id)
	case 1:
		return w.WriteInt32(m.typeID)
	case 2:
		return w.WriteBool(m.duplicated)
	}
	return true
}

// ReadField reads field idx in the order WriteField writes it.
func (m *RemoveAccepted) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.id, ok = r.ReadULID()
	case 1:
		m.typeID, ok = r.ReadInt32()
	case 2:
		m.duplicated, ok = r.ReadBool()
	default:
		ok = true
	}
	return ok
}

// RegisterMessages adds both message types to reg.
func RegisterMessages(reg *wire.Registry) error {
	types := []wire.Type{
		{
			Code: TypeRemoveAccepted,
			Name: "MetadataRemoveAccepted",
			Fields: []wire.Field{
				{Name: "id", Kind: wire.KindULID},
				{Name: "typeId", Kind: wire.KindInt32},
				{Name: "duplicated", Kind: wire.KindBool},
			},
			New: func() wire.Message { return &RemoveAccepted{} },
		},
		{
			Code: TypeRemoveProposed,
			Name: "MetadataRemoveProposed",
			Fields: []wire.Field{
				{Name: "id", Kind: wire.KindULID},
				{Name: "origNodeId", Kind: wire.KindUUID},
				{Name: "typeId", Kind: wire.KindInt32},
				{Name: "rejected", Kind: wire.KindBool},
				{Name: "onCoordinator", Kind: wire.KindBool},
				{Name: "errMsg", Kind: wire.KindString},
			},
			New: func() wire.Message { return &RemoveProposed{} },
		},
	}
	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
