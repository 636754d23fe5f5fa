package statistics

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/discovery"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// TypeModeChange is the wire code of ModeChange.
const TypeModeChange int16 = 500

// ModeChange flags.
const (
	FlagInitial uint8 = 0x01
	FlagEnabled uint8 = 0x02
)

// ModeChange enables or disables statistics for a set of caches.
type ModeChange struct {
	id     ulid.ULID
	reqID  uuid.UUID
	caches []string
	flags  uint8
}

// NewModeChange creates a request.
func NewModeChange(reqID uuid.UUID, caches []string, enabled bool) *ModeChange {
	flags := FlagInitial
	if enabled {
		flags |= FlagEnabled
	}
	return &ModeChange{id: ulid.Make(), reqID: reqID, caches: caches, flags: flags}
}

// ID returns the message id.
func (m *ModeChange) ID() ulid.ULID { return m.id }

// RequestID ties a response to its request.
func (m *ModeChange) RequestID() uuid.UUID { return m.reqID }

// Caches returns the affected caches. A response carries none.
func (m *ModeChange) Caches() []string { return m.caches }

// Initial reports whether this is the request rather than the response.
func (m *ModeChange) Initial() bool { return m.flags&FlagInitial != 0 }

// Enabled is the requested mode.
func (m *ModeChange) Enabled() bool { return m.flags&FlagEnabled != 0 }

// AckMessage returns the response to a request, or nil for a response.
func (m *ModeChange) AckMessage() discovery.CustomMessage {
	if !m.Initial() {
		return nil
	}
	return &ModeChange{id: ulid.Make(), reqID: m.reqID, flags: m.flags &^ FlagInitial}
}

// IsMutable is false: the request is not changed on its way round the ring.
func (m *ModeChange) IsMutable() bool { return false }

// StopProcess is false: every node applies the mode.
func (m *ModeChange) StopProcess() bool { return false }

// TypeCode returns TypeModeChange.
func (m *ModeChange) TypeCode() int16 { return TypeModeChange }

func (m *ModeChange) String() string {
	kind := "response"
	if m.Initial() {
		kind = "request"
	}
	return "statistics mode change " + kind + " [" + strings.Join(m.caches, ",") + "]"
}

// WriteField writes field idx in the order id, reqId, caches, flags.
func (m *ModeChange) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteULID(m.id)
	case 1:
		return w.WriteUUID(m.reqID)
	case 2:
		return wire.WriteList(w, m.caches, (*wire.Writer).WriteString)
	case 3:
		return w.WriteUint8(m.flags)
	}
	return true
}

// ReadField reads field idx in the order WriteField writes it.
func (m *ModeChange) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.id, ok = r.ReadULID()
	case 1:
		m.reqID, ok = r.ReadUUID()
	case 2:
		m.caches, ok = wire.ReadList(r, (*wire.Reader).ReadString)
	case 3:
		m.flags, ok = r.ReadUint8()
	default:
		ok = true
	}
	return ok
}

// Clear resets the statistics of a set of caches. It travels as marshaller
// bytes.
type Clear struct {
	MsgID   ulid.ULID `cbor:"1,keyasint"`
	ReqID   uuid.UUID `cbor:"2,keyasint"`
	Caches  []string  `cbor:"3,keyasint,omitempty"`
	Initial bool      `cbor:"4,keyasint"`
}

// ClearPayloadType names Clear for the marshaller.
const ClearPayloadType = "statistics.clear"

// NewClear creates a request.
func NewClear(reqID uuid.UUID, caches []string) *Clear {
	return &Clear{MsgID: ulid.Make(), ReqID: reqID, Caches: caches, Initial: true}
}

// ID returns the message id.
func (m *Clear) ID() ulid.ULID { return m.MsgID }

// PayloadType returns ClearPayloadType.
func (m *Clear) PayloadType() string { return ClearPayloadType }

// IsMutable is false: the request is not changed on its way round the ring.
func (m *Clear) IsMutable() bool { return false }

// StopProcess is false: every node clears its statistics.
func (m *Clear) StopProcess() bool { return false }

// AckMessage returns the response to a request, or nil for a response.
func (m *Clear) AckMessage() discovery.CustomMessage {
	if !m.Initial {
		return nil
	}
	return &Clear{MsgID: ulid.Make(), ReqID: m.ReqID}
}

// RegisterMessages adds ModeChange and the collected statistics messages
// to reg. The column bounds are value.Decimal structs, so reg must also
// hold the value family.
func RegisterMessages(reg *wire.Registry) error {
	for _, t := range dataTypes() {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return reg.Register(wire.Type{
		Code: TypeModeChange,
		Name: "StatisticsModeChange",
		Fields: []wire.Field{
			{Name: "id", Kind: wire.KindULID},
			{Name: "reqId", Kind: wire.KindUUID},
			{Name: "caches", Kind: wire.KindList},
			{Name: "flags", Kind: wire.KindUint8},
		},
		New: func() wire.Message { return &ModeChange{} },
	})
}

// RegisterPayloads adds Clear to payloads.
func RegisterPayloads(payloads *discovery.PayloadRegistry) error {
	return payloads.Register(func() discovery.NamedPayload { return &Clear{} })
}
