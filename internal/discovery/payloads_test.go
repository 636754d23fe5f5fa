package discovery

import (
	"sync/atomic"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/wire"
)

const typePing int16 = 900

// pingMessage is a typed, mutable payload. Its ack is a ping with ack set.
type pingMessage struct {
	id   ulid.ULID
	seq  int32
	ack  bool
	stop bool
	hops int32
}

func newPing(seq int32) *pingMessage {
	return &pingMessage{id: ulid.Make(), seq: seq}
}

func (m *pingMessage) ID() ulid.ULID     { return m.id }
func (m *pingMessage) IsMutable() bool   { return true }
func (m *pingMessage) StopProcess() bool { return m.stop }

func (m *pingMessage) AckMessage() CustomMessage {
	if m.ack {
		return nil
	}
	return &pingMessage{id: ulid.Make(), seq: m.seq, ack: true}
}

func (m *pingMessage) TypeCode() int16 { return typePing }

func (m *pingMessage) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteULID(m.id)
	case 1:
		return w.WriteInt32(m.seq)
	case 2:
		return w.WriteBool(m.ack)
	case 3:
		return w.WriteBool(m.stop)
	case 4:
		return w.WriteInt32(m.hops)
	}
	return true
}

func (m *pingMessage) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.id, ok = r.ReadULID()
	case 1:
		m.seq, ok = r.ReadInt32()
	case 2:
		m.ack, ok = r.ReadBool()
	case 3:
		m.stop, ok = r.ReadBool()
	case 4:
		m.hops, ok = r.ReadInt32()
	default:
		ok = true
	}
	return ok
}

var pingType = wire.Type{
	Code: typePing,
	Name: "Ping",
	Fields: []wire.Field{
		{Name: "id", Kind: wire.KindULID},
		{Name: "seq", Kind: wire.KindInt32},
		{Name: "ack", Kind: wire.KindBool},
		{Name: "stop", Kind: wire.KindBool},
		{Name: "hops", Kind: wire.KindInt32},
	},
	New: func() wire.Message { return &pingMessage{} },
}

// noteMessage has no wire layout and travels as CBOR.
type noteMessage struct {
	MsgID ulid.ULID `cbor:"1,keyasint"`
	Text  string    `cbor:"2,keyasint"`
	Count int       `cbor:"3,keyasint"`
}

func newNote(text string) *noteMessage {
	return &noteMessage{MsgID: ulid.Make(), Text: text}
}

func (m *noteMessage) ID() ulid.ULID             { return m.MsgID }
func (m *noteMessage) AckMessage() CustomMessage { return nil }
func (m *noteMessage) IsMutable() bool           { return false }
func (m *noteMessage) StopProcess() bool         { return false }
func (m *noteMessage) PayloadType() string       { return "test.note" }

// countingMarshaller counts Marshal calls.
type countingMarshaller struct {
	Marshaller
	marshals atomic.Int32
}

func (c *countingMarshaller) Marshal(msg CustomMessage) ([]byte, error) {
	c.marshals.Add(1)
	return c.Marshaller.Marshal(msg)
}

func newTestMarshaller(t *testing.T, withNote bool) *CBORMarshaller {
	t.Helper()
	payloads := NewPayloadRegistry()
	if withNote {
		if err := payloads.Register(func() NamedPayload { return &noteMessage{} }); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	m, err := NewCBORMarshaller(payloads)
	if err != nil {
		t.Fatalf("NewCBORMarshaller() error = %v", err)
	}
	return m
}

func newTestRegistry(t *testing.T, m Marshaller) *wire.Registry {
	t.Helper()
	reg := wire.NewRegistry()
	if err := RegisterMessages(reg, m); err != nil {
		t.Fatalf("RegisterMessages() error = %v", err)
	}
	reg.MustRegister(pingType)
	return reg
}

// roundTrip encodes env the way the ring does and decodes it on a node
// using reg and m.
func roundTrip(t *testing.T, env *Envelope, src Marshaller, srcReg *wire.Registry, dst Marshaller, dstReg *wire.Registry) *Envelope {
	t.Helper()
	if err := env.PrepareMarshal(src); err != nil {
		t.Fatalf("PrepareMarshal() error = %v", err)
	}
	frame, err := wire.Marshal(srcReg, env, wire.WithBufferSize(7))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded, err := wire.Unmarshal(dstReg, frame)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	out := decoded.(*Envelope)
	if err := out.FinishUnmarshal(dst); err != nil {
		t.Fatalf("FinishUnmarshal() error = %v", err)
	}
	return out
}
