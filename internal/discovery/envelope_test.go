package discovery

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/wire"
)

func TestEnvelopeTypedPayloadRoundTrip(t *testing.T) {
	m := newTestMarshaller(t, true)
	reg := newTestRegistry(t, m)
	creator := uuid.New()

	ping := newPing(7)
	ping.hops = 2
	env := NewEnvelope(creator, ping)
	env.SetVerifierNodeID(uuid.New())
	env.SetTopologyVersion(11)

	got := roundTrip(t, env, m, reg, m, reg)
	if got.ID() != env.ID() || got.CreatorNodeID() != creator || got.VerifierNodeID() != env.VerifierNodeID() {
		t.Fatalf("envelope header = %s/%s/%s, want %s/%s/%s",
			got.ID(), got.CreatorNodeID(), got.VerifierNodeID(), env.ID(), creator, env.VerifierNodeID())
	}
	if got.TopologyVersion() != 11 {
		t.Errorf("TopologyVersion() = %d, want 11", got.TopologyVersion())
	}
	p, ok := got.Message().(*pingMessage)
	if !ok {
		t.Fatalf("Message() = %T, want *pingMessage", got.Message())
	}
	if p.ID() != ping.ID() || p.seq != 7 || p.hops != 2 {
		t.Errorf("Message() = %+v, want %+v", p, ping)
	}
	if got.msgBytes != nil {
		t.Error("typed payload should not carry marshaller bytes")
	}
}

func TestEnvelopeBytePayloadRoundTrip(t *testing.T) {
	m := newTestMarshaller(t, true)
	reg := newTestRegistry(t, m)

	note := newNote("hello")
	got := roundTrip(t, NewEnvelope(uuid.New(), note), m, reg, m, reg)
	n, ok := got.Message().(*noteMessage)
	if !ok {
		t.Fatalf("Message() = %T, want *noteMessage", got.Message())
	}
	if n.MsgID != note.MsgID || n.Text != "hello" {
		t.Errorf("Message() = %+v, want %+v", n, note)
	}
}

func TestEnvelopeImmutableBytesReused(t *testing.T) {
	m := &countingMarshaller{Marshaller: newTestMarshaller(t, true)}
	env := NewEnvelope(uuid.New(), newNote("once"))

	for i := 0; i < 3; i++ {
		if err := env.PrepareMarshal(m); err != nil {
			t.Fatalf("PrepareMarshal() error = %v", err)
		}
	}
	if got := m.marshals.Load(); got != 1 {
		t.Fatalf("Marshal called %d times, want 1", got)
	}
}

func TestEnvelopeUnresolvedPayloadRelayedUnchanged(t *testing.T) {
	full := newTestMarshaller(t, true)
	fullReg := newTestRegistry(t, full)
	bare := newTestMarshaller(t, false)
	bareReg := newTestRegistry(t, bare)

	env := NewEnvelope(uuid.New(), newNote("opaque"))
	if err := env.PrepareMarshal(full); err != nil {
		t.Fatalf("PrepareMarshal() error = %v", err)
	}
	original := append([]byte(nil), env.msgBytes...)

	relay := roundTrip(t, env, full, fullReg, bare, bareReg)
	u, ok := relay.Message().(*UnresolvedMessage)
	if !ok {
		t.Fatalf("Message() = %T, want *UnresolvedMessage", relay.Message())
	}
	if u.TypeName != "test.note" || u.ID() != env.Message().ID() {
		t.Errorf("stand-in = %q/%s, want test.note/%s", u.TypeName, u.ID(), env.Message().ID())
	}

	// The relay forwards to a node that knows the type.
	final := roundTrip(t, relay, bare, bareReg, full, fullReg)
	if !bytes.Equal(final.msgBytes, original) {
		t.Error("relayed bytes differ from the original")
	}
	if n, ok := final.Message().(*noteMessage); !ok || n.Text != "opaque" {
		t.Fatalf("Message() after relay = %#v", final.Message())
	}
}

func TestEnvelopeFinishUnmarshalWithoutPayload(t *testing.T) {
	m := newTestMarshaller(t, true)
	reg := newTestRegistry(t, m)

	frame, err := wire.Marshal(reg, &Envelope{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded, err := wire.Unmarshal(reg, frame)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	err = decoded.(*Envelope).FinishUnmarshal(m)
	if !errors.Is(err, domain.ErrIncompleteDeserialization) {
		t.Fatalf("FinishUnmarshal() error = %v, want ErrIncompleteDeserialization", err)
	}
}

func TestEnvelopeMutate(t *testing.T) {
	m := newTestMarshaller(t, true)

	t.Run("mutable payload", func(t *testing.T) {
		ping := newPing(1)
		env := NewEnvelope(uuid.New(), ping)
		if err := env.PrepareMarshal(m); err != nil {
			t.Fatalf("PrepareMarshal() error = %v", err)
		}
		env.Mutate(func() { ping.hops++ })
		if ping.hops != 1 {
			t.Errorf("hops = %d, want 1", ping.hops)
		}
	})

	t.Run("immutable before marshal", func(t *testing.T) {
		note := newNote("draft")
		env := NewEnvelope(uuid.New(), note)
		env.Mutate(func() { note.Text = "final" })
		if err := env.PrepareMarshal(m); err != nil {
			t.Fatalf("PrepareMarshal() error = %v", err)
		}
	})

	t.Run("immutable after marshal panics", func(t *testing.T) {
		note := newNote("sealed")
		env := NewEnvelope(uuid.New(), note)
		if err := env.PrepareMarshal(m); err != nil {
			t.Fatalf("PrepareMarshal() error = %v", err)
		}
		defer func() {
			if recover() == nil {
				t.Fatal("Mutate() did not panic")
			}
			if note.Text != "sealed" {
				t.Errorf("payload changed to %q", note.Text)
			}
		}()
		env.Mutate(func() { note.Text = "changed" })
	})
}

func TestEnvelopeNonCustomNestedMessage(t *testing.T) {
	m := newTestMarshaller(t, true)
	reg := newTestRegistry(t, m)

	// An envelope nested in an envelope is a wire message but not a payload.
	outer := &Envelope{serMsg: &Envelope{}}
	frame, err := wire.Marshal(reg, outer)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded, err := wire.Unmarshal(reg, frame)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	err = decoded.(*Envelope).FinishUnmarshal(m)
	if !errors.Is(err, domain.ErrUnsupportedPayloadType) {
		t.Fatalf("FinishUnmarshal() error = %v, want ErrUnsupportedPayloadType", err)
	}
}
