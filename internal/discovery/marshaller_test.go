package discovery

import (
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

func TestPayloadRegistryRegister(t *testing.T) {
	r := NewPayloadRegistry()
	if err := r.Register(func() NamedPayload { return &noteMessage{} }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name    string
		factory func() NamedPayload
	}{
		{"nil factory", nil},
		{"duplicate name", func() NamedPayload { return &noteMessage{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(tt.factory); !errors.Is(err, domain.ErrBadRequest) {
				t.Fatalf("Register() error = %v, want ErrBadRequest", err)
			}
		})
	}
	if names := r.Names(); len(names) != 1 || names[0] != "test.note" {
		t.Errorf("Names() = %v", names)
	}
}

func TestCBORMarshallerRejectsUnsupportedPayload(t *testing.T) {
	m := newTestMarshaller(t, false)

	tests := []struct {
		name string
		msg  CustomMessage
	}{
		{"no payload name", newPing(1)},
		{"unregistered name", newNote("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Marshal(tt.msg)
			if !errors.Is(err, domain.ErrUnsupportedPayloadType) {
				t.Fatalf("Marshal() error = %v, want ErrUnsupportedPayloadType", err)
			}
		})
	}
}

func TestCBORMarshallerUnknownType(t *testing.T) {
	data, err := newTestMarshaller(t, true).Marshal(newNote("hi"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	_, err = newTestMarshaller(t, false).Unmarshal(data)
	if !errors.Is(err, domain.ErrIncompleteDeserialization) {
		t.Fatalf("Unmarshal() error = %v, want ErrIncompleteDeserialization", err)
	}
	if !errors.Is(err, domain.ErrUnsupportedPayloadType) {
		t.Fatalf("Unmarshal() error = %v, want ErrUnsupportedPayloadType in chain", err)
	}
	partial, ok := PartialMessage(err)
	if !ok {
		t.Fatal("PartialMessage() found no stand-in")
	}
	if partial.TypeName != "test.note" || partial.Partial != nil {
		t.Errorf("stand-in = %+v", partial)
	}
	if partial.AckMessage() != nil || partial.IsMutable() || partial.StopProcess() {
		t.Error("stand-in must be an inert immutable payload")
	}
}

func TestCBORMarshallerPartialDecode(t *testing.T) {
	id := ulid.Make()
	body, err := cbor.Marshal(map[int]any{1: id[:], 2: "kept", 3: "not a number"})
	if err != nil {
		t.Fatalf("cbor.Marshal() error = %v", err)
	}
	data, err := cbor.Marshal(frame{Type: "test.note", ID: id[:], Body: body})
	if err != nil {
		t.Fatalf("cbor.Marshal() error = %v", err)
	}

	_, err = newTestMarshaller(t, true).Unmarshal(data)
	partial, ok := PartialMessage(err)
	if !ok {
		t.Fatalf("Unmarshal() error = %v, want incomplete deserialization", err)
	}
	if partial.ID() != id {
		t.Errorf("stand-in ID() = %s, want %s", partial.ID(), id)
	}
	note, ok := partial.Partial.(*noteMessage)
	if !ok || note.Text != "kept" {
		t.Fatalf("Partial = %#v, want note with decoded text", partial.Partial)
	}
}

func TestCBORMarshallerGarbage(t *testing.T) {
	_, err := newTestMarshaller(t, true).Unmarshal([]byte{0xff, 0x00, 0x13})
	if !errors.Is(err, domain.ErrCorruptedPayload) {
		t.Fatalf("Unmarshal() error = %v, want ErrCorruptedPayload", err)
	}
	if _, ok := PartialMessage(err); !ok {
		t.Fatal("garbage should still yield a stand-in")
	}
}
