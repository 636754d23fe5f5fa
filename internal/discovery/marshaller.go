package discovery

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

// Marshaller turns payloads that have no wire layout into bytes and back.
type Marshaller interface {
	Marshal(msg CustomMessage) ([]byte, error)
	Unmarshal(data []byte) (CustomMessage, error)
}

// NamedPayload is implemented by payloads the CBOR marshaller can carry.
// The name must be stable across nodes and releases.
type NamedPayload interface {
	CustomMessage
	PayloadType() string
}

// PayloadRegistry maps payload type names to constructors.
type PayloadRegistry struct {
	mu        sync.RWMutex
	factories map[string]func() NamedPayload
}

// NewPayloadRegistry creates an empty registry.
func NewPayloadRegistry() *PayloadRegistry {
	return &PayloadRegistry{factories: make(map[string]func() NamedPayload)}
}

// Register adds a constructor. The name is taken from a fresh instance.
func (r *PayloadRegistry) Register(factory func() NamedPayload) error {
	if factory == nil {
		return domain.ErrBadRequest.Detailf("nil payload factory")
	}
	name := factory().PayloadType()
	if name == "" {
		return domain.ErrBadRequest.Detailf("empty payload type name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return domain.ErrBadRequest.Detailf("payload type %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Names returns the registered names in order.
func (r *PayloadRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *PayloadRegistry) lookup(name string) (func() NamedPayload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// frame is the outer CBOR record. Type and ID sit outside the body so a
// node that cannot decode the body still knows what it is relaying.
type frame struct {
	Type string          `cbor:"1,keyasint"`
	ID   []byte          `cbor:"2,keyasint,omitempty"`
	Body cbor.RawMessage `cbor:"3,keyasint"`
}

// CBORMarshaller is the default Marshaller.
type CBORMarshaller struct {
	payloads *PayloadRegistry
	enc      cbor.EncMode
	dec      cbor.DecMode
}

// NewCBORMarshaller creates a marshaller over payloads.
func NewCBORMarshaller(payloads *PayloadRegistry) (*CBORMarshaller, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encode mode: %w", err)
	}
	dec, err := cbor.DecOptions{MaxArrayElements: 1 << 20, MaxMapPairs: 1 << 20}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decode mode: %w", err)
	}
	return &CBORMarshaller{payloads: payloads, enc: enc, dec: dec}, nil
}

// Marshal encodes msg. Payloads that do not implement NamedPayload, or
// whose name is not registered, fail with domain.ErrUnsupportedPayloadType.
func (m *CBORMarshaller) Marshal(msg CustomMessage) ([]byte, error) {
	named, ok := msg.(NamedPayload)
	if !ok {
		return nil, domain.ErrUnsupportedPayloadType.Detailf("%T has no payload type name", msg)
	}
	if _, ok := m.payloads.lookup(named.PayloadType()); !ok {
		return nil, domain.ErrUnsupportedPayloadType.Detailf("payload type %q is not registered", named.PayloadType())
	}
	body, err := m.enc.Marshal(msg)
	if err != nil {
		return nil, domain.ErrFallbackMarshal.WithCause(err)
	}
	id := msg.ID()
	out, err := m.enc.Marshal(frame{Type: named.PayloadType(), ID: id[:], Body: body})
	if err != nil {
		return nil, domain.ErrFallbackMarshal.WithCause(err)
	}
	return out, nil
}

// Unmarshal decodes bytes produced by Marshal. Anything short of a full
// decode returns an *IncompleteError holding an UnresolvedMessage with
// whatever was recovered.
func (m *CBORMarshaller) Unmarshal(data []byte) (CustomMessage, error) {
	var f frame
	if err := m.dec.Unmarshal(data, &f); err != nil {
		return nil, newIncompleteError(&UnresolvedMessage{Raw: data}, domain.ErrCorruptedPayload.WithCause(err))
	}
	stub := &UnresolvedMessage{TypeName: f.Type, Raw: data}
	if len(f.ID) == len(stub.MsgID) {
		copy(stub.MsgID[:], f.ID)
	}

	factory, ok := m.payloads.lookup(f.Type)
	if !ok {
		return nil, newIncompleteError(stub, domain.ErrUnsupportedPayloadType.Detailf("payload type %q is not registered", f.Type))
	}
	msg := factory()
	if err := m.dec.Unmarshal(f.Body, msg); err != nil {
		stub.Partial = msg
		return nil, newIncompleteError(stub, err)
	}
	return msg, nil
}
