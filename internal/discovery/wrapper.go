package discovery

import (
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// TypeSecurityAwareWrapper is the wire code of SecurityAwareWrapper.
const TypeSecurityAwareWrapper int16 = 501

// SecurityAwareWrapper tags a payload with the security subject that
// initiated it. It forwards every CustomMessage method to the delegate.
//
// A typed delegate is nested on the wire. Any other delegate is carried as
// marshaller bytes, computed once on first use.
type SecurityAwareWrapper struct {
	subjectID uuid.UUID
	delegate  CustomMessage
	marsh     Marshaller

	mu       sync.Mutex
	msgBytes []byte
}

// NewSecurityAwareWrapper wraps delegate for subjectID. m serializes
// delegates that have no wire layout.
func NewSecurityAwareWrapper(delegate CustomMessage, subjectID uuid.UUID, m Marshaller) *SecurityAwareWrapper {
	return &SecurityAwareWrapper{subjectID: subjectID, delegate: delegate, marsh: m}
}

// SubjectID is the initiating security subject.
func (w *SecurityAwareWrapper) SubjectID() uuid.UUID { return w.subjectID }

// Delegate returns the wrapped payload.
func (w *SecurityAwareWrapper) Delegate() CustomMessage { return w.delegate }

// ID implements CustomMessage.
func (w *SecurityAwareWrapper) ID() ulid.ULID { return w.delegate.ID() }

// IsMutable implements CustomMessage.
func (w *SecurityAwareWrapper) IsMutable() bool { return w.delegate.IsMutable() }

// StopProcess implements CustomMessage.
func (w *SecurityAwareWrapper) StopProcess() bool { return w.delegate.StopProcess() }

// AckMessage wraps the delegate's acknowledgement for the same subject.
func (w *SecurityAwareWrapper) AckMessage() CustomMessage {
	ack := w.delegate.AckMessage()
	if ack == nil {
		return nil
	}
	return NewSecurityAwareWrapper(ack, w.subjectID, w.marsh)
}

// MessageBytes returns the marshalled delegate. It is nil for typed
// delegates, which travel as nested messages instead.
func (w *SecurityAwareWrapper) MessageBytes() ([]byte, error) {
	if _, ok := w.delegate.(wire.Message); ok {
		return nil, nil
	}
	if u, ok := w.delegate.(*UnresolvedMessage); ok {
		return u.Raw, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.msgBytes != nil {
		return w.msgBytes, nil
	}
	if w.marsh == nil {
		return nil, domain.ErrUnsupportedPayloadType.Detailf("no marshaller for %T", w.delegate)
	}
	b, err := w.marsh.Marshal(w.delegate)
	if err != nil {
		return nil, err
	}
	w.msgBytes = b
	return b, nil
}

func (w *SecurityAwareWrapper) invalidate() {
	w.mu.Lock()
	w.msgBytes = nil
	w.mu.Unlock()
}

// TypeCode implements wire.Message.
func (w *SecurityAwareWrapper) TypeCode() int16 { return TypeSecurityAwareWrapper }

// WriteField implements wire.Message.
func (w *SecurityAwareWrapper) WriteField(wr *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return wr.WriteUUID(w.subjectID)
	case 1:
		typed, _ := w.delegate.(wire.Message)
		return wr.WriteNested(typed)
	case 2:
		b, err := w.MessageBytes()
		if err != nil {
			return wr.Fail(err)
		}
		return wr.WriteBytes(b)
	}
	return true
}

// ReadField implements wire.Message.
func (w *SecurityAwareWrapper) ReadField(r *wire.Reader, idx int) bool {
	switch idx {
	case 0:
		var ok bool
		w.subjectID, ok = r.ReadUUID()
		return ok
	case 1:
		typed, ok := r.ReadNested()
		if !ok || typed == nil {
			return ok
		}
		cm, isCustom := typed.(CustomMessage)
		if !isCustom {
			return r.Fail(domain.ErrUnsupportedPayloadType.Detailf("wire type %d is not a custom message", typed.TypeCode()))
		}
		w.delegate = cm
		return true
	case 2:
		b, ok := r.ReadBytes()
		if !ok {
			return false
		}
		if w.delegate != nil {
			return true
		}
		if b == nil {
			return r.Fail(domain.ErrIncompleteDeserialization.Detailf("security wrapper carries no payload"))
		}
		w.delegate = w.resolve(b)
		return true
	}
	return true
}

// resolve decodes delegate bytes, falling back to a stand-in that keeps
// the original bytes.
func (w *SecurityAwareWrapper) resolve(b []byte) CustomMessage {
	if w.marsh == nil {
		return &UnresolvedMessage{Raw: b}
	}
	msg, err := w.marsh.Unmarshal(b)
	if err != nil {
		if partial, ok := PartialMessage(err); ok {
			return partial
		}
		return &UnresolvedMessage{Raw: b}
	}
	w.msgBytes = b
	return msg
}

var wrapperFields = []wire.Field{
	{Name: "subjectId", Kind: wire.KindUUID},
	{Name: "msg", Kind: wire.KindMessage},
	{Name: "msgBytes", Kind: wire.KindBytes},
}
