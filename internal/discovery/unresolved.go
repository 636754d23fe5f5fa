package discovery

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

// UnresolvedMessage stands in for a payload the local node could not fully
// decode. It may only be relayed: listeners should ignore it and it never
// produces an acknowledgement.
type UnresolvedMessage struct {
	MsgID    ulid.ULID
	TypeName string

	// Raw holds the bytes as received; forwarding sends them unchanged.
	Raw []byte

	// Partial is the payload as far as decoding got, or nil.
	Partial CustomMessage
}

// ID implements CustomMessage.
func (m *UnresolvedMessage) ID() ulid.ULID { return m.MsgID }

// AckMessage implements CustomMessage.
func (m *UnresolvedMessage) AckMessage() CustomMessage { return nil }

// IsMutable implements CustomMessage.
func (m *UnresolvedMessage) IsMutable() bool { return false }

// StopProcess implements CustomMessage.
func (m *UnresolvedMessage) StopProcess() bool { return false }

// IsUnresolved reports whether msg, once unwrapped, is a stand-in.
func IsUnresolved(msg CustomMessage) bool {
	_, ok := Unwrap(msg).(*UnresolvedMessage)
	return ok
}

// IncompleteError is returned when payload bytes could only be partly
// decoded. It matches domain.ErrIncompleteDeserialization and its cause.
type IncompleteError struct {
	Partial *UnresolvedMessage
	Cause   error
}

func newIncompleteError(partial *UnresolvedMessage, cause error) *IncompleteError {
	return &IncompleteError{Partial: partial, Cause: cause}
}

// Error implements error.
func (e *IncompleteError) Error() string {
	name := e.Partial.TypeName
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%s: payload %q: %v", domain.ErrIncompleteDeserialization.Error(), name, e.Cause)
}

// Unwrap exposes both the domain error and the cause to errors.Is.
func (e *IncompleteError) Unwrap() []error {
	return []error{domain.ErrIncompleteDeserialization, e.Cause}
}

// PartialMessage returns the stand-in carried by an *IncompleteError in
// err's chain.
func PartialMessage(err error) (*UnresolvedMessage, bool) {
	var inc *IncompleteError
	if !errors.As(err, &inc) || inc.Partial == nil {
		return nil, false
	}
	return inc.Partial, true
}
