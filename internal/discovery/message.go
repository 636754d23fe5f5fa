package discovery

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// CustomMessage is a payload circulated around the ring.
type CustomMessage interface {
	// ID is unique per payload instance.
	ID() ulid.ULID

	// AckMessage returns the payload sent on the second pass once this one
	// has visited every node, or nil to end the exchange.
	AckMessage() CustomMessage

	// IsMutable reports whether listeners may change the payload while it
	// travels. Immutable payloads are serialized once and reused.
	IsMutable() bool

	// StopProcess reports whether the envelope should stop at the current
	// node instead of being forwarded.
	StopProcess() bool
}

// Listener observes payloads as they pass through the local node.
type Listener interface {
	OnCustomMessage(ctx context.Context, env *Envelope, msg CustomMessage)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, env *Envelope, msg CustomMessage)

// OnCustomMessage calls f.
func (f ListenerFunc) OnCustomMessage(ctx context.Context, env *Envelope, msg CustomMessage) {
	f(ctx, env, msg)
}

// CompletionListener is notified on the creator once a payload it sent has
// made a full pass, before any acknowledgement is started.
type CompletionListener interface {
	OnPassCompleted(ctx context.Context, env *Envelope, msg CustomMessage)
}

// Unwrap strips security wrappers and returns the innermost payload.
func Unwrap(msg CustomMessage) CustomMessage {
	for {
		w, ok := msg.(*SecurityAwareWrapper)
		if !ok || w.Delegate() == nil {
			return msg
		}
		msg = w.Delegate()
	}
}
