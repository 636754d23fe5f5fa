package discovery

import (
	"bytes"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestWrapperForwardsToDelegate(t *testing.T) {
	m := newTestMarshaller(t, true)
	subject := uuid.New()

	tests := []struct {
		name     string
		delegate CustomMessage
	}{
		{"typed", newPing(1)},
		{"typed stopping", &pingMessage{stop: true}},
		{"bytes", newNote("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewSecurityAwareWrapper(tt.delegate, subject, m)
			if w.ID() != tt.delegate.ID() {
				t.Errorf("ID() = %s, want %s", w.ID(), tt.delegate.ID())
			}
			if w.IsMutable() != tt.delegate.IsMutable() {
				t.Errorf("IsMutable() = %v, want %v", w.IsMutable(), tt.delegate.IsMutable())
			}
			if w.StopProcess() != tt.delegate.StopProcess() {
				t.Errorf("StopProcess() = %v, want %v", w.StopProcess(), tt.delegate.StopProcess())
			}
			if Unwrap(w) != tt.delegate {
				t.Error("Unwrap() did not return the delegate")
			}

			ack := w.AckMessage()
			want := tt.delegate.AckMessage()
			if (ack == nil) != (want == nil) {
				t.Fatalf("AckMessage() = %v, delegate ack = %v", ack, want)
			}
			if ack != nil {
				wrapped, ok := ack.(*SecurityAwareWrapper)
				if !ok || wrapped.SubjectID() != subject {
					t.Fatalf("AckMessage() = %#v, want wrapper for subject %s", ack, subject)
				}
			}
		})
	}
}

func TestWrapperMessageBytesComputedOnce(t *testing.T) {
	m := &countingMarshaller{Marshaller: newTestMarshaller(t, true)}
	w := NewSecurityAwareWrapper(newNote("memo"), uuid.New(), m)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := w.MessageBytes()
			if err != nil {
				t.Errorf("MessageBytes() error = %v", err)
			}
			results[i] = b
		}(i)
	}
	wg.Wait()

	if got := m.marshals.Load(); got != 1 {
		t.Fatalf("Marshal called %d times, want 1", got)
	}
	for i, b := range results {
		if len(b) == 0 || !bytes.Equal(b, results[0]) {
			t.Fatalf("result %d differs", i)
		}
	}
}

func TestWrapperTypedDelegateHasNoBytes(t *testing.T) {
	m := &countingMarshaller{Marshaller: newTestMarshaller(t, true)}
	w := NewSecurityAwareWrapper(newPing(3), uuid.New(), m)
	b, err := w.MessageBytes()
	if err != nil || b != nil {
		t.Fatalf("MessageBytes() = %v, %v; want nil, nil", b, err)
	}
	if m.marshals.Load() != 0 {
		t.Error("typed delegate should not be marshalled")
	}
}

func TestWrapperRoundTrip(t *testing.T) {
	m := newTestMarshaller(t, true)
	reg := newTestRegistry(t, m)
	subject := uuid.New()

	t.Run("typed", func(t *testing.T) {
		ping := newPing(5)
		env := roundTrip(t, NewEnvelope(uuid.New(), NewSecurityAwareWrapper(ping, subject, m)), m, reg, m, reg)
		w, ok := env.Message().(*SecurityAwareWrapper)
		if !ok {
			t.Fatalf("Message() = %T, want wrapper", env.Message())
		}
		if w.SubjectID() != subject {
			t.Errorf("SubjectID() = %s, want %s", w.SubjectID(), subject)
		}
		p, ok := w.Delegate().(*pingMessage)
		if !ok || p.seq != 5 || p.ID() != ping.ID() {
			t.Fatalf("Delegate() = %#v", w.Delegate())
		}
	})

	t.Run("bytes", func(t *testing.T) {
		note := newNote("wrapped")
		env := roundTrip(t, NewEnvelope(uuid.New(), NewSecurityAwareWrapper(note, subject, m)), m, reg, m, reg)
		got, ok := Unwrap(env.Message()).(*noteMessage)
		if !ok || got.Text != "wrapped" || got.MsgID != note.MsgID {
			t.Fatalf("Unwrap(Message()) = %#v", Unwrap(env.Message()))
		}
	})

	t.Run("unknown bytes relay", func(t *testing.T) {
		bare := newTestMarshaller(t, false)
		bareReg := newTestRegistry(t, bare)
		note := newNote("opaque")
		orig := NewSecurityAwareWrapper(note, subject, m)
		origBytes, err := orig.MessageBytes()
		if err != nil {
			t.Fatalf("MessageBytes() error = %v", err)
		}

		relay := roundTrip(t, NewEnvelope(uuid.New(), orig), m, reg, bare, bareReg)
		if !IsUnresolved(relay.Message()) {
			t.Fatalf("relay payload = %T, want unresolved", Unwrap(relay.Message()))
		}
		w := relay.Message().(*SecurityAwareWrapper)
		b, err := w.MessageBytes()
		if err != nil || !bytes.Equal(b, origBytes) {
			t.Fatalf("relay MessageBytes() = %v, %v; want original bytes", b, err)
		}

		final := roundTrip(t, relay, bare, bareReg, m, reg)
		got, ok := Unwrap(final.Message()).(*noteMessage)
		if !ok || got.Text != "opaque" {
			t.Fatalf("payload after relay = %#v", Unwrap(final.Message()))
		}
	})
}

func TestWrapperMutationInvalidatesBytes(t *testing.T) {
	m := &countingMarshaller{Marshaller: newTestMarshaller(t, true)}
	note := newNote("v1")
	w := NewSecurityAwareWrapper(note, uuid.New(), m)
	env := NewEnvelope(uuid.New(), w)

	first, _ := w.MessageBytes()
	env.Mutate(func() { note.Text = "v2" })
	second, _ := w.MessageBytes()
	if bytes.Equal(first, second) {
		t.Fatal("bytes not recomputed after mutation")
	}
	if m.marshals.Load() != 2 {
		t.Errorf("Marshal called %d times, want 2", m.marshals.Load())
	}
}
