package wire

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

// ErrNilMessage is returned when a nil top-level message is written.
var ErrNilMessage = errors.New("wire: nil message")

// Writer encodes messages into bounded buffers, resuming across calls.
type Writer struct {
	reg  *Registry
	opts options
	st   stack
	buf  *Buffer
	cur  Message
	err  error
}

// NewWriter creates a writer over reg and seals the registry.
func NewWriter(reg *Registry, opts ...Option) *Writer {
	reg.Seal()
	return &Writer{
		reg:  reg,
		opts: buildOptions(opts),
		st:   newStack(),
	}
}

// WriteMessage writes as much of msg as fits into buf. It returns true
// once the last byte of msg is in a buffer; false means call again with
// the same msg and a fresh buffer. Starting a different message before
// the current one finished fails with domain.ErrMessageInFlight.
func (w *Writer) WriteMessage(buf *Buffer, msg Message) (bool, error) {
	if w.err != nil {
		return false, w.err
	}
	if msg == nil {
		return false, ErrNilMessage
	}
	if w.cur != nil && w.cur != msg {
		return false, domain.ErrMessageInFlight.Detailf("in flight: %d, requested: %d", w.cur.TypeCode(), msg.TypeCode())
	}
	w.cur = msg
	w.buf = buf

	start := buf.Position()
	done := w.writeAt(w.st.top(), msg, prefixCode)
	w.opts.metrics.addBytesWritten(buf.Position() - start)
	w.buf = nil

	if w.err != nil {
		return false, w.err
	}
	if done {
		w.opts.metrics.messageWritten(w.typeName(msg.TypeCode()))
		w.cur = nil
		w.st.clear()
	}
	return done, nil
}

// Reset drops any in-flight message and clears a sticky error.
func (w *Writer) Reset() {
	w.cur = nil
	w.err = nil
	w.st.clear()
}

// Err returns the error that stopped the writer, if any.
func (w *Writer) Err() error {
	return w.err
}

// Fail records err and returns false, so field code can write
// `return w.Fail(err)`.
func (w *Writer) Fail(err error) bool {
	if w.err == nil {
		w.err = err
	}
	return false
}

func (w *Writer) typeName(code int16) string {
	if t, ok := w.reg.Lookup(code); ok {
		return t.Name
	}
	return "unknown"
}

type prefix uint8

const (
	prefixCode prefix = iota
	prefixPresence
)

// writeAt writes msg on level c.
func (w *Writer) writeAt(c *cursor, msg Message, p prefix) bool {
	if c.typ == nil {
		t, ok := w.reg.Lookup(msg.TypeCode())
		if !ok {
			return w.Fail(domain.ErrUnknownTypeCode.Detailf("code %d", msg.TypeCode()))
		}
		c.typ = t
		c.msg = msg
	}
	if !c.hdr {
		var ok bool
		if p == prefixCode {
			ok = w.putUint(2, uint64(uint16(msg.TypeCode())))
		} else {
			ok = w.putUint(1, 1)
		}
		if !ok {
			return false
		}
		c.hdr = true
	}
	for c.state < len(c.typ.Fields) {
		if !msg.WriteField(w, c.state) {
			return false
		}
		c.state++
	}
	return true
}

// WriteNested writes a polymorphic nested message, prefixed with its
// type code. A nil msg is written as NilTypeCode.
func (w *Writer) WriteNested(msg Message) bool {
	if w.err != nil {
		return false
	}
	if msg == nil {
		return w.WriteInt16(NilTypeCode)
	}
	c := w.st.forward()
	done := w.writeAt(c, msg, prefixCode)
	w.st.backward(done)
	return done
}

// WriteStruct writes a monomorphic nested message: a presence byte, then
// the fields of v without a type code.
func WriteStruct[T any, PT interface {
	*T
	Message
}](w *Writer, v PT) bool {
	if v == nil {
		return w.WriteBool(false)
	}
	return w.writeStruct(v)
}

func (w *Writer) writeStruct(msg Message) bool {
	if w.err != nil {
		return false
	}
	c := w.st.forward()
	done := w.writeAt(c, msg, prefixPresence)
	w.st.backward(done)
	return done
}

// ----------------------------------------------------------------------------
// Fixed-width values
// ----------------------------------------------------------------------------

// putUint writes the low n bytes of v big-endian.
func (w *Writer) putUint(n int, v uint64) bool {
	if w.err != nil {
		return false
	}
	c := w.st.top()
	if c.tmpLen == 0 {
		for i := n - 1; i >= 0; i-- {
			c.tmp[i] = byte(v)
			v >>= 8
		}
		c.tmpLen = n
	}
	return w.flushTmp(c)
}

func (w *Writer) put16(v [16]byte) bool {
	if w.err != nil {
		return false
	}
	c := w.st.top()
	if c.tmpLen == 0 {
		c.tmp = v
		c.tmpLen = 16
	}
	return w.flushTmp(c)
}

func (w *Writer) flushTmp(c *cursor) bool {
	c.tmpOff += w.buf.put(c.tmp[c.tmpOff:c.tmpLen])
	if c.tmpOff < c.tmpLen {
		return false
	}
	c.tmpLen, c.tmpOff = 0, 0
	return true
}

// WriteBool writes v as one byte.
func (w *Writer) WriteBool(v bool) bool {
	var b uint64
	if v {
		b = 1
	}
	return w.putUint(1, b)
}

// WriteInt8 writes v as one byte.
func (w *Writer) WriteInt8(v int8) bool { return w.putUint(1, uint64(uint8(v))) }

// WriteUint8 writes v as one byte.
func (w *Writer) WriteUint8(v uint8) bool { return w.putUint(1, uint64(v)) }

// WriteInt16 writes v as two bytes.
func (w *Writer) WriteInt16(v int16) bool { return w.putUint(2, uint64(uint16(v))) }

// WriteInt32 writes v as four bytes.
func (w *Writer) WriteInt32(v int32) bool { return w.putUint(4, uint64(uint32(v))) }

// WriteInt64 writes v as eight bytes.
func (w *Writer) WriteInt64(v int64) bool { return w.putUint(8, uint64(v)) }

// WriteFloat64 writes the IEEE 754 bits of v.
func (w *Writer) WriteFloat64(v float64) bool { return w.putUint(8, math.Float64bits(v)) }

// WriteUUID writes the 16 bytes of v.
func (w *Writer) WriteUUID(v uuid.UUID) bool { return w.put16(v) }

// WriteULID writes the 16 bytes of v.
func (w *Writer) WriteULID(v ulid.ULID) bool { return w.put16(v) }

// WriteEnum writes an enum ordinal as one byte.
func WriteEnum[E ~uint8](w *Writer, v E) bool {
	return w.WriteUint8(uint8(v))
}

// ----------------------------------------------------------------------------
// Length-prefixed arrays
// ----------------------------------------------------------------------------

// putArray writes an int32 length n followed by body(). A negative n
// encodes nil and has no body.
func (w *Writer) putArray(n int32, body func() []byte) bool {
	if w.err != nil {
		return false
	}
	c := w.st.top()
	if !c.arrHdr {
		if !w.putUint(4, uint64(uint32(n))) {
			return false
		}
		if n < 0 {
			return true
		}
		c.arrHdr = true
		c.arrBody = body()
	}
	c.arrOff += w.buf.put(c.arrBody[c.arrOff:])
	if c.arrOff < len(c.arrBody) {
		return false
	}
	c.resetArray()
	return true
}

// WriteBytes writes a length-prefixed byte array; nil is distinct from
// empty.
func (w *Writer) WriteBytes(v []byte) bool {
	n := int32(len(v))
	if v == nil {
		n = -1
	}
	return w.putArray(n, func() []byte { return v })
}

// WriteString writes a length-prefixed UTF-8 string.
func (w *Writer) WriteString(v string) bool {
	return w.putArray(int32(len(v)), func() []byte { return []byte(v) })
}

// WriteInt32s writes a length-prefixed int32 array.
func (w *Writer) WriteInt32s(v []int32) bool {
	n := int32(len(v))
	if v == nil {
		n = -1
	}
	return w.putArray(n, func() []byte {
		out := make([]byte, 4*len(v))
		for i, x := range v {
			binary.BigEndian.PutUint32(out[4*i:], uint32(x))
		}
		return out
	})
}

// WriteInt64s writes a length-prefixed int64 array.
func (w *Writer) WriteInt64s(v []int64) bool {
	n := int32(len(v))
	if v == nil {
		n = -1
	}
	return w.putArray(n, func() []byte {
		out := make([]byte, 8*len(v))
		for i, x := range v {
			binary.BigEndian.PutUint64(out[8*i:], uint64(x))
		}
		return out
	})
}
