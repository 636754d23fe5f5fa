package wire

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

// Reader errors.
var (
	ErrArrayTooLarge      = errors.New("wire: array length exceeds limit")
	ErrCollectionTooLarge = errors.New("wire: collection length exceeds limit")
)

// Reader decodes messages from buffers that may end anywhere, resuming
// across calls.
type Reader struct {
	reg  *Registry
	opts options
	st   stack
	buf  *Buffer
	err  error
}

// NewReader creates a reader over reg and seals the registry.
func NewReader(reg *Registry, opts ...Option) *Reader {
	reg.Seal()
	return &Reader{
		reg:  reg,
		opts: buildOptions(opts),
		st:   newStack(),
	}
}

// ReadMessage consumes bytes from buf. It returns the message once its last
// field is decoded, or nil when buf ran out first; in that case every byte
// of buf has been consumed and the next call continues with the next
// bytes of the stream. Bytes past the end of a completed message are left
// in buf.
//
// An unknown type code fails with domain.ErrUnknownTypeCode; the stream is
// then unusable until Reset.
func (r *Reader) ReadMessage(buf *Buffer) (Message, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.buf = buf

	start := buf.Position()
	c := r.st.top()
	var (
		msg  Message
		done bool
	)
	if r.readCode(c, false) {
		msg, done = r.readFields(c)
	}
	r.opts.metrics.addBytesRead(buf.Position() - start)
	r.buf = nil

	if r.err != nil {
		return nil, r.err
	}
	if !done {
		return nil, nil
	}
	r.opts.metrics.messageRead(c.typ.Name)
	r.st.clear()
	return msg, nil
}

// Reset drops any partially read message and clears a sticky error.
func (r *Reader) Reset() {
	r.err = nil
	r.st.clear()
}

// Err returns the error that stopped the reader, if any.
func (r *Reader) Err() error {
	return r.err
}

// Fail records err and returns false.
func (r *Reader) Fail(err error) bool {
	if r.err == nil {
		r.err = err
	}
	return false
}

// readCode reads the type code of level c and instantiates its message.
// With allowNil, NilTypeCode leaves c.msg nil and reports true.
func (r *Reader) readCode(c *cursor, allowNil bool) bool {
	if c.hdr {
		return true
	}
	v, ok := r.takeUint(2)
	if !ok {
		return false
	}
	code := int16(v)
	if code == NilTypeCode {
		if !allowNil {
			return r.Fail(domain.ErrInvalidTypeCode.Detailf("nil type code at message boundary"))
		}
		c.hdr = true
		return true
	}
	if !r.begin(c, code, nil) {
		return false
	}
	c.hdr = true
	return true
}

func (r *Reader) begin(c *cursor, code int16, msg Message) bool {
	t, ok := r.reg.Lookup(code)
	if !ok {
		return r.Fail(domain.ErrUnknownTypeCode.Detailf("code %d", code))
	}
	if msg == nil {
		msg = t.New()
	}
	c.typ, c.msg = t, msg
	return true
}

func (r *Reader) readFields(c *cursor) (Message, bool) {
	for c.state < len(c.typ.Fields) {
		if !c.msg.ReadField(r, c.state) {
			return nil, false
		}
		c.state++
	}
	return c.msg, true
}

// ReadNested reads a polymorphic nested message written by
// Writer.WriteNested. A nil message decodes as nil.
func (r *Reader) ReadNested() (Message, bool) {
	if r.err != nil {
		return nil, false
	}
	c := r.st.forward()
	if !r.readCode(c, true) {
		r.st.backward(false)
		return nil, false
	}
	if c.msg == nil {
		r.st.backward(true)
		return nil, true
	}
	msg, done := r.readFields(c)
	r.st.backward(done)
	return msg, done
}

// ReadStruct reads a monomorphic nested message written by WriteStruct.
func ReadStruct[T any, PT interface {
	*T
	Message
}](r *Reader) (PT, bool) {
	msg, ok := r.readStruct(func() Message { return PT(new(T)) })
	if !ok || msg == nil {
		return nil, ok
	}
	return msg.(PT), true
}

func (r *Reader) readStruct(newMsg func() Message) (Message, bool) {
	if r.err != nil {
		return nil, false
	}
	c := r.st.forward()
	if !c.hdr {
		v, ok := r.takeUint(1)
		if !ok {
			r.st.backward(false)
			return nil, false
		}
		if v == 0 {
			r.st.backward(true)
			return nil, true
		}
		m := newMsg()
		if !r.begin(c, m.TypeCode(), m) {
			r.st.backward(false)
			return nil, false
		}
		c.hdr = true
	}
	msg, done := r.readFields(c)
	r.st.backward(done)
	return msg, done
}

// ----------------------------------------------------------------------------
// Fixed-width values
// ----------------------------------------------------------------------------

// takeFixed accumulates n bytes on the current level. The returned slice
// aliases cursor scratch space and is only valid until the next read.
func (r *Reader) takeFixed(n int) ([]byte, bool) {
	if r.err != nil {
		return nil, false
	}
	c := r.st.top()
	c.tmpLen += r.buf.take(c.tmp[c.tmpLen:n])
	if c.tmpLen < n {
		return nil, false
	}
	c.tmpLen = 0
	return c.tmp[:n], true
}

func (r *Reader) takeUint(n int) (uint64, bool) {
	b, ok := r.takeFixed(n)
	if !ok {
		return 0, false
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, true
}

// ReadBool reads one byte as a bool.
func (r *Reader) ReadBool() (bool, bool) {
	v, ok := r.takeUint(1)
	return v != 0, ok
}

// ReadInt8 reads one byte.
func (r *Reader) ReadInt8() (int8, bool) {
	v, ok := r.takeUint(1)
	return int8(uint8(v)), ok
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, bool) {
	v, ok := r.takeUint(1)
	return uint8(v), ok
}

// ReadInt16 reads two bytes.
func (r *Reader) ReadInt16() (int16, bool) {
	v, ok := r.takeUint(2)
	return int16(uint16(v)), ok
}

// ReadInt32 reads four bytes.
func (r *Reader) ReadInt32() (int32, bool) {
	v, ok := r.takeUint(4)
	return int32(uint32(v)), ok
}

// ReadInt64 reads eight bytes.
func (r *Reader) ReadInt64() (int64, bool) {
	v, ok := r.takeUint(8)
	return int64(v), ok
}

// ReadFloat64 reads eight bytes as IEEE 754 bits.
func (r *Reader) ReadFloat64() (float64, bool) {
	v, ok := r.takeUint(8)
	return math.Float64frombits(v), ok
}

// ReadUUID reads 16 bytes.
func (r *Reader) ReadUUID() (uuid.UUID, bool) {
	var u uuid.UUID
	b, ok := r.takeFixed(16)
	if ok {
		copy(u[:], b)
	}
	return u, ok
}

// ReadULID reads 16 bytes.
func (r *Reader) ReadULID() (ulid.ULID, bool) {
	var u ulid.ULID
	b, ok := r.takeFixed(16)
	if ok {
		copy(u[:], b)
	}
	return u, ok
}

// ReadEnum reads an enum ordinal.
func ReadEnum[E ~uint8](r *Reader) (E, bool) {
	v, ok := r.ReadUint8()
	return E(v), ok
}

// ----------------------------------------------------------------------------
// Length-prefixed arrays
// ----------------------------------------------------------------------------

// takeArray reads an int32 element count and count*elemSize body bytes.
// isNil reports a negative count.
func (r *Reader) takeArray(elemSize int) (body []byte, isNil, ok bool) {
	if r.err != nil {
		return nil, false, false
	}
	c := r.st.top()
	if !c.arrHdr {
		v, ok := r.takeUint(4)
		if !ok {
			return nil, false, false
		}
		n := int32(uint32(v))
		if n < 0 {
			return nil, true, true
		}
		size := int64(n) * int64(elemSize)
		if size > MaxArrayLength {
			return nil, false, r.Fail(ErrArrayTooLarge)
		}
		c.arrBody = make([]byte, size)
		c.arrHdr = true
	}
	c.arrOff += r.buf.take(c.arrBody[c.arrOff:])
	if c.arrOff < len(c.arrBody) {
		return nil, false, false
	}
	body = c.arrBody
	c.resetArray()
	return body, false, true
}

// ReadBytes reads a byte array written by WriteBytes.
func (r *Reader) ReadBytes() ([]byte, bool) {
	body, isNil, ok := r.takeArray(1)
	if !ok || isNil {
		return nil, ok
	}
	return body, true
}

// ReadString reads a string written by WriteString.
func (r *Reader) ReadString() (string, bool) {
	body, _, ok := r.takeArray(1)
	if !ok {
		return "", false
	}
	return string(body), true
}

// ReadInt32s reads an int32 array.
func (r *Reader) ReadInt32s() ([]int32, bool) {
	body, isNil, ok := r.takeArray(4)
	if !ok || isNil {
		return nil, ok
	}
	out := make([]int32, len(body)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(body[4*i:]))
	}
	return out, true
}

// ReadInt64s reads an int64 array.
func (r *Reader) ReadInt64s() ([]int64, bool) {
	body, isNil, ok := r.takeArray(8)
	if !ok || isNil {
		return nil, ok
	}
	out := make([]int64, len(body)/8)
	for i := range out {
		out[i] = int64(binary.BigEndian.Uint64(body[8*i:]))
	}
	return out, true
}
