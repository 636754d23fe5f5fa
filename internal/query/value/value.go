package value

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/wire"
)

// Wire codes.
const (
	TypeNull      int16 = -4
	TypeBool      int16 = -5
	TypeInt       int16 = -8
	TypeLong      int16 = -9
	TypeDecimal   int16 = -10
	TypeDouble    int16 = -11
	TypeTime      int16 = -13
	TypeTimestamp int16 = -15
	TypeBytes     int16 = -16
	TypeString    int16 = -17
	TypeArray     int16 = -18
	TypeUUID      int16 = -20
	TypeGeometry  int16 = -21
)

// Value is one SQL value in wire form.
type Value interface {
	wire.Message
	fmt.Stringer
}

// Null is SQL NULL. It has no fields.
type Null struct{}

func (*Null) TypeCode() int16                   { return TypeNull }
func (*Null) WriteField(*wire.Writer, int) bool { return true }
func (*Null) ReadField(*wire.Reader, int) bool  { return true }
func (*Null) String() string                    { return "NULL" }

type Bool struct{ V bool }

func (m *Bool) TypeCode() int16 { return TypeBool }
func (m *Bool) String() string  { return strconv.FormatBool(m.V) }

func (m *Bool) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return w.WriteBool(m.V)
	}
	return true
}

func (m *Bool) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.V, ok = r.ReadBool()
	return ok
}

type Int struct{ V int32 }

func (m *Int) TypeCode() int16 { return TypeInt }
func (m *Int) String() string  { return strconv.FormatInt(int64(m.V), 10) }

func (m *Int) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return w.WriteInt32(m.V)
	}
	return true
}

func (m *Int) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.V, ok = r.ReadInt32()
	return ok
}

type Long struct{ V int64 }

func (m *Long) TypeCode() int16 { return TypeLong }
func (m *Long) String() string  { return strconv.FormatInt(m.V, 10) }

func (m *Long) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return w.WriteInt64(m.V)
	}
	return true
}

func (m *Long) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.V, ok = r.ReadInt64()
	return ok
}

type Double struct{ V float64 }

func (m *Double) TypeCode() int16 { return TypeDouble }
func (m *Double) String() string  { return strconv.FormatFloat(m.V, 'g', -1, 64) }

func (m *Double) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return w.WriteFloat64(m.V)
	}
	return true
}

func (m *Double) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.V, ok = r.ReadFloat64()
	return ok
}

type String struct{ V string }

func (m *String) TypeCode() int16 { return TypeString }
func (m *String) String() string  { return m.V }

func (m *String) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return w.WriteString(m.V)
	}
	return true
}

func (m *String) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.V, ok = r.ReadString()
	return ok
}

// Bytes is a binary value. B is never nil after decoding a non-nil value.
type Bytes struct{ B []byte }

func (m *Bytes) TypeCode() int16 { return TypeBytes }
func (m *Bytes) String() string  { return hex.EncodeToString(m.B) }

func (m *Bytes) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return w.WriteBytes(m.B)
	}
	return true
}

func (m *Bytes) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.B, ok = r.ReadBytes()
	return ok
}

// UUID is split into its most and least significant halves.
type UUID struct {
	High int64
	Low  int64
}

// NewUUID splits u.
func NewUUID(u uuid.UUID) *UUID {
	var m UUID
	for i := 0; i < 8; i++ {
		m.High = m.High<<8 | int64(u[i])
		m.Low = m.Low<<8 | int64(u[8+i])
	}
	return &m
}

// UUID joins the halves.
func (m *UUID) UUID() uuid.UUID {
	var u uuid.UUID
	for i := 0; i < 8; i++ {
		u[7-i] = byte(m.High >> (8 * i))
		u[15-i] = byte(m.Low >> (8 * i))
	}
	return u
}

func (m *UUID) TypeCode() int16 { return TypeUUID }
func (m *UUID) String() string  { return m.UUID().String() }

func (m *UUID) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt64(m.High)
	case 1:
		return w.WriteInt64(m.Low)
	}
	return true
}

func (m *UUID) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.High, ok = r.ReadInt64()
	case 1:
		m.Low, ok = r.ReadInt64()
	default:
		ok = true
	}
	return ok
}

// Array is an ordered list of values of any kind. Nil elements are NULL.
type Array struct{ Items []Value }

func (m *Array) TypeCode() int16 { return TypeArray }
func (m *Array) String() string  { return fmt.Sprint(m.Items) }

func (m *Array) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return wire.WriteList(w, m.Items, writeValue)
	}
	return true
}

func (m *Array) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.Items, ok = wire.ReadList(r, readValue)
	return ok
}

func writeValue(w *wire.Writer, v Value) bool {
	return w.WriteNested(v)
}

// readValue reads a nested message and fails the stream when it is not a
// value.
func readValue(r *wire.Reader) (Value, bool) {
	msg, ok := r.ReadNested()
	if !ok || msg == nil {
		return nil, ok
	}
	v, isValue := msg.(Value)
	if !isValue {
		return nil, r.Fail(fmt.Errorf("value: type code %d is not a value", msg.TypeCode()))
	}
	return v, true
}
