package value

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/yndnr/gridwire-go/internal/wire"
)

// Decimal is unscaled * 10^-scale. Unscaled holds the big-endian two's
// complement bytes of the unscaled integer, shortest form.
type Decimal struct {
	Scale    int32
	Unscaled []byte
}

// NewDecimal builds a decimal from an unscaled integer and scale.
func NewDecimal(unscaled *big.Int, scale int32) *Decimal {
	return &Decimal{Scale: scale, Unscaled: twosComplement(unscaled)}
}

// ParseDecimal reads a plain decimal literal such as "-12.340".
func ParseDecimal(s string) (*Decimal, error) {
	intPart, frac := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart, frac = s[:i], s[i+1:]
			break
		}
	}
	n, ok := new(big.Int).SetString(intPart+frac, 10)
	if !ok {
		return nil, fmt.Errorf("value: invalid decimal %q", s)
	}
	return NewDecimal(n, int32(len(frac))), nil
}

// Int returns the unscaled integer.
func (m *Decimal) Int() *big.Int {
	return fromTwosComplement(m.Unscaled)
}

// Rat returns the exact value.
func (m *Decimal) Rat() *big.Rat {
	r := new(big.Rat).SetInt(m.Int())
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(m.Scale))), nil)
	f := new(big.Rat).SetInt(exp)
	if m.Scale >= 0 {
		return r.Quo(r, f)
	}
	return r.Mul(r, f)
}

// Text renders the value as a plain decimal literal.
func (m *Decimal) Text() string {
	if m.Scale <= 0 {
		return m.Rat().FloatString(0)
	}
	return m.Rat().FloatString(int(m.Scale))
}

func (m *Decimal) TypeCode() int16 { return TypeDecimal }

func (m *Decimal) String() string {
	return fmt.Sprintf("%d_%s", m.Scale, hex.EncodeToString(m.Unscaled))
}

func (m *Decimal) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt32(m.Scale)
	case 1:
		return w.WriteBytes(m.Unscaled)
	}
	return true
}

func (m *Decimal) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.Scale, ok = r.ReadInt32()
	case 1:
		m.Unscaled, ok = r.ReadBytes()
	default:
		ok = true
	}
	return ok
}

func twosComplement(x *big.Int) []byte {
	if x.Sign() >= 0 {
		n := x.BitLen()/8 + 1
		return x.FillBytes(make([]byte, n))
	}
	// -x-1 has the same magnitude bits as the negative value's complement.
	y := new(big.Int).Neg(x)
	y.Sub(y, big.NewInt(1))
	n := y.BitLen()/8 + 1
	b := y.FillBytes(make([]byte, n))
	for i := range b {
		b[i] = ^b[i]
	}
	return b
}

func fromTwosComplement(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return v
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
