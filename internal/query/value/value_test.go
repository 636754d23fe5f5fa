package value

import (
	"errors"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/wire"
)

func newRegistry(t *testing.T) *wire.Registry {
	t.Helper()
	reg := wire.NewRegistry()
	if err := RegisterMessages(reg); err != nil {
		t.Fatalf("RegisterMessages() error = %v", err)
	}
	return reg
}

func roundTrip(t *testing.T, reg *wire.Registry, msg wire.Message) {
	t.Helper()
	for _, n := range []int{1, 3, 17, 4096} {
		data, err := wire.Marshal(reg, msg, wire.WithBufferSize(n))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		got, err := wire.Unmarshal(reg, data)
		if err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !reflect.DeepEqual(got, msg) {
			t.Fatalf("buffer %d: decoded %#v, want %#v", n, got, msg)
		}
	}
}

func TestValuesRoundTrip(t *testing.T) {
	reg := newRegistry(t)
	dec, err := ParseDecimal("-12345678901234567890.125")
	if err != nil {
		t.Fatalf("ParseDecimal() error = %v", err)
	}
	tests := []struct {
		name string
		msg  Value
	}{
		{"null", &Null{}},
		{"bool", &Bool{V: true}},
		{"int", &Int{V: -7}},
		{"long", &Long{V: 1 << 40}},
		{"double", &Double{V: 2.5}},
		{"string", &String{V: "grid"}},
		{"decimal", dec},
		{"time", NewTime(time.Date(1, 1, 1, 13, 14, 15, 16, time.UTC))},
		{"timestamp", NewTimestamp(time.Date(2024, 2, 29, 23, 59, 59, 999, time.UTC))},
		{"bytes", &Bytes{B: []byte{1, 2, 3}}},
		{"uuid", NewUUID(uuid.New())},
		{"geometry", &Geometry{B: []byte{0x01, 0x01, 0x00}}},
		{"array", &Array{Items: []Value{&Int{V: 1}, nil, &String{V: "x"}, &Array{Items: []Value{}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, reg, tt.msg)
		})
	}
}

func TestDecimalTwosComplement(t *testing.T) {
	tests := []struct {
		in   int64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x00, 0x80}},
		{-1, []byte{0xff}},
		{-128, []byte{0x80}},
		{-129, []byte{0xff, 0x7f}},
	}
	for _, tt := range tests {
		d := NewDecimal(big.NewInt(tt.in), 2)
		if !reflect.DeepEqual(d.Unscaled, tt.want) {
			t.Errorf("NewDecimal(%d).Unscaled = % x, want % x", tt.in, d.Unscaled, tt.want)
		}
		if got := d.Int().Int64(); got != tt.in {
			t.Errorf("Int() = %d, want %d", got, tt.in)
		}
	}
}

func TestDecimalText(t *testing.T) {
	for _, s := range []string{"0", "-1.50", "3.14159", "-99999999999999999999.9"} {
		d, err := ParseDecimal(s)
		if err != nil {
			t.Fatalf("ParseDecimal(%q) error = %v", s, err)
		}
		if got := d.Text(); got != s {
			t.Errorf("Text() = %q, want %q", got, s)
		}
	}
	if _, err := ParseDecimal("1.2.3"); err == nil {
		t.Error("ParseDecimal() accepted two points")
	}
}

func TestUUIDHalves(t *testing.T) {
	u := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	m := NewUUID(u)
	if m.High != 0x0011223344556677 {
		t.Errorf("High = %#x", m.High)
	}
	if uint64(m.Low) != 0x8899aabbccddeeff {
		t.Errorf("Low = %#x", uint64(m.Low))
	}
	if m.UUID() != u || m.String() != u.String() {
		t.Errorf("UUID() = %s, want %s", m.UUID(), u)
	}
}

func TestTimestampConversion(t *testing.T) {
	at := time.Date(1999, 12, 31, 8, 30, 0, 42, time.FixedZone("x", 3600))
	ts := NewTimestamp(at)
	if !ts.Time().Equal(at) {
		t.Errorf("Time() = %v, want %v", ts.Time(), at)
	}
	if got := DateFromValue(ts.Date); got.Year() != 1999 || got.Month() != 12 || got.Day() != 31 {
		t.Errorf("DateFromValue() = %v", got)
	}
}

func TestGeometryDecoders(t *testing.T) {
	g := &Geometry{B: []byte("POINT(1 2)")}
	d := NewGeometryDecoders()

	if _, err := d.Decode("wkt", g); !errors.Is(err, domain.ErrUnsupportedPayloadType) {
		t.Fatalf("Decode() error = %v, want ErrUnsupportedPayloadType", err)
	}
	if err := d.Register("wkt", func(b []byte) (any, error) { return string(b), nil }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	got, err := d.Decode("wkt", g)
	if err != nil || got != "POINT(1 2)" {
		t.Fatalf("Decode() = %v, %v", got, err)
	}
	if err := d.Register("", nil); !errors.Is(err, domain.ErrBadRequest) {
		t.Errorf("Register(empty) error = %v, want ErrBadRequest", err)
	}
	if f := d.Formats(); !reflect.DeepEqual(f, []string{"wkt"}) {
		t.Errorf("Formats() = %v", f)
	}
}

func TestOfAndNative(t *testing.T) {
	id := uuid.New()
	at := time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC)
	in := []any{nil, true, int32(3), int64(4), 1.5, "s", []byte{9}, id, at}
	for _, v := range in {
		wv, err := Of(v)
		if err != nil {
			t.Fatalf("Of(%T) error = %v", v, err)
		}
		if got := Native(wv); !reflect.DeepEqual(got, v) {
			t.Errorf("Native(Of(%v)) = %v", v, got)
		}
	}
	if _, err := Of(struct{}{}); !errors.Is(err, domain.ErrUnsupportedPayloadType) {
		t.Errorf("Of(struct) error = %v, want ErrUnsupportedPayloadType", err)
	}
}

func TestArrayRejectsNonValueElement(t *testing.T) {
	reg := newRegistry(t)
	// Array holding a Row, which is a message but not a value.
	data := []byte{0xff, 0xee, 0, 0, 0, 1, 0xff, 0xe0, 0, 0, 0, 0}
	if _, err := wire.Unmarshal(reg, data); err == nil {
		t.Fatal("Unmarshal() accepted a row inside an array")
	}
}
