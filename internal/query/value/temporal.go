package value

import (
	"fmt"
	"strconv"
	"time"

	"github.com/yndnr/gridwire-go/internal/wire"
)

// Dates are packed as year<<9 | month<<5 | day.

// DateValue packs the calendar date of t.
func DateValue(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)<<9 | int64(m)<<5 | int64(d)
}

// DateFromValue unpacks v as midnight UTC.
func DateFromValue(v int64) time.Time {
	return time.Date(int(v>>9), time.Month(v>>5&0x0f), int(v&0x1f), 0, 0, 0, 0, time.UTC)
}

func nanosOfDay(t time.Time) int64 {
	h, m, s := t.Clock()
	return (int64(h)*3600+int64(m)*60+int64(s))*int64(time.Second) + int64(t.Nanosecond())
}

// Time is a time of day in nanoseconds since midnight.
type Time struct{ Nanos int64 }

// NewTime keeps the clock part of t.
func NewTime(t time.Time) *Time { return &Time{Nanos: nanosOfDay(t)} }

// Duration returns the offset from midnight.
func (m *Time) Duration() time.Duration { return time.Duration(m.Nanos) }

func (m *Time) TypeCode() int16 { return TypeTime }
func (m *Time) String() string  { return strconv.FormatInt(m.Nanos, 10) }

func (m *Time) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return w.WriteInt64(m.Nanos)
	}
	return true
}

func (m *Time) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.Nanos, ok = r.ReadInt64()
	return ok
}

// Timestamp is a packed date plus nanoseconds since that midnight.
type Timestamp struct {
	Date  int64
	Nanos int64
}

// NewTimestamp converts t to UTC and splits it.
func NewTimestamp(t time.Time) *Timestamp {
	t = t.UTC()
	return &Timestamp{Date: DateValue(t), Nanos: nanosOfDay(t)}
}

// Time joins the parts in UTC.
func (m *Timestamp) Time() time.Time {
	return DateFromValue(m.Date).Add(time.Duration(m.Nanos))
}

func (m *Timestamp) TypeCode() int16 { return TypeTimestamp }
func (m *Timestamp) String() string  { return fmt.Sprintf("%d_%d", m.Date, m.Nanos) }

func (m *Timestamp) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt64(m.Date)
	case 1:
		return w.WriteInt64(m.Nanos)
	}
	return true
}

func (m *Timestamp) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.Date, ok = r.ReadInt64()
	case 1:
		m.Nanos, ok = r.ReadInt64()
	default:
		ok = true
	}
	return ok
}
