package value

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/wire"
)

// Index lookup codes.
const (
	TypeIndexRangeRequest  int16 = -30
	TypeIndexRangeResponse int16 = -31
	TypeRow                int16 = -32
	TypeRowRange           int16 = -34
	TypeRowRangeBounds     int16 = -35
)

// RangeStatus is the outcome of an index range lookup.
type RangeStatus uint8

const (
	StatusOK RangeStatus = iota
	StatusError
	StatusNotFound
)

func (s RangeStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusNotFound:
		return "NOT_FOUND"
	}
	return fmt.Sprintf("RangeStatus(%d)", uint8(s))
}

// Row is one index row.
type Row struct{ Values []Value }

func (m *Row) TypeCode() int16 { return TypeRow }

func (m *Row) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return wire.WriteList(w, m.Values, writeValue)
	}
	return true
}

func (m *Row) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.Values, ok = wire.ReadList(r, readValue)
	return ok
}

// RowRangeBounds is an inclusive search range. A nil bound is open.
type RowRangeBounds struct {
	RangeID int32
	First   *Row
	Last    *Row
}

func (m *RowRangeBounds) TypeCode() int16 { return TypeRowRangeBounds }

func (m *RowRangeBounds) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt32(m.RangeID)
	case 1:
		return wire.WriteStruct(w, m.First)
	case 2:
		return wire.WriteStruct(w, m.Last)
	}
	return true
}

func (m *RowRangeBounds) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.RangeID, ok = r.ReadInt32()
	case 1:
		m.First, ok = wire.ReadStruct[Row](r)
	case 2:
		m.Last, ok = wire.ReadStruct[Row](r)
	default:
		ok = true
	}
	return ok
}

const flagPartial = 1

// RowRange holds the rows found for one bounds entry.
type RowRange struct {
	RangeID int32
	Rows    []*Row
	Flags   uint8
}

// Partial reports that more rows follow in a later response.
func (m *RowRange) Partial() bool { return m.Flags&flagPartial != 0 }

// SetPartial marks the range as continued.
func (m *RowRange) SetPartial() { m.Flags |= flagPartial }

func (m *RowRange) TypeCode() int16 { return TypeRowRange }

func (m *RowRange) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt32(m.RangeID)
	case 1:
		return wire.WriteList(w, m.Rows, wire.WriteStruct[Row])
	case 2:
		return w.WriteUint8(m.Flags)
	}
	return true
}

func (m *RowRange) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.RangeID, ok = r.ReadInt32()
	case 1:
		m.Rows, ok = wire.ReadList(r, wire.ReadStruct[Row])
	case 2:
		m.Flags, ok = r.ReadUint8()
	default:
		ok = true
	}
	return ok
}

// IndexRangeRequest asks a remote segment for the rows inside Bounds.
type IndexRangeRequest struct {
	OriginNodeID    uuid.UUID
	QueryID         int64
	OriginSegmentID int32
	SegmentID       int32
	BatchLookupID   int32
	Bounds          []*RowRangeBounds
}

func (m *IndexRangeRequest) TypeCode() int16 { return TypeIndexRangeRequest }

func (m *IndexRangeRequest) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteUUID(m.OriginNodeID)
	case 1:
		return w.WriteInt64(m.QueryID)
	case 2:
		return w.WriteInt32(m.OriginSegmentID)
	case 3:
		return w.WriteInt32(m.SegmentID)
	case 4:
		return w.WriteInt32(m.BatchLookupID)
	case 5:
		return wire.WriteList(w, m.Bounds, wire.WriteStruct[RowRangeBounds])
	}
	return true
}

func (m *IndexRangeRequest) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.OriginNodeID, ok = r.ReadUUID()
	case 1:
		m.QueryID, ok = r.ReadInt64()
	case 2:
		m.OriginSegmentID, ok = r.ReadInt32()
	case 3:
		m.SegmentID, ok = r.ReadInt32()
	case 4:
		m.BatchLookupID, ok = r.ReadInt32()
	case 5:
		m.Bounds, ok = wire.ReadList(r, wire.ReadStruct[RowRangeBounds])
	default:
		ok = true
	}
	return ok
}

// Respond starts a response addressed back to the request's segment.
func (m *IndexRangeRequest) Respond(status RangeStatus) *IndexRangeResponse {
	return &IndexRangeResponse{
		OriginNodeID:    m.OriginNodeID,
		QueryID:         m.QueryID,
		SegmentID:       m.SegmentID,
		OriginSegmentID: m.OriginSegmentID,
		BatchLookupID:   m.BatchLookupID,
		Status:          status,
	}
}

// IndexRangeResponse returns rows for an IndexRangeRequest. Err is set
// only with StatusError.
type IndexRangeResponse struct {
	OriginNodeID    uuid.UUID
	QueryID         int64
	SegmentID       int32
	OriginSegmentID int32
	BatchLookupID   int32
	Ranges          []*RowRange
	Status          RangeStatus
	Err             string
}

func (m *IndexRangeResponse) TypeCode() int16 { return TypeIndexRangeResponse }

func (m *IndexRangeResponse) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteUUID(m.OriginNodeID)
	case 1:
		return w.WriteInt64(m.QueryID)
	case 2:
		return w.WriteInt32(m.SegmentID)
	case 3:
		return w.WriteInt32(m.OriginSegmentID)
	case 4:
		return w.WriteInt32(m.BatchLookupID)
	case 5:
		return wire.WriteList(w, m.Ranges, wire.WriteStruct[RowRange])
	case 6:
		return wire.WriteEnum(w, m.Status)
	case 7:
		return w.WriteString(m.Err)
	}
	return true
}

func (m *IndexRangeResponse) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.OriginNodeID, ok = r.ReadUUID()
	case 1:
		m.QueryID, ok = r.ReadInt64()
	case 2:
		m.SegmentID, ok = r.ReadInt32()
	case 3:
		m.OriginSegmentID, ok = r.ReadInt32()
	case 4:
		m.BatchLookupID, ok = r.ReadInt32()
	case 5:
		m.Ranges, ok = wire.ReadList(r, wire.ReadStruct[RowRange])
	case 6:
		m.Status, ok = wire.ReadEnum[RangeStatus](r)
	case 7:
		m.Err, ok = r.ReadString()
	default:
		ok = true
	}
	return ok
}
