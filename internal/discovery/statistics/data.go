package statistics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/query/value"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// Wire codes of the collected statistics messages.
const (
	TypeKey        int16 = 183
	TypeObjectData int16 = 185
	TypeColumnData int16 = 186
	TypeResponse   int16 = 188
)

// Kind is the scope a set of statistics was collected over.
type Kind uint8

const (
	KindGlobal Kind = iota
	KindPartition
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "GLOBAL"
	case KindPartition:
		return "PARTITION"
	case KindLocal:
		return "LOCAL"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Key names a table and, optionally, a subset of its columns.
type Key struct {
	Schema  string
	Object  string
	Columns []string
}

// Qualified returns schema.object.
func (m *Key) Qualified() string { return m.Schema + "." + m.Object }

// TypeCode returns TypeKey.
func (m *Key) TypeCode() int16 { return TypeKey }

func (m *Key) String() string {
	if len(m.Columns) == 0 {
		return m.Qualified()
	}
	return m.Qualified() + "(" + strings.Join(m.Columns, ",") + ")"
}

// WriteField writes field idx in the order schema, obj, colNames.
func (m *Key) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteString(m.Schema)
	case 1:
		return w.WriteString(m.Object)
	case 2:
		return wire.WriteList(w, m.Columns, (*wire.Writer).WriteString)
	}
	return true
}

// ReadField reads field idx in the order WriteField writes it.
func (m *Key) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.Schema, ok = r.ReadString()
	case 1:
		m.Object, ok = r.ReadString()
	case 2:
		m.Columns, ok = wire.ReadList(r, (*wire.Reader).ReadString)
	default:
		ok = true
	}
	return ok
}

// ColumnData is the statistics of one column. Min and Max are nil when
// the column holds no comparable values. Sketch carries the serialized
// distinct-value estimator.
type ColumnData struct {
	Min       *value.Decimal
	Max       *value.Decimal
	Nulls     int64
	Distinct  int64
	Total     int64
	Size      int32
	Sketch    []byte
	Version   int64
	CreatedAt int64
}

// TypeCode returns TypeColumnData.
func (m *ColumnData) TypeCode() int16 { return TypeColumnData }

// NonNull is the number of rows with a value.
func (m *ColumnData) NonNull() int64 { return m.Total - m.Nulls }

// WriteField writes field idx in the order min, max, nulls, distinct,
// total, size, rawData, ver, createdAt.
func (m *ColumnData) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return wire.WriteStruct[value.Decimal](w, m.Min)
	case 1:
		return wire.WriteStruct[value.Decimal](w, m.Max)
	case 2:
		return w.WriteInt64(m.Nulls)
	case 3:
		return w.WriteInt64(m.Distinct)
	case 4:
		return w.WriteInt64(m.Total)
	case 5:
		return w.WriteInt32(m.Size)
	case 6:
		return w.WriteBytes(m.Sketch)
	case 7:
		return w.WriteInt64(m.Version)
	case 8:
		return w.WriteInt64(m.CreatedAt)
	}
	return true
}

// ReadField reads field idx in the order WriteField writes it.
func (m *ColumnData) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.Min, ok = wire.ReadStruct[value.Decimal](r)
	case 1:
		m.Max, ok = wire.ReadStruct[value.Decimal](r)
	case 2:
		m.Nulls, ok = r.ReadInt64()
	case 3:
		m.Distinct, ok = r.ReadInt64()
	case 4:
		m.Total, ok = r.ReadInt64()
	case 5:
		m.Size, ok = r.ReadInt32()
	case 6:
		m.Sketch, ok = r.ReadBytes()
	case 7:
		m.Version, ok = r.ReadInt64()
	case 8:
		m.CreatedAt, ok = r.ReadInt64()
	default:
		ok = true
	}
	return ok
}

// ObjectData is the statistics of one table. PartitionID is meaningful
// only for KindPartition.
type ObjectData struct {
	Key         *Key
	Rows        int64
	Kind        Kind
	PartitionID int32
	Updates     int64
	Columns     map[string]*ColumnData
}

// TypeCode returns TypeObjectData.
func (m *ObjectData) TypeCode() int16 { return TypeObjectData }

// ColumnNames returns the collected columns in name order.
func (m *ObjectData) ColumnNames() []string {
	names := make([]string, 0, len(m.Columns))
	for name := range m.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteField writes field idx in the order key, rowsCnt, type, partId, updCnt, data.
func (m *ObjectData) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return wire.WriteStruct[Key](w, m.Key)
	case 1:
		return w.WriteInt64(m.Rows)
	case 2:
		return wire.WriteEnum(w, m.Kind)
	case 3:
		return w.WriteInt32(m.PartitionID)
	case 4:
		return w.WriteInt64(m.Updates)
	case 5:
		return wire.WriteMap(w, m.Columns, strings.Compare,
			(*wire.Writer).WriteString, wire.WriteStruct[ColumnData])
	}
	return true
}

// ReadField reads field idx in the order WriteField writes it.
func (m *ObjectData) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.Key, ok = wire.ReadStruct[Key](r)
	case 1:
		m.Rows, ok = r.ReadInt64()
	case 2:
		m.Kind, ok = wire.ReadEnum[Kind](r)
	case 3:
		m.PartitionID, ok = r.ReadInt32()
	case 4:
		m.Updates, ok = r.ReadInt64()
	case 5:
		m.Columns, ok = wire.ReadMap(r, (*wire.Reader).ReadString, wire.ReadStruct[ColumnData])
	default:
		ok = true
	}
	return ok
}

// Response carries collected statistics back to the node that asked for
// them.
type Response struct {
	RequestID uuid.UUID
	Data      *ObjectData
}

// TypeCode returns TypeResponse.
func (m *Response) TypeCode() int16 { return TypeResponse }

// WriteField writes field idx in the order reqId, data.
func (m *Response) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteUUID(m.RequestID)
	case 1:
		return wire.WriteStruct[ObjectData](w, m.Data)
	}
	return true
}

// ReadField reads field idx in the order WriteField writes it.
func (m *Response) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.RequestID, ok = r.ReadUUID()
	case 1:
		m.Data, ok = wire.ReadStruct[ObjectData](r)
	default:
		ok = true
	}
	return ok
}

func dataTypes() []wire.Type {
	return []wire.Type{
		{
			Code: TypeKey,
			Name: "StatisticsKeyMessage",
			Fields: []wire.Field{
				{Name: "schema", Kind: wire.KindString},
				{Name: "obj", Kind: wire.KindString},
				{Name: "colNames", Kind: wire.KindList},
			},
			New: func() wire.Message { return &Key{} },
		},
		{
			Code: TypeObjectData,
			Name: "StatisticsObjectData",
			Fields: []wire.Field{
				{Name: "key", Kind: wire.KindStruct},
				{Name: "rowsCnt", Kind: wire.KindInt64},
				{Name: "type", Kind: wire.KindEnum},
				{Name: "partId", Kind: wire.KindInt32},
				{Name: "updCnt", Kind: wire.KindInt64},
				{Name: "data", Kind: wire.KindMap},
			},
			New: func() wire.Message { return &ObjectData{} },
		},
		{
			Code: TypeColumnData,
			Name: "StatisticsColumnData",
			Fields: []wire.Field{
				{Name: "min", Kind: wire.KindStruct},
				{Name: "max", Kind: wire.KindStruct},
				{Name: "nulls", Kind: wire.KindInt64},
				{Name: "distinct", Kind: wire.KindInt64},
				{Name: "total", Kind: wire.KindInt64},
				{Name: "size", Kind: wire.KindInt32},
				{Name: "rawData", Kind: wire.KindBytes},
				{Name: "ver", Kind: wire.KindInt64},
				{Name: "createdAt", Kind: wire.KindInt64},
			},
			New: func() wire.Message { return &ColumnData{} },
		},
		{
			Code: TypeResponse,
			Name: "StatisticsResponse",
			Fields: []wire.Field{
				{Name: "reqId", Kind: wire.KindUUID},
				{Name: "data", Kind: wire.KindStruct},
			},
			New: func() wire.Message { return &Response{} },
		},
	}
}
