package wire

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type testColor uint8

const (
	colorRed testColor = iota
	colorGreen
	colorBlue
)

type testScalars struct {
	Flag  bool
	Small int8
	Short int16
	Int   int32
	Long  int64
	Ratio float64
	Name  string
	Data  []byte
	Node  uuid.UUID
	Op    ulid.ULID
	Color testColor
}

func (m *testScalars) TypeCode() int16 { return 1 }

func (m *testScalars) WriteField(w *Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteBool(m.Flag)
	case 1:
		return w.WriteInt8(m.Small)
	case 2:
		return w.WriteInt16(m.Short)
	case 3:
		return w.WriteInt32(m.Int)
	case 4:
		return w.WriteInt64(m.Long)
	case 5:
		return w.WriteFloat64(m.Ratio)
	case 6:
		return w.WriteString(m.Name)
	case 7:
		return w.WriteBytes(m.Data)
	case 8:
		return w.WriteUUID(m.Node)
	case 9:
		return w.WriteULID(m.Op)
	case 10:
		return WriteEnum(w, m.Color)
	}
	return true
}

func (m *testScalars) ReadField(r *Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.Flag, ok = r.ReadBool()
	case 1:
		m.Small, ok = r.ReadInt8()
	case 2:
		m.Short, ok = r.ReadInt16()
	case 3:
		m.Int, ok = r.ReadInt32()
	case 4:
		m.Long, ok = r.ReadInt64()
	case 5:
		m.Ratio, ok = r.ReadFloat64()
	case 6:
		m.Name, ok = r.ReadString()
	case 7:
		m.Data, ok = r.ReadBytes()
	case 8:
		m.Node, ok = r.ReadUUID()
	case 9:
		m.Op, ok = r.ReadULID()
	case 10:
		m.Color, ok = ReadEnum[testColor](r)
	default:
		ok = true
	}
	return ok
}

var testScalarsType = Type{
	Code: 1,
	Name: "testScalars",
	Fields: []Field{
		{"flag", KindBool}, {"small", KindInt8}, {"short", KindInt16},
		{"int", KindInt32}, {"long", KindInt64}, {"ratio", KindFloat64},
		{"name", KindString}, {"data", KindBytes}, {"node", KindUUID},
		{"op", KindULID}, {"color", KindEnum},
	},
	New: func() Message { return &testScalars{} },
}

// testLeaf uses a negative code.
type testLeaf struct {
	ID    int32
	Label string
}

func (m *testLeaf) TypeCode() int16 { return -7 }

func (m *testLeaf) WriteField(w *Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt32(m.ID)
	case 1:
		return w.WriteString(m.Label)
	}
	return true
}

func (m *testLeaf) ReadField(r *Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.ID, ok = r.ReadInt32()
	case 1:
		m.Label, ok = r.ReadString()
	default:
		ok = true
	}
	return ok
}

var testLeafType = Type{
	Code:   -7,
	Name:   "testLeaf",
	Fields: []Field{{"id", KindInt32}, {"label", KindString}},
	New:    func() Message { return &testLeaf{} },
}

type testContainer struct {
	Names    []string
	Counts   map[string]int32
	Child    Message
	Leaves   []*testLeaf
	Mixed    []Message
	Owners   map[uuid.UUID][]int64
	Payload  []byte
	Packed   Message
	Only     *testLeaf
	Trailing int64
}

func (m *testContainer) TypeCode() int16 { return 2 }

func (m *testContainer) WriteField(w *Writer, idx int) bool {
	switch idx {
	case 0:
		return WriteList(w, m.Names, (*Writer).WriteString)
	case 1:
		return WriteMap(w, m.Counts, strings.Compare, (*Writer).WriteString, (*Writer).WriteInt32)
	case 2:
		return w.WriteNested(m.Child)
	case 3:
		return WriteList(w, m.Leaves, WriteStruct[testLeaf])
	case 4:
		return WriteList(w, m.Mixed, (*Writer).WriteNested)
	case 5:
		return WriteMap(w, m.Owners, CompareUUID, (*Writer).WriteUUID, (*Writer).WriteInt64s)
	case 6:
		return w.WriteChunked(m.Payload)
	case 7:
		return w.WriteCompressed(m.Packed)
	case 8:
		return WriteStruct(w, m.Only)
	case 9:
		return w.WriteInt64(m.Trailing)
	}
	return true
}

func (m *testContainer) ReadField(r *Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.Names, ok = ReadList(r, (*Reader).ReadString)
	case 1:
		m.Counts, ok = ReadMap(r, (*Reader).ReadString, (*Reader).ReadInt32)
	case 2:
		m.Child, ok = r.ReadNested()
	case 3:
		m.Leaves, ok = ReadList(r, ReadStruct[testLeaf])
	case 4:
		m.Mixed, ok = ReadList(r, (*Reader).ReadNested)
	case 5:
		m.Owners, ok = ReadMap(r, (*Reader).ReadUUID, (*Reader).ReadInt64s)
	case 6:
		m.Payload, ok = r.ReadChunked()
	case 7:
		m.Packed, ok = r.ReadCompressed()
	case 8:
		m.Only, ok = ReadStruct[testLeaf](r)
	case 9:
		m.Trailing, ok = r.ReadInt64()
	default:
		ok = true
	}
	return ok
}

var testContainerType = Type{
	Code: 2,
	Name: "testContainer",
	Fields: []Field{
		{"names", KindList}, {"counts", KindMap}, {"child", KindMessage},
		{"leaves", KindList}, {"mixed", KindList}, {"owners", KindMap},
		{"payload", KindChunked}, {"packed", KindCompressed}, {"only", KindStruct},
		{"trailing", KindInt64},
	},
	New: func() Message { return &testContainer{} },
}

func newTestRegistry() *Registry {
	reg := NewRegistry()
	reg.MustRegister(testScalarsType, testLeafType, testContainerType)
	return reg
}
