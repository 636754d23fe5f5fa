package value

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/wire"
)

// Distributed query codes.
const (
	TypeQueryRequest int16 = -33
	TypeDmlRequest   int16 = -55
	TypeDmlResponse  int16 = -56
)

// Query flags.
const (
	FlagDistributedJoins        uint8 = 1 << 0
	FlagEnforceJoinOrder        uint8 = 1 << 1
	FlagReplicatedAsPartitioned uint8 = 1 << 2
	FlagExplain                 uint8 = 1 << 3
	FlagReplicated              uint8 = 1 << 4
	FlagLazy                    uint8 = 1 << 5
)

// The top two flag bits hold a PageScan.
const (
	pageScanShift      = 6
	pageScanMask uint8 = 0b11 << pageScanShift
)

// PageScan selects data page scanning for a query.
type PageScan uint8

const (
	PageScanDefault PageScan = iota
	PageScanEnabled
	PageScanDisabled
)

func (p PageScan) String() string {
	switch p {
	case PageScanDefault:
		return "DEFAULT"
	case PageScanEnabled:
		return "ENABLED"
	case PageScanDisabled:
		return "DISABLED"
	}
	return fmt.Sprintf("PageScan(%d)", uint8(p))
}

// queryFlags is the flag byte shared by query and DML requests.
type queryFlags uint8

func (f queryFlags) has(flag uint8) bool { return uint8(f)&flag == flag }

func (f queryFlags) pageScan() PageScan { return PageScan((uint8(f) & pageScanMask) >> pageScanShift) }

func (f queryFlags) withPageScan(p PageScan) queryFlags {
	return queryFlags(uint8(f)&^pageScanMask | uint8(p)<<pageScanShift&pageScanMask)
}

// QueryRequest starts the map phase of a distributed query on a node.
// Parts maps each node to the partitions it serves for this query; a nil
// map means every local partition.
type QueryRequest struct {
	RequestID       int64
	Caches          []int32
	TopVer          int64
	MinorTopVer     int32
	Parts           map[uuid.UUID][]int32
	QueryParts      []int32
	PageSize        int32
	Queries         []string
	Flags           uint8
	Tables          []string
	Timeout         int32
	Params          []Value
	Schema          string
	InitiatorID     string
	QueryID         int64
	ExplicitTimeout bool
}

// TypeCode returns TypeQueryRequest.
func (m *QueryRequest) TypeCode() int16 { return TypeQueryRequest }

// Has reports whether every bit of flag is set.
func (m *QueryRequest) Has(flag uint8) bool { return queryFlags(m.Flags).has(flag) }

// PageScan returns the requested data page scan mode.
func (m *QueryRequest) PageScan() PageScan { return queryFlags(m.Flags).pageScan() }

// SetPageScan replaces the data page scan mode and keeps the other flags.
func (m *QueryRequest) SetPageScan(p PageScan) {
	m.Flags = uint8(queryFlags(m.Flags).withPageScan(p))
}

// PartitionsOf returns the partitions node serves, or nil when the request
// does not restrict it.
func (m *QueryRequest) PartitionsOf(node uuid.UUID) []int32 {
	return m.Parts[node]
}

func (m *QueryRequest) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt64(m.RequestID)
	case 1:
		return w.WriteInt32s(m.Caches)
	case 2:
		return w.WriteInt64(m.TopVer)
	case 3:
		return w.WriteInt32(m.MinorTopVer)
	case 4:
		return wire.WriteMap(w, m.Parts, wire.CompareUUID, (*wire.Writer).WriteUUID, (*wire.Writer).WriteInt32s)
	case 5:
		return w.WriteInt32s(m.QueryParts)
	case 6:
		return w.WriteInt32(m.PageSize)
	case 7:
		return wire.WriteList(w, m.Queries, (*wire.Writer).WriteString)
	case 8:
		return w.WriteUint8(m.Flags)
	case 9:
		return wire.WriteList(w, m.Tables, (*wire.Writer).WriteString)
	case 10:
		return w.WriteInt32(m.Timeout)
	case 11:
		return wire.WriteList(w, m.Params, writeValue)
	case 12:
		return w.WriteString(m.Schema)
	case 13:
		return w.WriteString(m.InitiatorID)
	case 14:
		return w.WriteInt64(m.QueryID)
	case 15:
		return w.WriteBool(m.ExplicitTimeout)
	}
	return true
}

func (m *QueryRequest) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.RequestID, ok = r.ReadInt64()
	case 1:
		m.Caches, ok = r.ReadInt32s()
	case 2:
		m.TopVer, ok = r.ReadInt64()
	case 3:
		m.MinorTopVer, ok = r.ReadInt32()
	case 4:
		m.Parts, ok = wire.ReadMap(r, (*wire.Reader).ReadUUID, (*wire.Reader).ReadInt32s)
	case 5:
		m.QueryParts, ok = r.ReadInt32s()
	case 6:
		m.PageSize, ok = r.ReadInt32()
	case 7:
		m.Queries, ok = wire.ReadList(r, (*wire.Reader).ReadString)
	case 8:
		m.Flags, ok = r.ReadUint8()
	case 9:
		m.Tables, ok = wire.ReadList(r, (*wire.Reader).ReadString)
	case 10:
		m.Timeout, ok = r.ReadInt32()
	case 11:
		m.Params, ok = wire.ReadList(r, readValue)
	case 12:
		m.Schema, ok = r.ReadString()
	case 13:
		m.InitiatorID, ok = r.ReadString()
	case 14:
		m.QueryID, ok = r.ReadInt64()
	case 15:
		m.ExplicitTimeout, ok = r.ReadBool()
	default:
		ok = true
	}
	return ok
}

// DmlRequest runs an update statement on the partitions a node owns.
type DmlRequest struct {
	RequestID       int64
	Caches          []int32
	TopVer          int64
	MinorTopVer     int32
	QueryParts      []int32
	PageSize        int32
	Query           string
	Flags           uint8
	Timeout         int32
	Params          []Value
	Schema          string
	ExplicitTimeout bool
}

// TypeCode returns TypeDmlRequest.
func (m *DmlRequest) TypeCode() int16 { return TypeDmlRequest }

// Has reports whether every bit of flag is set.
func (m *DmlRequest) Has(flag uint8) bool { return queryFlags(m.Flags).has(flag) }

// Respond reports a successful update of n rows.
func (m *DmlRequest) Respond(n int64) *DmlResponse {
	return &DmlResponse{RequestID: m.RequestID, Updated: n}
}

// Fail reports an error. Keys lists the rows that could not be updated;
// Updated counts the rows changed before the failure.
func (m *DmlRequest) Fail(updated int64, err string, keys []Value) *DmlResponse {
	return &DmlResponse{RequestID: m.RequestID, Updated: updated, Err: err, ErrKeys: keys}
}

func (m *DmlRequest) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt64(m.RequestID)
	case 1:
		return w.WriteInt32s(m.Caches)
	case 2:
		return w.WriteInt64(m.TopVer)
	case 3:
		return w.WriteInt32(m.MinorTopVer)
	case 4:
		return w.WriteInt32s(m.QueryParts)
	case 5:
		return w.WriteInt32(m.PageSize)
	case 6:
		return w.WriteString(m.Query)
	case 7:
		return w.WriteUint8(m.Flags)
	case 8:
		return w.WriteInt32(m.Timeout)
	case 9:
		return wire.WriteList(w, m.Params, writeValue)
	case 10:
		return w.WriteString(m.Schema)
	case 11:
		return w.WriteBool(m.ExplicitTimeout)
	}
	return true
}

func (m *DmlRequest) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.RequestID, ok = r.ReadInt64()
	case 1:
		m.Caches, ok = r.ReadInt32s()
	case 2:
		m.TopVer, ok = r.ReadInt64()
	case 3:
		m.MinorTopVer, ok = r.ReadInt32()
	case 4:
		m.QueryParts, ok = r.ReadInt32s()
	case 5:
		m.PageSize, ok = r.ReadInt32()
	case 6:
		m.Query, ok = r.ReadString()
	case 7:
		m.Flags, ok = r.ReadUint8()
	case 8:
		m.Timeout, ok = r.ReadInt32()
	case 9:
		m.Params, ok = wire.ReadList(r, readValue)
	case 10:
		m.Schema, ok = r.ReadString()
	case 11:
		m.ExplicitTimeout, ok = r.ReadBool()
	default:
		ok = true
	}
	return ok
}

// DmlResponse returns the outcome of a DmlRequest. Err is empty on success.
type DmlResponse struct {
	RequestID int64
	Updated   int64
	Err       string
	ErrKeys   []Value
}

// TypeCode returns TypeDmlResponse.
func (m *DmlResponse) TypeCode() int16 { return TypeDmlResponse }

// Failed reports whether the node returned an error.
func (m *DmlResponse) Failed() bool { return m.Err != "" }

func (m *DmlResponse) WriteField(w *wire.Writer, idx int) bool {
	switch idx {
	case 0:
		return w.WriteInt64(m.RequestID)
	case 1:
		return w.WriteInt64(m.Updated)
	case 2:
		return w.WriteString(m.Err)
	case 3:
		return wire.WriteList(w, m.ErrKeys, writeValue)
	}
	return true
}

func (m *DmlResponse) ReadField(r *wire.Reader, idx int) bool {
	var ok bool
	switch idx {
	case 0:
		m.RequestID, ok = r.ReadInt64()
	case 1:
		m.Updated, ok = r.ReadInt64()
	case 2:
		m.Err, ok = r.ReadString()
	case 3:
		m.ErrKeys, ok = wire.ReadList(r, readValue)
	default:
		ok = true
	}
	return ok
}

func queryTypes() []wire.Type {
	return []wire.Type{
		{
			Code: TypeQueryRequest,
			Name: "QueryRequest",
			Fields: []wire.Field{
				{Name: "reqId", Kind: wire.KindInt64},
				{Name: "caches", Kind: wire.KindInt32Array},
				{Name: "topVer", Kind: wire.KindInt64},
				{Name: "minorTopVer", Kind: wire.KindInt32},
				{Name: "parts", Kind: wire.KindMap},
				{Name: "qryParts", Kind: wire.KindInt32Array},
				{Name: "pageSize", Kind: wire.KindInt32},
				{Name: "qrys", Kind: wire.KindList},
				{Name: "flags", Kind: wire.KindUint8},
				{Name: "tbls", Kind: wire.KindList},
				{Name: "timeout", Kind: wire.KindInt32},
				{Name: "params", Kind: wire.KindList},
				{Name: "schemaName", Kind: wire.KindString},
				{Name: "qryInitiatorId", Kind: wire.KindString},
				{Name: "qryId", Kind: wire.KindInt64},
				{Name: "explicitTimeout", Kind: wire.KindBool},
			},
			New: func() wire.Message { return &QueryRequest{} },
		},
		{
			Code: TypeDmlRequest,
			Name: "DmlRequest",
			Fields: []wire.Field{
				{Name: "reqId", Kind: wire.KindInt64},
				{Name: "caches", Kind: wire.KindInt32Array},
				{Name: "topVer", Kind: wire.KindInt64},
				{Name: "minorTopVer", Kind: wire.KindInt32},
				{Name: "qryParts", Kind: wire.KindInt32Array},
				{Name: "pageSize", Kind: wire.KindInt32},
				{Name: "qry", Kind: wire.KindString},
				{Name: "flags", Kind: wire.KindUint8},
				{Name: "timeout", Kind: wire.KindInt32},
				{Name: "params", Kind: wire.KindList},
				{Name: "schemaName", Kind: wire.KindString},
				{Name: "explicitTimeout", Kind: wire.KindBool},
			},
			New: func() wire.Message { return &DmlRequest{} },
		},
		{
			Code: TypeDmlResponse,
			Name: "DmlResponse",
			Fields: []wire.Field{
				{Name: "reqId", Kind: wire.KindInt64},
				{Name: "updCnt", Kind: wire.KindInt64},
				{Name: "err", Kind: wire.KindString},
				{Name: "errKeys", Kind: wire.KindList},
			},
			New: func() wire.Message { return &DmlResponse{} },
		},
	}
}
