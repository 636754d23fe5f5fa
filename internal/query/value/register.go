package value

import "github.com/yndnr/gridwire-go/internal/wire"

func one(name string, kind wire.Kind) []wire.Field {
	return []wire.Field{{Name: name, Kind: kind}}
}

// Types lists the schemas of every message in this package.
func Types() []wire.Type {
	return append(baseTypes(), queryTypes()...)
}

func baseTypes() []wire.Type {
	return []wire.Type{
		{Code: TypeNull, Name: "ValueNull", New: func() wire.Message { return &Null{} }},
		{Code: TypeBool, Name: "ValueBool", Fields: one("v", wire.KindBool), New: func() wire.Message { return &Bool{} }},
		{Code: TypeInt, Name: "ValueInt", Fields: one("v", wire.KindInt32), New: func() wire.Message { return &Int{} }},
		{Code: TypeLong, Name: "ValueLong", Fields: one("v", wire.KindInt64), New: func() wire.Message { return &Long{} }},
		{
			Code:   TypeDecimal,
			Name:   "ValueDecimal",
			Fields: []wire.Field{{Name: "scale", Kind: wire.KindInt32}, {Name: "b", Kind: wire.KindBytes}},
			New:    func() wire.Message { return &Decimal{} },
		},
		{Code: TypeDouble, Name: "ValueDouble", Fields: one("v", wire.KindFloat64), New: func() wire.Message { return &Double{} }},
		{Code: TypeTime, Name: "ValueTime", Fields: one("nanos", wire.KindInt64), New: func() wire.Message { return &Time{} }},
		{
			Code:   TypeTimestamp,
			Name:   "ValueTimestamp",
			Fields: []wire.Field{{Name: "date", Kind: wire.KindInt64}, {Name: "nanos", Kind: wire.KindInt64}},
			New:    func() wire.Message { return &Timestamp{} },
		},
		{Code: TypeBytes, Name: "ValueBytes", Fields: one("b", wire.KindBytes), New: func() wire.Message { return &Bytes{} }},
		{Code: TypeString, Name: "ValueString", Fields: one("v", wire.KindString), New: func() wire.Message { return &String{} }},
		{Code: TypeArray, Name: "ValueArray", Fields: one("x", wire.KindList), New: func() wire.Message { return &Array{} }},
		{
			Code:   TypeUUID,
			Name:   "ValueUuid",
			Fields: []wire.Field{{Name: "high", Kind: wire.KindInt64}, {Name: "low", Kind: wire.KindInt64}},
			New:    func() wire.Message { return &UUID{} },
		},
		{Code: TypeGeometry, Name: "ValueGeometry", Fields: one("b", wire.KindBytes), New: func() wire.Message { return &Geometry{} }},
		{
			Code: TypeIndexRangeRequest,
			Name: "IndexRangeRequest",
			Fields: []wire.Field{
				{Name: "originNodeId", Kind: wire.KindUUID},
				{Name: "qryId", Kind: wire.KindInt64},
				{Name: "originSegmentId", Kind: wire.KindInt32},
				{Name: "segmentId", Kind: wire.KindInt32},
				{Name: "batchLookupId", Kind: wire.KindInt32},
				{Name: "bounds", Kind: wire.KindList},
			},
			New: func() wire.Message { return &IndexRangeRequest{} },
		},
		{
			Code: TypeIndexRangeResponse,
			Name: "IndexRangeResponse",
			Fields: []wire.Field{
				{Name: "originNodeId", Kind: wire.KindUUID},
				{Name: "qryId", Kind: wire.KindInt64},
				{Name: "segmentId", Kind: wire.KindInt32},
				{Name: "originSegmentId", Kind: wire.KindInt32},
				{Name: "batchLookupId", Kind: wire.KindInt32},
				{Name: "ranges", Kind: wire.KindList},
				{Name: "status", Kind: wire.KindEnum},
				{Name: "err", Kind: wire.KindString},
			},
			New: func() wire.Message { return &IndexRangeResponse{} },
		},
		{Code: TypeRow, Name: "Row", Fields: one("values", wire.KindList), New: func() wire.Message { return &Row{} }},
		{
			Code: TypeRowRange,
			Name: "RowRange",
			Fields: []wire.Field{
				{Name: "rangeId", Kind: wire.KindInt32},
				{Name: "rows", Kind: wire.KindList},
				{Name: "flags", Kind: wire.KindUint8},
			},
			New: func() wire.Message { return &RowRange{} },
		},
		{
			Code: TypeRowRangeBounds,
			Name: "RowRangeBounds",
			Fields: []wire.Field{
				{Name: "rangeId", Kind: wire.KindInt32},
				{Name: "first", Kind: wire.KindStruct},
				{Name: "last", Kind: wire.KindStruct},
			},
			New: func() wire.Message { return &RowRangeBounds{} },
		},
	}
}

// RegisterMessages adds every value, index and query message to reg.
func RegisterMessages(reg *wire.Registry) error {
	for _, t := range Types() {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
