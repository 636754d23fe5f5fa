package value

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

// Of converts a Go value to its wire form. time.Time becomes a Timestamp;
// use NewTime for a time of day. Unsupported Go types fail with
// domain.ErrUnsupportedPayloadType.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return &Null{}, nil
	case Value:
		return x, nil
	case bool:
		return &Bool{V: x}, nil
	case int32:
		return &Int{V: x}, nil
	case int:
		return &Long{V: int64(x)}, nil
	case int64:
		return &Long{V: x}, nil
	case float64:
		return &Double{V: x}, nil
	case string:
		return &String{V: x}, nil
	case []byte:
		return &Bytes{B: x}, nil
	case *big.Int:
		return NewDecimal(x, 0), nil
	case time.Time:
		return NewTimestamp(x), nil
	case uuid.UUID:
		return NewUUID(x), nil
	case []any:
		arr := &Array{Items: make([]Value, len(x))}
		for i, item := range x {
			iv, err := Of(item)
			if err != nil {
				return nil, err
			}
			arr.Items[i] = iv
		}
		return arr, nil
	}
	return nil, domain.ErrUnsupportedPayloadType.Detailf("no value form for %T", v)
}

// Native converts a wire value back to a Go value. Decimals come back as
// *big.Rat, times as time.Duration and geometry as its raw bytes.
func Native(v Value) any {
	switch x := v.(type) {
	case nil, *Null:
		return nil
	case *Bool:
		return x.V
	case *Int:
		return x.V
	case *Long:
		return x.V
	case *Double:
		return x.V
	case *String:
		return x.V
	case *Bytes:
		return x.B
	case *Decimal:
		return x.Rat()
	case *Time:
		return x.Duration()
	case *Timestamp:
		return x.Time()
	case *UUID:
		return x.UUID()
	case *Geometry:
		return x.B
	case *Array:
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			out[i] = Native(item)
		}
		return out
	}
	return v
}

// RowOf builds a row from Go values.
func RowOf(vals ...any) (*Row, error) {
	row := &Row{Values: make([]Value, len(vals))}
	for i, v := range vals {
		wv, err := Of(v)
		if err != nil {
			return nil, err
		}
		row.Values[i] = wv
	}
	return row, nil
}
