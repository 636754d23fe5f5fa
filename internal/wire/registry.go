package wire

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

// NilTypeCode marks an absent polymorphic message on the wire. It can
// never be registered.
const NilTypeCode int16 = math.MinInt16

// Message is a value with a registered wire schema.
//
// WriteField and ReadField encode or decode the field at index idx and
// report whether it completed. A false return means the buffer ran out
// (or the driver failed); the driver calls again with the same idx once
// more space or data is available. Implementations must be pointer types.
type Message interface {
	TypeCode() int16
	WriteField(w *Writer, idx int) bool
	ReadField(r *Reader, idx int) bool
}

// Kind is the semantic type of a field.
type Kind uint8

// Field kinds.
const (
	KindBool Kind = iota + 1
	KindInt8
	KindUint8
	KindInt16
	KindInt32
	KindInt64
	KindFloat64
	KindString
	KindBytes
	KindInt32Array
	KindInt64Array
	KindUUID
	KindULID
	KindEnum
	KindList
	KindMap
	KindMessage
	KindStruct
	KindChunked
	KindCompressed
)

var kindNames = map[Kind]string{
	KindBool:       "bool",
	KindInt8:       "int8",
	KindUint8:      "uint8",
	KindInt16:      "int16",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindFloat64:    "float64",
	KindString:     "string",
	KindBytes:      "bytes",
	KindInt32Array: "int32[]",
	KindInt64Array: "int64[]",
	KindUUID:       "uuid",
	KindULID:       "ulid",
	KindEnum:       "enum",
	KindList:       "list",
	KindMap:        "map",
	KindMessage:    "message",
	KindStruct:     "struct",
	KindChunked:    "chunked",
	KindCompressed: "compressed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Field describes one position in a Type's field order.
type Field struct {
	Name string
	Kind Kind
}

// Type is the schema of one message variant. Fields are indexed from 0 in
// declaration order; new fields are only ever appended.
type Type struct {
	Code   int16
	Name   string
	Fields []Field
	New    func() Message
}

// Registry maps type codes to message types. All registration happens
// before the first Writer or Reader is built on it; constructing a codec
// seals the registry.
type Registry struct {
	mu     sync.RWMutex
	types  map[int16]*Type
	sealed atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[int16]*Type)}
}

// Register adds t to the registry.
func (r *Registry) Register(t Type) error {
	if r.sealed.Load() {
		return domain.ErrRegistrySealed.Detailf("register %s (%d)", t.Name, t.Code)
	}
	if t.Code == NilTypeCode {
		return domain.ErrInvalidTypeCode.Detailf("%d is reserved for nil messages", t.Code)
	}
	if t.New == nil {
		return domain.ErrInvalidTypeCode.Detailf("%s (%d) has no constructor", t.Name, t.Code)
	}
	if got := t.New().TypeCode(); got != t.Code {
		return domain.ErrInvalidTypeCode.Detailf("%s constructor reports code %d, registered as %d", t.Name, got, t.Code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.types[t.Code]; ok {
		return domain.ErrDuplicateTypeCode.Detailf("%d used by %s and %s", t.Code, prev.Name, t.Name)
	}
	t.Fields = append([]Field(nil), t.Fields...)
	r.types[t.Code] = &t
	return nil
}

// MustRegister registers every type and panics on the first failure.
func (r *Registry) MustRegister(types ...Type) {
	for _, t := range types {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Create returns an empty instance for code.
func (r *Registry) Create(code int16) (Message, error) {
	t, ok := r.Lookup(code)
	if !ok {
		return nil, domain.ErrUnknownTypeCode.Detailf("code %d", code)
	}
	return t.New(), nil
}

// Lookup returns the type registered for code.
func (r *Registry) Lookup(code int16) (*Type, bool) {
	r.mu.RLock()
	t, ok := r.types[code]
	r.mu.RUnlock()
	return t, ok
}

// Types returns all registered types ordered by code.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	out := make([]Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, *t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Seal forbids further registration.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Sealed reports whether the registry accepts registrations.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}
