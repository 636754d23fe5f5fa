package value

import (
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// Geometry carries a spatial value in an encoding this package does not
// interpret. Decoding goes through GeometryDecoders.
type Geometry struct{ B []byte }

func (m *Geometry) TypeCode() int16 { return TypeGeometry }
func (m *Geometry) String() string  { return "g_" + hex.EncodeToString(m.B) }

func (m *Geometry) WriteField(w *wire.Writer, idx int) bool {
	if idx == 0 {
		return w.WriteBytes(m.B)
	}
	return true
}

func (m *Geometry) ReadField(r *wire.Reader, idx int) bool {
	if idx != 0 {
		return true
	}
	var ok bool
	m.B, ok = r.ReadBytes()
	return ok
}

// GeometryDecoder turns encoded geometry bytes into a spatial object.
type GeometryDecoder func(b []byte) (any, error)

// GeometryDecoders maps an encoding name (for example "wkb") to its
// decoder. The zero value is not usable; call NewGeometryDecoders.
type GeometryDecoders struct {
	mu       sync.RWMutex
	decoders map[string]GeometryDecoder
}

func NewGeometryDecoders() *GeometryDecoders {
	return &GeometryDecoders{decoders: make(map[string]GeometryDecoder)}
}

// Register installs dec for format, replacing any previous decoder.
func (d *GeometryDecoders) Register(format string, dec GeometryDecoder) error {
	if format == "" || dec == nil {
		return domain.ErrBadRequest.WithDetails("geometry decoder needs a format and a function")
	}
	d.mu.Lock()
	d.decoders[format] = dec
	d.mu.Unlock()
	return nil
}

// Formats lists registered encodings.
func (d *GeometryDecoders) Formats() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.decoders))
	for f := range d.decoders {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Decode decodes g with the decoder for format. Without one it fails with
// domain.ErrUnsupportedPayloadType.
func (d *GeometryDecoders) Decode(format string, g *Geometry) (any, error) {
	d.mu.RLock()
	dec, ok := d.decoders[format]
	d.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUnsupportedPayloadType.Detailf("no geometry decoder for %q", format)
	}
	v, err := dec(g.B)
	if err != nil {
		return nil, fmt.Errorf("value: decode %s geometry: %w", format, err)
	}
	return v, nil
}
