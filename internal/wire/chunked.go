package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

// Chunked payload layout:
//
//	[original length: int32, -1 for nil][chunk count: int32][compressed: bool]
//	[chunk 0: int32 length + bytes]...[chunk N-1]
//
// The payload is cut into chunks of at most the configured chunk size; the
// last chunk may be shorter. When deflating every chunk on its own makes
// the chunks smaller in total, all chunks are sent deflated and the flag is
// set. The chunk count therefore depends only on the payload length.

const (
	stageLength = iota
	stageCount
	stageFlag
	stageChunks
)

type chunkState struct {
	stage      int
	origLen    int
	count      int
	compressed bool

	// writer
	chunks [][]byte
	idx    int

	// reader
	parts [][]byte
	size  int
}

// splitChunks cuts data into views of at most size bytes.
func splitChunks(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	out := make([][]byte, 0, (len(data)+size-1)/size)
	for off := 0; off < len(data); off += size {
		end := min(off+size, len(data))
		out = append(out, data[off:end:end])
	}
	return out
}

// ChunkCount returns how many chunks an n-byte body is split into.
func ChunkCount(n, size int) int {
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

func (w *Writer) newChunkState(raw []byte) *chunkState {
	if raw == nil {
		return &chunkState{origLen: -1}
	}
	s := &chunkState{origLen: len(raw)}
	s.chunks = splitChunks(raw, w.opts.chunkSize)
	s.count = len(s.chunks)
	if packed, saved, ok := compressChunks(s.chunks, w.opts.compressionLevel); ok {
		s.chunks, s.compressed = packed, true
		w.opts.metrics.payloadCompressed(saved)
	}
	return s
}

// WriteChunked writes p as a chunked payload.
func (w *Writer) WriteChunked(p []byte) bool {
	if w.err != nil {
		return false
	}
	c := w.st.top()
	if c.chunk == nil {
		c.chunk = w.newChunkState(p)
	}
	return w.writeChunks(c)
}

// WriteCompressed serializes msg (type code included) and writes the bytes
// as a chunked payload. A nil msg is written as a nil payload.
func (w *Writer) WriteCompressed(msg Message) bool {
	if w.err != nil {
		return false
	}
	c := w.st.top()
	if c.chunk == nil {
		var raw []byte
		if msg != nil {
			b, err := Marshal(w.reg, msg, w.subOptions()...)
			if err != nil {
				return w.Fail(fmt.Errorf("wire: serialize compressed field: %w", err))
			}
			raw = b
		}
		c.chunk = w.newChunkState(raw)
	}
	return w.writeChunks(c)
}

func (w *Writer) writeChunks(c *cursor) bool {
	s := c.chunk
	for s.stage < stageChunks {
		var ok bool
		switch s.stage {
		case stageLength:
			ok = w.WriteInt32(int32(s.origLen))
		case stageCount:
			ok = w.WriteInt32(int32(s.count))
		case stageFlag:
			ok = w.WriteBool(s.compressed)
		}
		if !ok {
			return false
		}
		s.stage++
	}
	for s.idx < len(s.chunks) {
		if !w.WriteBytes(s.chunks[s.idx]) {
			return false
		}
		s.idx++
		w.opts.metrics.chunkWritten()
	}
	c.chunk = nil
	return true
}

// ReadChunked reads a payload written by WriteChunked.
func (r *Reader) ReadChunked() ([]byte, bool) {
	if r.err != nil {
		return nil, false
	}
	return r.readChunks(r.st.top())
}

// ReadCompressed reads a message written by WriteCompressed.
func (r *Reader) ReadCompressed() (Message, bool) {
	if r.err != nil {
		return nil, false
	}
	raw, ok := r.readChunks(r.st.top())
	if !ok || raw == nil {
		return nil, ok
	}
	msg, err := Unmarshal(r.reg, raw, r.subOptions()...)
	if err != nil {
		return nil, r.Fail(fmt.Errorf("wire: decode compressed field: %w", err))
	}
	return msg, true
}

func (r *Reader) readChunks(c *cursor) ([]byte, bool) {
	if c.chunk == nil {
		c.chunk = &chunkState{}
	}
	s := c.chunk
	for s.stage < stageChunks {
		switch s.stage {
		case stageLength:
			v, ok := r.ReadInt32()
			if !ok {
				return nil, false
			}
			if v < -1 || v > MaxArrayLength {
				return nil, r.Fail(domain.ErrCorruptedPayload.Detailf("original length %d", v))
			}
			s.origLen = int(v)
		case stageCount:
			v, ok := r.ReadInt32()
			if !ok {
				return nil, false
			}
			if v < 0 || (s.origLen < 0 && v != 0) || int(v) > max(s.origLen, 0) {
				return nil, r.Fail(domain.ErrCorruptedPayload.Detailf("chunk count %d for length %d", v, s.origLen))
			}
			s.count = int(v)
		case stageFlag:
			v, ok := r.ReadBool()
			if !ok {
				return nil, false
			}
			s.compressed = v
		}
		s.stage++
	}
	for len(s.parts) < s.count {
		p, ok := r.ReadBytes()
		if !ok {
			return nil, false
		}
		if s.compressed {
			out, err := decompress(p, s.origLen-s.size)
			if err != nil {
				return nil, r.Fail(domain.ErrCorruptedPayload.WithCause(err))
			}
			p = out
		}
		s.size += len(p)
		if s.size > MaxArrayLength {
			return nil, r.Fail(ErrArrayTooLarge)
		}
		if s.size > s.origLen {
			return nil, r.Fail(domain.ErrCorruptedPayload.Detailf("chunks exceed header length %d", s.origLen))
		}
		s.parts = append(s.parts, p)
		r.opts.metrics.chunkRead()
	}
	c.chunk = nil

	if s.origLen < 0 {
		return nil, true
	}
	data := bytes.Join(s.parts, nil)
	if data == nil {
		data = []byte{}
	}
	if len(data) != s.origLen {
		return nil, r.Fail(domain.ErrCorruptedPayload.Detailf("reconstructed %d bytes, header says %d", len(data), s.origLen))
	}
	return data, true
}

// compressChunks deflates every chunk and reports whether the deflated
// chunks are smaller in total, and by how many bytes.
func compressChunks(chunks [][]byte, level int) ([][]byte, int, bool) {
	if len(chunks) == 0 || level == flate.NoCompression {
		return nil, 0, false
	}
	var fw *flate.Writer
	packed := make([][]byte, len(chunks))
	rawLen, packedLen := 0, 0
	for i, c := range chunks {
		var out bytes.Buffer
		if fw == nil {
			var err error
			if fw, err = flate.NewWriter(&out, level); err != nil {
				return nil, 0, false
			}
		} else {
			fw.Reset(&out)
		}
		if _, err := fw.Write(c); err != nil {
			return nil, 0, false
		}
		if err := fw.Close(); err != nil {
			return nil, 0, false
		}
		packed[i] = out.Bytes()
		rawLen += len(c)
		packedLen += out.Len()
	}
	if packedLen >= rawLen {
		return nil, 0, false
	}
	return packed, rawLen - packedLen, true
}

// decompress inflates one chunk, reading at most limit+1 bytes so an
// oversized chunk is caught by the caller's length check.
func decompress(data []byte, limit int) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(fr, int64(limit)+1)); err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *Writer) subOptions() []Option {
	o := w.opts
	o.metrics = nil
	return []Option{func(dst *options) { *dst = o }}
}

func (r *Reader) subOptions() []Option {
	o := r.opts
	o.metrics = nil
	return []Option{func(dst *options) { *dst = o }}
}
