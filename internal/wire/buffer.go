package wire

// Buffer is a bounded byte window. A Writer fills it up to its length;
// a Reader consumes it up to its length.
type Buffer struct {
	b   []byte
	pos int
}

// NewBuffer wraps p. For writing, len(p) is the capacity; for reading,
// p holds the received bytes.
func NewBuffer(p []byte) *Buffer {
	return &Buffer{b: p}
}

// Remaining returns the number of bytes that can still be written or read.
func (b *Buffer) Remaining() int {
	return len(b.b) - b.pos
}

// Position returns the number of bytes written or consumed so far.
func (b *Buffer) Position() int {
	return b.pos
}

// Bytes returns the bytes written (or consumed) so far.
func (b *Buffer) Bytes() []byte {
	return b.b[:b.pos]
}

// Reset rewinds the buffer over p.
func (b *Buffer) Reset(p []byte) {
	b.b = p
	b.pos = 0
}

// Clear rewinds the buffer, keeping its backing slice.
func (b *Buffer) Clear() {
	b.pos = 0
}

func (b *Buffer) put(p []byte) int {
	n := copy(b.b[b.pos:], p)
	b.pos += n
	return n
}

func (b *Buffer) take(p []byte) int {
	n := copy(p, b.b[b.pos:])
	b.pos += n
	return n
}
