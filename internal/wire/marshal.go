package wire

import (
	"bytes"
	"errors"
	"fmt"
)

// Unmarshal errors.
var (
	ErrTruncated     = errors.New("wire: truncated message")
	ErrTrailingBytes = errors.New("wire: trailing bytes after message")
)

// Marshal encodes msg into a fresh byte slice by driving a Writer through
// a scratch buffer of the configured size.
func Marshal(reg *Registry, msg Message, opts ...Option) ([]byte, error) {
	w := NewWriter(reg, opts...)
	scratch := NewBuffer(make([]byte, w.opts.bufferSize))

	var out bytes.Buffer
	for {
		scratch.Clear()
		done, err := w.WriteMessage(scratch, msg)
		if err != nil {
			return nil, err
		}
		out.Write(scratch.Bytes())
		if done {
			return out.Bytes(), nil
		}
	}
}

// Unmarshal decodes exactly one message from data.
func Unmarshal(reg *Registry, data []byte, opts ...Option) (Message, error) {
	r := NewReader(reg, opts...)
	buf := NewBuffer(data)
	msg, err := r.ReadMessage(buf)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if buf.Remaining() > 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, buf.Remaining())
	}
	return msg, nil
}
