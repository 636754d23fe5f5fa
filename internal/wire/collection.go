package wire

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// Lists and maps keep their iteration state on the current level, so an
// element may itself be any scalar, array or nested message but not
// another list or map. Wrap inner collections in a message.

// WriteList writes an int32 count followed by every item encoded by elem.
// A nil slice is written with count -1.
func WriteList[T any](w *Writer, items []T, elem func(*Writer, T) bool) bool {
	if w.err != nil {
		return false
	}
	c := w.st.top()
	if !c.colHdr {
		n := int32(len(items))
		if items == nil {
			n = -1
		}
		if !w.putUint(4, uint64(uint32(n))) {
			return false
		}
		if n < 0 {
			return true
		}
		c.colHdr = true
	}
	for c.colIdx < len(items) {
		if !elem(w, items[c.colIdx]) {
			return false
		}
		c.colIdx++
	}
	c.resetCollection()
	return true
}

// ReadList reads a list written by WriteList.
func ReadList[T any](r *Reader, elem func(*Reader) (T, bool)) ([]T, bool) {
	if r.err != nil {
		return nil, false
	}
	c := r.st.top()
	if !c.colHdr {
		n, isNil, ok := r.readCount()
		if !ok || isNil {
			return nil, ok
		}
		c.colLen = n
		c.colAcc = make([]T, 0, min(n, 1024))
		c.colHdr = true
	}
	acc := c.colAcc.([]T)
	for len(acc) < c.colLen {
		v, ok := elem(r)
		if !ok {
			c.colAcc = acc
			return nil, false
		}
		acc = append(acc, v)
	}
	c.resetCollection()
	return acc, true
}

// WriteMap writes an int32 count followed by key/value pairs in the order
// given by cmp, so equal maps always encode to equal bytes.
func WriteMap[K comparable, V any](w *Writer, m map[K]V, cmp func(a, b K) int,
	key func(*Writer, K) bool, val func(*Writer, V) bool) bool {
	if w.err != nil {
		return false
	}
	c := w.st.top()
	if !c.colHdr {
		n := int32(len(m))
		if m == nil {
			n = -1
		}
		if !w.putUint(4, uint64(uint32(n))) {
			return false
		}
		if n < 0 {
			return true
		}
		keys := make([]K, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, cmp)
		c.colKeys = keys
		c.colHdr = true
	}
	keys := c.colKeys.([]K)
	for c.colIdx < len(keys) {
		k := keys[c.colIdx]
		if !c.keyDone {
			if !key(w, k) {
				return false
			}
			c.keyDone = true
		}
		if !val(w, m[k]) {
			return false
		}
		c.keyDone = false
		c.colIdx++
	}
	c.resetCollection()
	return true
}

// ReadMap reads a map written by WriteMap.
func ReadMap[K comparable, V any](r *Reader, key func(*Reader) (K, bool), val func(*Reader) (V, bool)) (map[K]V, bool) {
	if r.err != nil {
		return nil, false
	}
	c := r.st.top()
	if !c.colHdr {
		n, isNil, ok := r.readCount()
		if !ok || isNil {
			return nil, ok
		}
		c.colLen = n
		c.colAcc = make(map[K]V, min(n, 1024))
		c.colHdr = true
	}
	m := c.colAcc.(map[K]V)
	for c.colIdx < c.colLen {
		if !c.keyDone {
			k, ok := key(r)
			if !ok {
				return nil, false
			}
			c.key = k
			c.keyDone = true
		}
		v, ok := val(r)
		if !ok {
			return nil, false
		}
		m[c.key.(K)] = v
		c.key = nil
		c.keyDone = false
		c.colIdx++
	}
	c.resetCollection()
	return m, true
}

func (r *Reader) readCount() (n int, isNil, ok bool) {
	v, ok := r.takeUint(4)
	if !ok {
		return 0, false, false
	}
	count := int32(uint32(v))
	if count < 0 {
		return 0, true, true
	}
	if count > MaxCollectionLength {
		return 0, false, r.Fail(ErrCollectionTooLarge)
	}
	return int(count), false, true
}

// CompareUUID orders UUID map keys.
func CompareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
