package confloader

import "errors"

// ErrReadBytesNotSupported is returned by the map provider's ReadBytes.
var ErrReadBytesNotSupported = errors.New("confloader: map provider has no byte form")

// mapProvider feeds a nested map to koanf without a parser.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
