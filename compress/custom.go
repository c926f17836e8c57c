package compress

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/blocktally/errs"
)

// Region scheme 127 lets a server plug in its own algorithm. The payload
// starts with the algorithm's namespaced name (a 16-bit big-endian length
// followed by the name bytes) and the compressed stream follows.

var (
	customMu       sync.RWMutex
	customRegistry = map[string]Decompressor{}
)

// RegisterCustom makes d available for custom payloads naming the algorithm
// name, replacing any previous registration.
func RegisterCustom(name string, d Decompressor) {
	customMu.Lock()
	defer customMu.Unlock()

	if d == nil {
		delete(customRegistry, name)
		return
	}
	customRegistry[name] = d
}

// CustomDecompressor returns the Decompressor registered for name.
func CustomDecompressor(name string) (Decompressor, bool) {
	customMu.RLock()
	defer customMu.RUnlock()

	d, ok := customRegistry[name]

	return d, ok
}

// AppendCustomHeader appends the algorithm name prefix of a custom payload.
func AppendCustomHeader(dst []byte, name string) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(name))) //nolint:gosec
	return append(dst, name...)
}

// SplitCustom separates a custom payload into its algorithm name and stream.
func SplitCustom(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, fmt.Errorf("%w: custom payload of %d bytes has no algorithm name", errs.ErrTruncatedPayload, len(data))
	}
	n := int(binary.BigEndian.Uint16(data))
	if len(data)-2 < n {
		return "", nil, fmt.Errorf("%w: custom algorithm name needs %d bytes, %d remain", errs.ErrTruncatedPayload, n, len(data)-2)
	}

	return string(data[2 : 2+n]), data[2+n:], nil
}

type customDecompressor struct{}

func (customDecompressor) resolve(data []byte) (Decompressor, []byte, error) {
	name, rest, err := SplitCustom(data)
	if err != nil {
		return nil, nil, err
	}
	d, ok := CustomDecompressor(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: custom algorithm %q is not registered", errs.ErrUnsupportedCompression, name)
	}

	return d, rest, nil
}

func (c customDecompressor) Decompress(data []byte) ([]byte, error) {
	d, rest, err := c.resolve(data)
	if err != nil {
		return nil, err
	}

	return d.Decompress(rest)
}

func (c customDecompressor) DecompressTo(data []byte, w io.Writer) (int64, error) {
	d, rest, err := c.resolve(data)
	if err != nil {
		return 0, err
	}

	return d.DecompressTo(rest, w)
}
