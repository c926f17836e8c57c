package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/blocktally/errs"
)

// S2Compressor is a cache codec favoring speed over ratio.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses the input data using S2 compression.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses the input data using S2 decompression.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, failure("s2", err)
	}
	if n > MaxDecompressedSize {
		return nil, fmt.Errorf("%w: s2 output of %d bytes exceeds %d", errs.ErrDecompressionFailure, n, MaxDecompressedSize)
	}

	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, failure("s2", err)
	}

	return out, nil
}

// DecompressTo writes the decompressed block to w.
func (c S2Compressor) DecompressTo(data []byte, w io.Writer) (int64, error) {
	out, err := c.Decompress(data)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(out)

	return int64(n), err
}
