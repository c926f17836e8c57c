package compress

import "io"

// NoOpCompressor passes data through unchanged. It serves the uncompressed
// region scheme (3) and the "none" cache setting.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation compressor that bypasses data.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input slice as-is, without copying.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as-is, without copying.
//
// Note: The returned slice shares the same underlying memory as the input.
// Callers should not modify the input data after calling this method if they
// plan to use the returned slice.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

// DecompressTo writes data to w unchanged.
func (c NoOpCompressor) DecompressTo(data []byte, w io.Writer) (int64, error) {
	n, err := w.Write(data)
	return int64(n), err
}
