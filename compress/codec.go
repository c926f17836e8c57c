package compress

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/format"
)

// MaxDecompressedSize bounds the output of a single decompression. Real chunk
// payloads stay well below it; anything larger is treated as a corrupt or
// hostile stream.
const MaxDecompressedSize = 64 * 1024 * 1024

// Compressor compresses a complete payload.
//
// Region files are never written by blocktally; compressors exist for the
// region cache and for building test fixtures.
type Compressor interface {
	// Compress compresses data and returns a newly allocated result.
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a complete payload.
//
// Implementations are safe for concurrent use. Internal stream readers are
// pooled and reset per call.
type Decompressor interface {
	// Decompress returns the decompressed payload. The result may alias data
	// for the uncompressed scheme.
	Decompress(data []byte) ([]byte, error)

	// DecompressTo streams the decompressed payload into w and returns the
	// number of bytes written. Writing into a pooled buffer avoids one
	// allocation per chunk on the scan hot path.
	DecompressTo(data []byte, w io.Writer) (int64, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionGzip: NewGzipCompressor(),
	format.CompressionZlib: NewZlibCompressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
// Custom payloads have no codec; see RegionCodec.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s (0x%02x)", errs.ErrUnsupportedCompression, compressionType, uint8(compressionType))
}

// RegionCodec returns the Decompressor for a scheme byte read from a region
// file, with the external flag already removed. Cache-only codecs are rejected
// because they never appear in region files.
func RegionCodec(compressionType format.CompressionType) (Decompressor, error) {
	if !compressionType.IsRegionScheme() {
		return nil, fmt.Errorf("%w: region scheme 0x%02x", errs.ErrUnsupportedCompression, uint8(compressionType))
	}
	if compressionType == format.CompressionCustom {
		return customDecompressor{}, nil
	}

	return builtinCodecs[compressionType], nil
}

// decompressAll runs DecompressTo into a fresh buffer sized from the input.
func decompressAll(d Decompressor, data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(data)*4))
	if _, err := d.DecompressTo(data, buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// copyLimited drains r into w, failing once more than MaxDecompressedSize
// bytes have been produced.
func copyLimited(algorithm string, w io.Writer, r io.Reader) (int64, error) {
	n, err := io.Copy(w, io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return n, failure(algorithm, err)
	}
	if n > MaxDecompressedSize {
		return n, fmt.Errorf("%w: %s output exceeds %d bytes", errs.ErrDecompressionFailure, algorithm, MaxDecompressedSize)
	}

	return n, nil
}

// failure wraps err with ErrDecompressionFailure, naming the algorithm only
// when the library error does not already start with it.
func failure(algorithm string, err error) error {
	if strings.HasPrefix(err.Error(), algorithm+":") {
		return fmt.Errorf("%w: %w", errs.ErrDecompressionFailure, err)
	}

	return fmt.Errorf("%w: %s: %w", errs.ErrDecompressionFailure, algorithm, err)
}

// emptyStream is the error for a zero-length input to a framed codec. Every
// stream these codecs produce carries at least a header.
func emptyStream(algorithm string) error {
	return fmt.Errorf("%w: %s: empty stream", errs.ErrDecompressionFailure, algorithm)
}
