package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

var zlibReaderPool sync.Pool

var zlibWriterPool = sync.Pool{
	New: func() any {
		return zlib.NewWriter(nil)
	},
}

// ZlibCompressor handles region scheme 2 (RFC 1950), the default for every
// world saved since the region format was introduced.
type ZlibCompressor struct{}

var _ Codec = (*ZlibCompressor)(nil)

// NewZlibCompressor creates a new zlib codec.
func NewZlibCompressor() ZlibCompressor {
	return ZlibCompressor{}
}

// Compress compresses data into a zlib stream.
func (c ZlibCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, _ := zlibWriterPool.Get().(*zlib.Writer)
	defer zlibWriterPool.Put(w)

	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress decompresses a zlib stream.
func (c ZlibCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressAll(c, data)
}

// DecompressTo streams the decompressed payload into w.
func (c ZlibCompressor) DecompressTo(data []byte, w io.Writer) (int64, error) {
	if len(data) == 0 {
		return 0, emptyStream("zlib")
	}

	src := bytes.NewReader(data)

	zr, _ := zlibReaderPool.Get().(io.ReadCloser)
	var err error
	if zr != nil {
		err = zr.(zlib.Resetter).Reset(src, nil)
	} else {
		zr, err = zlib.NewReader(src)
	}
	if err != nil {
		return 0, failure("zlib", err)
	}
	defer zlibReaderPool.Put(zr)

	return copyLimited("zlib", w, zr)
}
