package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// gzipReaderPool holds readers that have already been initialized once;
// gzip.Reader can only be created from a valid stream, so the pool has no New.
var gzipReaderPool sync.Pool

var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(nil)
	},
}

// GzipCompressor handles region scheme 1 (RFC 1952). Few worlds use it, but
// old tooling still writes it.
type GzipCompressor struct{}

var _ Codec = (*GzipCompressor)(nil)

// NewGzipCompressor creates a new gzip codec.
func NewGzipCompressor() GzipCompressor {
	return GzipCompressor{}
}

// Compress compresses data into a single gzip member.
func (c GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, _ := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)

	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress decompresses a gzip stream.
func (c GzipCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressAll(c, data)
}

// DecompressTo streams the decompressed payload into w.
func (c GzipCompressor) DecompressTo(data []byte, w io.Writer) (int64, error) {
	if len(data) == 0 {
		return 0, emptyStream("gzip")
	}

	src := bytes.NewReader(data)

	zr, _ := gzipReaderPool.Get().(*gzip.Reader)
	var err error
	if zr != nil {
		err = zr.Reset(src)
	} else {
		zr, err = gzip.NewReader(src)
	}
	if err != nil {
		return 0, failure("gzip", err)
	}
	defer gzipReaderPool.Put(zr)

	return copyLimited("gzip", w, zr)
}
