// Package compress provides the codecs behind chunk payload decompression and
// cached table compression.
//
// # Overview
//
// Every chunk payload in a region file is preceded by a one-byte scheme:
//   - 1 Gzip: RFC 1952 stream
//   - 2 Zlib: RFC 1950 stream (the default)
//   - 3 None: uncompressed tag data
//   - 4 LZ4: LZ4 frame
//   - 127 Custom: a named algorithm registered with RegisterCustom
//
// Zstd and S2 never appear in region files. The region cache uses them to
// store count tables.
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	    DecompressTo(data []byte, w io.Writer) (int64, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// RegionCodec maps a region scheme byte to its Decompressor and rejects any
// other value with errs.ErrUnsupportedCompression:
//
//	dec, err := compress.RegionCodec(chunk.Compression)
//	if err != nil {
//	    return err
//	}
//	buf := pool.GetChunkBuffer()
//	defer pool.PutChunkBuffer(buf)
//	if _, err := dec.DecompressTo(chunk.Data, buf); err != nil {
//	    return err // wraps errs.ErrDecompressionFailure
//	}
//
// # Limits
//
// No codec produces more than MaxDecompressedSize bytes. A stream that would
// exceed it fails with errs.ErrDecompressionFailure instead of exhausting
// memory.
//
// # Thread Safety
//
// All codecs are stateless values. Stream readers and writers come from
// sync.Pool, so every codec may be used from many goroutines at once.
package compress
