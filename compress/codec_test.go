package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/internal/pool"
)

func samplePayload() []byte {
	pattern := []byte("\x0a\x00\x00\x08\x00\x04Name\x00\x0fminecraft:stone")
	data := make([]byte, 0, 64*1024)
	for len(data) < 64*1024 {
		data = append(data, pattern...)
	}

	return data
}

func TestCodecs_RoundTrip(t *testing.T) {
	types := []format.CompressionType{
		format.CompressionNone,
		format.CompressionGzip,
		format.CompressionZlib,
		format.CompressionLZ4,
		format.CompressionZstd,
		format.CompressionS2,
	}
	data := samplePayload()

	for _, ct := range types {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)
			if ct != format.CompressionNone {
				require.Less(t, len(compressed), len(data))
			}

			out, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, out)

			buf := pool.GetChunkBuffer()
			defer pool.PutChunkBuffer(buf)
			n, err := codec.DecompressTo(compressed, buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(data)), n)
			require.Equal(t, data, buf.Bytes())
		})
	}
}

func TestCodecs_Concurrent(t *testing.T) {
	data := samplePayload()
	for _, ct := range []format.CompressionType{format.CompressionGzip, format.CompressionZlib, format.CompressionLZ4} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		compressed, err := codec.Compress(data)
		require.NoError(t, err)

		var wg sync.WaitGroup
		failures := make(chan error, 16)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				out, err := codec.Decompress(compressed)
				if err == nil && !bytes.Equal(out, data) {
					err = errors.New("mismatch")
				}
				if err != nil {
					failures <- fmt.Errorf("%s: %w", ct, err)
				}
			}()
		}
		wg.Wait()
		close(failures)
		for err := range failures {
			require.NoError(t, err)
		}
	}
}

func TestCodecs_Corrupt(t *testing.T) {
	data := samplePayload()
	for _, ct := range []format.CompressionType{
		format.CompressionGzip,
		format.CompressionZlib,
		format.CompressionLZ4,
		format.CompressionZstd,
		format.CompressionS2,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			truncated := compressed[:len(compressed)/2]
			_, err = codec.DecompressTo(truncated, io.Discard)
			require.ErrorIs(t, err, errs.ErrDecompressionFailure)

			garbage := bytes.Repeat([]byte{0x5A}, 64)
			_, err = codec.Decompress(garbage)
			require.ErrorIs(t, err, errs.ErrDecompressionFailure)
		})
	}
}

func TestCodecs_Empty(t *testing.T) {
	// Framed streams always carry a header, so empty input is corrupt.
	for _, ct := range []format.CompressionType{format.CompressionGzip, format.CompressionZlib, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			out, err := codec.Decompress(nil)
			require.ErrorIs(t, err, errs.ErrDecompressionFailure)
			require.Contains(t, err.Error(), "empty stream")
			require.Nil(t, out)

			var buf bytes.Buffer
			n, err := codec.DecompressTo([]byte{}, &buf)
			require.ErrorIs(t, err, errs.ErrDecompressionFailure)
			require.Zero(t, n)
			require.Zero(t, buf.Len())
		})
	}

	// Block codecs encode an empty payload as nothing at all.
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionNone} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Empty(t, compressed)

			out, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, out)
		})
	}
}

func TestCodecs_ErrorNamesAlgorithmOnce(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x5A}, 64)
	for _, ct := range []format.CompressionType{
		format.CompressionGzip,
		format.CompressionZlib,
		format.CompressionLZ4,
		format.CompressionZstd,
		format.CompressionS2,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			_, err = codec.Decompress(garbage)
			require.ErrorIs(t, err, errs.ErrDecompressionFailure)

			name := strings.ToLower(ct.String())
			msg := err.Error()
			require.True(t, strings.HasPrefix(msg, "decompression failure: "+name+": "), msg)
			require.Equal(t, 1, strings.Count(msg, name+":"), msg)
		})
	}
}

func TestFailure(t *testing.T) {
	err := failure("zlib", errors.New("zlib: invalid header"))
	require.ErrorIs(t, err, errs.ErrDecompressionFailure)
	require.Equal(t, "decompression failure: zlib: invalid header", err.Error())

	err = failure("zlib", io.ErrUnexpectedEOF)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, "decompression failure: zlib: unexpected EOF", err.Error())
}

func TestCopyLimited(t *testing.T) {
	n, err := copyLimited("test", io.Discard, io.LimitReader(zeroReader{}, MaxDecompressedSize+10))
	require.ErrorIs(t, err, errs.ErrDecompressionFailure)
	require.Contains(t, err.Error(), "exceeds")
	require.Equal(t, int64(MaxDecompressedSize+1), n)

	n, err = copyLimited("test", io.Discard, io.LimitReader(zeroReader{}, 1024))
	require.NoError(t, err)
	require.Equal(t, int64(1024), n)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestGetCodec_Unsupported(t *testing.T) {
	_, err := GetCodec(format.CompressionCustom)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	_, err = GetCodec(format.CompressionType(0x09))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestRegionCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionGzip,
		format.CompressionZlib,
		format.CompressionNone,
		format.CompressionLZ4,
		format.CompressionCustom,
	} {
		d, err := RegionCodec(ct)
		require.NoError(t, err, ct.String())
		require.NotNil(t, d)
	}

	for _, ct := range []format.CompressionType{0, 5, format.CompressionZstd, format.CompressionS2, 0x83} {
		_, err := RegionCodec(ct)
		require.ErrorIs(t, err, errs.ErrUnsupportedCompression, "scheme %d", ct)
	}
}

func TestCustom(t *testing.T) {
	data := samplePayload()
	zstdCodec := NewZstdCompressor()
	compressed, err := zstdCodec.Compress(data)
	require.NoError(t, err)

	payload := AppendCustomHeader(nil, "example:zstd")
	payload = append(payload, compressed...)

	d, err := RegionCodec(format.CompressionCustom)
	require.NoError(t, err)

	_, err = d.Decompress(payload)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
	require.Contains(t, err.Error(), `"example:zstd"`)

	RegisterCustom("example:zstd", zstdCodec)
	t.Cleanup(func() { RegisterCustom("example:zstd", nil) })

	out, err := d.Decompress(payload)
	require.NoError(t, err)
	require.Equal(t, data, out)

	var buf bytes.Buffer
	n, err := d.DecompressTo(payload, &buf)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)
	require.Equal(t, data, buf.Bytes())
}

func TestSplitCustom(t *testing.T) {
	name, rest, err := SplitCustom(append(AppendCustomHeader(nil, "a:b"), 1, 2))
	require.NoError(t, err)
	require.Equal(t, "a:b", name)
	require.Equal(t, []byte{1, 2}, rest)

	_, _, err = SplitCustom([]byte{0})
	require.ErrorIs(t, err, errs.ErrTruncatedPayload)

	_, _, err = SplitCustom([]byte{0, 5, 'a'})
	require.ErrorIs(t, err, errs.ErrTruncatedPayload)
}

func TestCompressionType_String(t *testing.T) {
	tests := []struct {
		cType    format.CompressionType
		expected string
	}{
		{format.CompressionGzip, "Gzip"},
		{format.CompressionZlib, "Zlib"},
		{format.CompressionNone, "None"},
		{format.CompressionLZ4, "LZ4"},
		{format.CompressionCustom, "Custom"},
		{format.CompressionZstd, "Zstd"},
		{format.CompressionS2, "S2"},
		{format.CompressionType(0xFF), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.cType.String())
		})
	}
}
