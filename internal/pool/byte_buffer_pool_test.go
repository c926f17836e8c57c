package pool

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_Basics(t *testing.T) {
	bb := NewByteBuffer(4)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 4, bb.Cap())

	bb.MustWrite([]byte("abc"))
	n, err := bb.Write([]byte("def"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte("abcdef"), bb.Bytes())

	var out bytes.Buffer
	written, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(6), written)
	require.Equal(t, "abcdef", out.String())

	bb.Reset()
	require.Equal(t, 0, bb.Len())
}

func TestByteBuffer_Grow(t *testing.T) {
	bb := NewByteBuffer(0)
	bb.Grow(10)
	require.GreaterOrEqual(t, bb.Cap(), ChunkBufferDefaultSize)

	large := NewByteBuffer(8 * ChunkBufferDefaultSize)
	large.B = large.B[:large.Cap()]
	large.Grow(1)
	require.GreaterOrEqual(t, large.Cap(), 10*ChunkBufferDefaultSize)
}

func TestByteBuffer_ReadFrom(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 20000)

	bb := NewByteBuffer(16)
	bb.MustWrite([]byte("x"))
	n, err := bb.ReadFrom(bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)
	require.Equal(t, append([]byte("x"), payload...), bb.Bytes())
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "ok"), nil
	}

	return 0, errors.New("boom")
}

func TestByteBuffer_ReadFromError(t *testing.T) {
	bb := NewByteBuffer(16)
	n, err := bb.ReadFrom(&failingReader{})
	require.Error(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, "ok", string(bb.Bytes()))

	_, err = io.Copy(bb, bytes.NewReader([]byte("!")))
	require.NoError(t, err)
	require.Equal(t, "ok!", string(bb.Bytes()))
}

func TestByteBufferPool(t *testing.T) {
	p := NewByteBufferPool(8, 64)

	bb := p.Get()
	require.NotNil(t, bb)
	bb.MustWrite([]byte("data"))
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len(), "pooled buffers come back empty")

	oversized := NewByteBuffer(128)
	require.NotPanics(t, func() { p.Put(oversized) })
	require.NotPanics(t, func() { p.Put(nil) })
}

func TestDefaultPools(t *testing.T) {
	cb := GetChunkBuffer()
	require.GreaterOrEqual(t, cb.Cap(), ChunkBufferDefaultSize)
	PutChunkBuffer(cb)

	eb := GetEncodeBuffer()
	require.NotNil(t, eb)
	PutEncodeBuffer(eb)
}
