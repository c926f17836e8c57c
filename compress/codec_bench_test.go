package compress

import (
	"fmt"
	"testing"

	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/internal/pool"
)

// Benchmark the region schemes on a payload shaped like a decoded chunk.
func BenchmarkRegionCodecs_DecompressTo(b *testing.B) {
	data := samplePayload()

	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionGzip,
		format.CompressionZlib,
		format.CompressionLZ4,
	} {
		codec, err := GetCodec(ct)
		if err != nil {
			b.Fatal(err)
		}
		compressed, err := codec.Compress(data)
		if err != nil {
			b.Fatal(err)
		}

		b.Run(fmt.Sprintf("%s/%dKB", ct, len(data)/1024), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for b.Loop() {
				buf := pool.GetChunkBuffer()
				if _, err := codec.DecompressTo(compressed, buf); err != nil {
					b.Fatal(err)
				}
				pool.PutChunkBuffer(buf)
			}
		})
	}
}

func BenchmarkCacheCodecs_Compress(b *testing.B) {
	data := samplePayload()

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2} {
		codec, err := GetCodec(ct)
		if err != nil {
			b.Fatal(err)
		}

		b.Run(ct.String(), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				if _, err := codec.Compress(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
