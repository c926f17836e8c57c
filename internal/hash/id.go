// Package hash wraps xxHash64 for cache keys and identifier interning.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Bytes computes the xxHash64 of b without converting it to a string.
func Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// RegionKey derives the cache key of a region file from its header tables and size.
//
// The timestamp table changes whenever a chunk is rewritten and the size changes
// whenever sectors are appended, so equal keys mean equal chunk contents for all
// practical purposes.
func RegionKey(header []byte, size int64) uint64 {
	d := xxhash.New()
	_, _ = d.Write(header)

	var sz [8]byte
	for i := range sz {
		sz[i] = byte(size >> (8 * i))
	}
	_, _ = d.Write(sz[:])

	return d.Sum64()
}
