// Package endian provides byte order utilities for the region and tag decoders.
//
// Both on-disk formats handled by blocktally are big-endian: the region header
// tables, the chunk length prefixes and every multi-byte tag payload. The
// EndianEngine interface combines binary.ByteOrder and binary.AppendByteOrder so
// decoders read with the same value that encoders append with.
//
//	engine := endian.GetBigEndianEngine()
//	v := engine.Uint32(header[0:4])
//	buf = engine.AppendUint32(buf, v)
//
// # Thread Safety
//
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetBigEndianEngine returns the big-endian engine used by region and tag data.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host stores integers little-endian.
func IsNativeLittleEndian() bool {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))

	return b[0] == 0x00
}

// Int64s decodes len(dst) consecutive 8-byte integers from src into dst.
// src must hold at least 8*len(dst) bytes.
func Int64s(engine EndianEngine, dst []int64, src []byte) {
	if len(dst) == 0 {
		return
	}
	_ = src[8*len(dst)-1]
	for i := range dst {
		dst[i] = int64(engine.Uint64(src[i*8:])) //nolint:gosec
	}
}

// Int32s decodes len(dst) consecutive 4-byte integers from src into dst.
// src must hold at least 4*len(dst) bytes.
func Int32s(engine EndianEngine, dst []int32, src []byte) {
	if len(dst) == 0 {
		return
	}
	_ = src[4*len(dst)-1]
	for i := range dst {
		dst[i] = int32(engine.Uint32(src[i*4:])) //nolint:gosec
	}
}
