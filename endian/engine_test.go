package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestIsNativeLittleEndian(t *testing.T) {
	var testValue uint16 = 0x0102
	testBytes := (*[2]byte)(unsafe.Pointer(&testValue))

	require.Equal(t, testBytes[0] == 0x02, IsNativeLittleEndian())
}

func TestGetEngines(t *testing.T) {
	require.Equal(t, binary.BigEndian, GetBigEndianEngine())
	require.Equal(t, binary.LittleEndian, GetLittleEndianEngine())
}

func TestInt64s(t *testing.T) {
	engine := GetBigEndianEngine()

	var src []byte
	src = engine.AppendUint64(src, 0x0102030405060708)
	src = engine.AppendUint64(src, 0xFFFFFFFFFFFFFFFF)

	dst := make([]int64, 2)
	Int64s(engine, dst, src)

	require.Equal(t, int64(0x0102030405060708), dst[0])
	require.Equal(t, int64(-1), dst[1])
}

func TestInt32s(t *testing.T) {
	engine := GetBigEndianEngine()

	src := []byte{0x00, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00}
	dst := make([]int32, 2)
	Int32s(engine, dst, src)

	require.Equal(t, []int32{256, -2147483648}, dst)
}

func TestInt64s_Empty(t *testing.T) {
	require.NotPanics(t, func() {
		Int64s(GetBigEndianEngine(), nil, nil)
		Int32s(GetBigEndianEngine(), nil, nil)
	})
}
