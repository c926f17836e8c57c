package testutil

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/arloliu/blocktally/compress"
	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/nbt"
)

const (
	sectorSize = 4096
	regionSide = 32
)

type slot struct {
	index     int
	scheme    byte
	payload   []byte
	external  []byte
	timestamp uint32
}

// RegionBuilder assembles the bytes of a region file. Chunks are laid out in
// the order they are added, starting at sector 2, each padded to whole sectors.
type RegionBuilder struct {
	x, z  int
	slots []slot
}

// NewRegion starts a region at region coordinates (x, z).
func NewRegion(x, z int) *RegionBuilder {
	return &RegionBuilder{x: x, z: z}
}

// Chunk adds root at region-local (cx, cz), compressed with ct.
func (b *RegionBuilder) Chunk(cx, cz int, root *nbt.Compound, ct format.CompressionType) *RegionBuilder {
	return b.Raw(cx, cz, byte(ct), Compress(ct, Encode(root)))
}

// Raw adds an already compressed payload with an arbitrary scheme byte.
func (b *RegionBuilder) Raw(cx, cz int, scheme byte, payload []byte) *RegionBuilder {
	b.slots = append(b.slots, slot{
		index:     cz*regionSide + cx,
		scheme:    scheme,
		payload:   payload,
		timestamp: uint32(1_700_000_000 + len(b.slots)), //nolint:gosec
	})

	return b
}

// External adds root at (cx, cz) as an oversized chunk: the region holds only
// the flagged scheme byte and WriteFile stores the payload in a .mcc file.
func (b *RegionBuilder) External(cx, cz int, root *nbt.Compound, ct format.CompressionType) *RegionBuilder {
	b.slots = append(b.slots, slot{
		index:     cz*regionSide + cx,
		scheme:    byte(ct) | format.ExternalFlag,
		external:  Compress(ct, Encode(root)),
		timestamp: 1_700_000_000,
	})

	return b
}

// Bytes returns the region file contents.
func (b *RegionBuilder) Bytes() []byte {
	out := make([]byte, 2*sectorSize)
	sector := 2
	for _, s := range b.slots {
		body := binary.BigEndian.AppendUint32(nil, uint32(len(s.payload)+1)) //nolint:gosec
		body = append(body, s.scheme)
		body = append(body, s.payload...)
		sectors := (len(body) + sectorSize - 1) / sectorSize
		if sectors > 255 {
			panic(fmt.Sprintf("testutil: chunk of %d bytes needs %d sectors", len(body), sectors))
		}

		binary.BigEndian.PutUint32(out[s.index*4:], uint32(sector<<8|sectors)) //nolint:gosec
		binary.BigEndian.PutUint32(out[sectorSize+s.index*4:], s.timestamp)

		padded := make([]byte, sectors*sectorSize)
		copy(padded, body)
		out = append(out, padded...)
		sector += sectors
	}

	return out
}

// FileName returns the region's file name.
func (b *RegionBuilder) FileName() string {
	return fmt.Sprintf("r.%d.%d.mca", b.x, b.z)
}

// WriteFile writes the region and its external payloads into dir and returns
// the region file path.
func (b *RegionBuilder) WriteFile(tb testing.TB, dir string) string {
	tb.Helper()

	path := filepath.Join(dir, b.FileName())
	if err := os.WriteFile(path, b.Bytes(), 0o600); err != nil {
		tb.Fatalf("write region: %v", err)
	}
	for _, s := range b.slots {
		if s.external == nil {
			continue
		}
		wx := b.x*regionSide + s.index%regionSide
		wz := b.z*regionSide + s.index/regionSide
		name := filepath.Join(dir, fmt.Sprintf("c.%d.%d.mcc", wx, wz))
		if err := os.WriteFile(name, s.external, 0o600); err != nil {
			tb.Fatalf("write external chunk: %v", err)
		}
	}

	return path
}

// Compress compresses data with a built-in codec and panics on failure.
func Compress(ct format.CompressionType, data []byte) []byte {
	codec, err := compress.GetCodec(ct)
	if err != nil {
		panic(err)
	}
	out, err := codec.Compress(data)
	if err != nil {
		panic(err)
	}

	return out
}

// SetLocation overwrites the header entry of slot (cx, cz) in region bytes.
func SetLocation(region []byte, cx, cz int, offset uint32, sectors uint8) {
	binary.BigEndian.PutUint32(region[(cz*regionSide+cx)*4:], offset<<8|uint32(sectors))
}
