package region

import (
	"fmt"
	"time"

	"github.com/arloliu/blocktally/endian"
	"github.com/arloliu/blocktally/errs"
)

var engine = endian.GetBigEndianEngine()

// Location is one slot of the region header.
type Location struct {
	Offset    uint32 // first sector of the chunk, counted from the start of the file
	Sectors   uint8  // number of sectors allocated to the chunk
	Timestamp uint32 // last modification, seconds since the Unix epoch
}

// Present reports whether the slot holds a chunk. A zero offset is the normal
// "never generated" state, not an error.
func (l Location) Present() bool {
	return l.Offset != 0
}

// ModTime returns the timestamp as a time.Time.
func (l Location) ModTime() time.Time {
	return time.Unix(int64(l.Timestamp), 0).UTC()
}

// Header is the decoded location and timestamp tables, indexed by slot
// (z*32 + x).
type Header [ChunksPerRegion]Location

// ParseHeader decodes the first HeaderSize bytes of b.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, file has %d", errs.ErrMalformedHeader, HeaderSize, len(b))
	}

	h := new(Header)
	for i := range h {
		entry := engine.Uint32(b[i*4:])
		h[i] = Location{
			Offset:    entry >> 8,
			Sectors:   uint8(entry), //nolint:gosec
			Timestamp: engine.Uint32(b[SectorSize+i*4:]),
		}
	}

	return h, nil
}

// Slot returns the header index of region-local chunk (x, z).
func Slot(x, z int) int {
	return z*Width + x
}

// At returns the location of region-local chunk (x, z).
func (h *Header) At(x, z int) Location {
	return h[Slot(x, z)]
}

// Count returns the number of present chunks.
func (h *Header) Count() int {
	n := 0
	for i := range h {
		if h[i].Present() {
			n++
		}
	}

	return n
}
