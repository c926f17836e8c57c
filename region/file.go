package region

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/arloliu/blocktally/compress"
	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/internal/mmfile"
)

// ErrChunkAbsent is returned by ChunkAt for a slot that holds no chunk.
var ErrChunkAbsent = errors.New("chunk not present in region")

// Chunk is the compressed payload span of one present slot.
type Chunk struct {
	Region      Coord
	Index       int // header slot, z*32 + x
	X           int // region-local, 0..31
	Z           int // region-local, 0..31
	Location    Location
	Compression format.CompressionType // scheme with the external flag removed
	External    bool                   // payload lives in a sibling .mcc file
	Data        []byte                 // compressed payload; aliases the file mapping
}

// WorldX returns the chunk's absolute X coordinate.
func (c Chunk) WorldX() int {
	return c.Region.X*Width + c.X
}

// WorldZ returns the chunk's absolute Z coordinate.
func (c Chunk) WorldZ() int {
	return c.Region.Z*Width + c.Z
}

// ExternalName returns the name of the file holding an external payload.
func (c Chunk) ExternalName() string {
	return fmt.Sprintf("c.%d.%d.mcc", c.WorldX(), c.WorldZ())
}

// File is an open region file.
//
// Chunk data returned by a File aliases its memory mapping and must not be
// used after Close.
type File struct {
	path    string
	dir     string
	coord   Coord
	data    []byte
	header  *Header
	release func() error
}

// Open maps the region file at path read-only. Its coordinates come from the
// file name.
func Open(path string) (*File, error) {
	coord, err := ParseCoord(path)
	if err != nil {
		return nil, err
	}

	data, release, err := mmfile.Map(path)
	if err != nil {
		return nil, err
	}

	f, err := NewFile(data, coord, filepath.Dir(path))
	if err != nil {
		_ = release()
		return nil, err
	}
	f.path = path
	f.release = release

	return f, nil
}

// NewFile wraps region bytes already in memory. dir is where external
// payloads are looked up; it may be empty when none are expected.
//
// An empty buffer is a valid region without chunks. Any other buffer must
// hold at least the full header.
func NewFile(data []byte, coord Coord, dir string) (*File, error) {
	f := &File{
		path:  filepath.Join(dir, coord.FileName()),
		dir:   dir,
		coord: coord,
		data:  data,
	}
	if len(data) == 0 {
		f.header = new(Header)
		return f, nil
	}

	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	f.header = h

	return f, nil
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Coord returns the region coordinates.
func (f *File) Coord() Coord { return f.coord }

// Size returns the file size in bytes.
func (f *File) Size() int64 { return int64(len(f.data)) }

// Header returns the decoded header tables.
func (f *File) Header() *Header { return f.header }

// HeaderBytes returns the raw header tables, or nil for an empty file.
func (f *File) HeaderBytes() []byte {
	if len(f.data) < HeaderSize {
		return nil
	}

	return f.data[:HeaderSize:HeaderSize]
}

// Close releases the file mapping. It is safe to call more than once.
func (f *File) Close() error {
	if f.release == nil {
		return nil
	}

	return f.release()
}

// Chunks yields every present chunk in slot order.
//
// Absent slots are skipped silently. A slot whose header entry or payload
// prefix is inconsistent with the file yields a *errs.ChunkError and
// iteration continues with the next slot.
func (f *File) Chunks() iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for i := range f.header {
			if !f.header[i].Present() {
				continue
			}
			c, err := f.chunk(i)
			if !yield(c, err) {
				return
			}
		}
	}
}

// ChunkAt returns the chunk at region-local (x, z). It returns ErrChunkAbsent
// for an empty slot.
func (f *File) ChunkAt(x, z int) (Chunk, error) {
	if x < 0 || x >= Width || z < 0 || z >= Width {
		return Chunk{}, fmt.Errorf("chunk (%d, %d) outside region bounds 0..%d", x, z, Width-1)
	}
	i := Slot(x, z)
	if !f.header[i].Present() {
		return Chunk{}, ErrChunkAbsent
	}

	return f.chunk(i)
}

func (f *File) chunkError(c Chunk, err error) error {
	return &errs.ChunkError{
		Path:    f.path,
		RegionX: f.coord.X,
		RegionZ: f.coord.Z,
		ChunkX:  c.X,
		ChunkZ:  c.Z,
		Err:     err,
	}
}

func (f *File) chunk(i int) (Chunk, error) {
	loc := f.header[i]
	c := Chunk{
		Region:   f.coord,
		Index:    i,
		X:        i % Width,
		Z:        i / Width,
		Location: loc,
	}

	size := int64(len(f.data))
	start := int64(loc.Offset) * SectorSize
	end := start + int64(loc.Sectors)*SectorSize

	switch {
	case loc.Offset < HeaderSize/SectorSize:
		return c, f.chunkError(c, fmt.Errorf("%w: chunk offset %d lies inside the header", errs.ErrMalformedHeader, loc.Offset))
	case loc.Sectors == 0:
		return c, f.chunkError(c, fmt.Errorf("%w: chunk at sector %d has zero sectors", errs.ErrMalformedHeader, loc.Offset))
	case end > size:
		return c, f.chunkError(c, fmt.Errorf("%w: sectors [%d, %d) exceed file of %d bytes",
			errs.ErrTruncatedPayload, loc.Offset, int64(loc.Offset)+int64(loc.Sectors), size))
	}

	length := int64(engine.Uint32(f.data[start:]))
	switch {
	case length == 0:
		return c, f.chunkError(c, fmt.Errorf("%w: zero payload length", errs.ErrTruncatedPayload))
	case 4+length > end-start:
		return c, f.chunkError(c, fmt.Errorf("%w: payload of %d bytes exceeds %d allocated sectors",
			errs.ErrTruncatedPayload, length, loc.Sectors))
	}

	scheme := f.data[start+4]
	c.External = scheme&format.ExternalFlag != 0
	c.Compression = format.CompressionType(scheme &^ format.ExternalFlag)
	c.Data = f.data[start+5 : start+4+length : start+4+length]

	return c, nil
}

// Payload returns the compressed bytes of c, reading the sibling .mcc file
// for an external chunk.
func (f *File) Payload(c Chunk) ([]byte, error) {
	if !c.External {
		return c.Data, nil
	}

	name := filepath.Join(f.dir, c.ExternalName())
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, f.chunkError(c, fmt.Errorf("%w: %s does not exist", errs.ErrExternalChunk, name))
		}

		return nil, f.chunkError(c, fmt.Errorf("%w: %w", errs.ErrExternalChunk, err))
	}

	return data, nil
}

// Decompress writes the decompressed tag data of c to w.
func (f *File) Decompress(c Chunk, w io.Writer) (int64, error) {
	payload, err := f.Payload(c)
	if err != nil {
		return 0, err
	}

	codec, err := compress.RegionCodec(c.Compression)
	if err != nil {
		return 0, f.chunkError(c, err)
	}

	n, err := codec.DecompressTo(payload, w)
	if err != nil {
		return n, f.chunkError(c, err)
	}

	return n, nil
}
