package region

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arloliu/blocktally/errs"
)

const (
	// SectorSize is the allocation unit of a region file.
	SectorSize = 4096
	// HeaderSize is the size of the location and timestamp tables.
	HeaderSize = 2 * SectorSize
	// Width is the number of chunks along each axis of a region.
	Width = 32
	// ChunksPerRegion is the number of chunk slots in a region.
	ChunksPerRegion = Width * Width
)

// Coord is the position of a region file in the world grid, in units of 32 chunks.
type Coord struct {
	X int
	Z int
}

func (c Coord) String() string {
	return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Z)
}

// FileName returns the conventional Anvil file name of the region.
func (c Coord) FileName() string {
	return fmt.Sprintf("r.%d.%d.mca", c.X, c.Z)
}

// ParseCoord extracts region coordinates from a file name of the form
// r.<x>.<z>.mca (Anvil) or r.<x>.<z>.mcr (McRegion). Directories in path are
// ignored.
func ParseCoord(path string) (Coord, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != ".mca" && ext != ".mcr" {
		return Coord{}, fmt.Errorf("%w: %q has no .mca or .mcr extension", errs.ErrInvalidRegionName, base)
	}

	parts := strings.Split(strings.TrimSuffix(base, ext), ".")
	if len(parts) != 3 || parts[0] != "r" {
		return Coord{}, fmt.Errorf("%w: %q is not r.<x>.<z>%s", errs.ErrInvalidRegionName, base, ext)
	}

	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %q: bad x coordinate", errs.ErrInvalidRegionName, base)
	}
	z, err := strconv.Atoi(parts[2])
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %q: bad z coordinate", errs.ErrInvalidRegionName, base)
	}

	return Coord{X: x, Z: z}, nil
}

// IsRegionFile reports whether name looks like a region file name.
func IsRegionFile(name string) bool {
	_, err := ParseCoord(name)
	return err == nil
}
