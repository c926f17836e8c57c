package tally

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/region"
)

// Stats summarizes a scan.
type Stats struct {
	Regions            int           `json:"regions"`             // region files opened
	RegionsFailed      int           `json:"regions_failed"`      // files that could not be opened or read
	RegionsCached      int           `json:"regions_cached"`      // files answered from the cache
	RegionsInterrupted int           `json:"regions_interrupted"` // files abandoned on cancellation, nothing else counted
	Chunks             int           `json:"chunks"`              // chunks counted
	ChunksFailed       int           `json:"chunks_failed"`       // present chunks that failed to decode
	ChunksAbsent       int           `json:"chunks_absent"`       // empty slots, not failures
	Blocks             uint64        `json:"blocks"`              // positions counted
	Bytes              int64         `json:"bytes"`               // region file bytes read
	Elapsed            time.Duration `json:"elapsed_ns"`
}

func (s *Stats) add(o Stats) {
	s.Regions += o.Regions
	s.RegionsFailed += o.RegionsFailed
	s.RegionsCached += o.RegionsCached
	s.RegionsInterrupted += o.RegionsInterrupted
	s.Chunks += o.Chunks
	s.ChunksFailed += o.ChunksFailed
	s.ChunksAbsent += o.ChunksAbsent
	s.Blocks += o.Blocks
	s.Bytes += o.Bytes
}

// Failure records one region file or chunk that was skipped.
type Failure struct {
	Path   string
	Region region.Coord
	ChunkX int // region-local; -1 for a failure of the whole file
	ChunkZ int
	Err    error
}

func newFailure(path string, coord region.Coord, err error) Failure {
	f := Failure{Path: path, Region: coord, ChunkX: -1, ChunkZ: -1, Err: err}

	var ce *errs.ChunkError
	if errors.As(err, &ce) {
		f.Region = region.Coord{X: ce.RegionX, Z: ce.RegionZ}
		f.ChunkX, f.ChunkZ = ce.ChunkX, ce.ChunkZ
		f.Err = ce.Err
	}

	return f
}

func (f Failure) Error() string {
	if f.ChunkX < 0 {
		return fmt.Sprintf("%s: %v", f.Path, f.Err)
	}

	return fmt.Sprintf("%s chunk %d,%d: %v", f.Path, f.ChunkX, f.ChunkZ, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report is the result of a scan.
type Report struct {
	Table    *Table
	Stats    Stats
	Failures []Failure
}

// Err joins all failures, or returns nil when there were none.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}

	all := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		all[i] = f
	}

	return errors.Join(all...)
}
