package chunk

import (
	"fmt"
	"iter"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/internal/bitpack"
	"github.com/arloliu/blocktally/internal/pool"
)

// SectionVolume is the number of block positions in a 16x16x16 section.
const SectionVolume = 4096

// Section holds the palette and packed indices of one 16x16x16 section.
//
// Positions are ordered y*256 + z*16 + x. A Section is only valid while the
// chunk it was parsed from is processed; its arrays alias the decoded tree.
type Section struct {
	Y       int
	Palette []BlockState

	ids      []string // identifier per palette entry
	words    []int64  // packed indices, nil for a homogeneous section
	spanning bool
	decoded  []uint16 // legacy sections are converted at parse time
}

// Homogeneous reports whether every position holds palette entry 0 without
// a packed array to decode.
func (s *Section) Homogeneous() bool {
	return s.words == nil && s.decoded == nil && len(s.ids) == 1
}

// Spanning reports whether packed indices may cross word boundaries.
func (s *Section) Spanning() bool {
	return s.spanning
}

// BitsPerIndex returns the width of one packed index.
func (s *Section) BitsPerIndex() int {
	return bitpack.BitsFor(len(s.ids))
}

// ID returns the identifier of palette entry i.
func (s *Section) ID(i int) string {
	return s.ids[i]
}

// indices returns the SectionVolume palette indices of the section. The
// returned cleanup function must be called once the slice is no longer used.
func (s *Section) indices() ([]uint16, func(), error) {
	if s.decoded != nil {
		return s.decoded, func() {}, nil
	}

	dst, cleanup := pool.GetUint16Slice(SectionVolume)
	width := s.BitsPerIndex()

	var err error
	if s.spanning {
		err = bitpack.UnpackSpanning(dst, s.words, width)
	} else {
		err = bitpack.UnpackPadded(dst, s.words, width)
	}
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%w: section %d: %w", errs.ErrMalformedTag, s.Y, err)
	}

	return dst, cleanup, nil
}

func (s *Section) indexError(pos int, idx uint16) error {
	return fmt.Errorf("%w: section %d position %d has index %d, palette holds %d entries",
		errs.ErrPaletteIndexOutOfRange, s.Y, pos, idx, len(s.ids))
}

// Histogram returns the number of positions using each palette entry,
// indexed like Palette.
func (s *Section) Histogram() ([]uint64, error) {
	counts := make([]uint64, len(s.ids))
	if s.Homogeneous() {
		counts[0] = SectionVolume
		return counts, nil
	}

	idx, cleanup, err := s.indices()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	for pos, v := range idx {
		if int(v) >= len(counts) {
			return nil, s.indexError(pos, v)
		}
		counts[v]++
	}

	return counts, nil
}

// Count calls fn once per identifier present in the section, in order of
// first occurrence, with the number of positions holding it. Entries with
// no positions are not reported. Nothing is reported when the section fails
// to decode.
func (s *Section) Count(fn func(id string, n uint64)) error {
	if s.Homogeneous() {
		fn(s.ids[0], SectionVolume)
		return nil
	}

	idx, cleanup, err := s.indices()
	if err != nil {
		return err
	}
	defer cleanup()

	counts, releaseCounts := pool.GetUint64Slice(len(s.ids))
	defer releaseCounts()
	order, releaseOrder := pool.GetUint16Slice(len(s.ids))
	defer releaseOrder()

	seen := 0
	for pos, v := range idx {
		if int(v) >= len(counts) {
			return s.indexError(pos, v)
		}
		if counts[v] == 0 {
			order[seen] = v
			seen++
		}
		counts[v]++
	}

	for _, v := range order[:seen] {
		fn(s.ids[v], counts[v])
	}

	return nil
}

// Blocks yields the identifier of every position in position order. A
// decode failure is yielded once with an empty identifier and ends the
// sequence.
func (s *Section) Blocks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if s.Homogeneous() {
			for range SectionVolume {
				if !yield(s.ids[0], nil) {
					return
				}
			}

			return
		}

		idx, cleanup, err := s.indices()
		if err != nil {
			yield("", err)
			return
		}
		defer cleanup()

		for pos, v := range idx {
			if int(v) >= len(s.ids) {
				yield("", s.indexError(pos, v))
				return
			}
			if !yield(s.ids[v], nil) {
				return
			}
		}
	}
}
