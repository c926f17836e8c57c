package chunk

import (
	"fmt"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/internal/bitpack"
	"github.com/arloliu/blocktally/nbt"
)

// Revision identifies the storage layout of a chunk's blocks.
type Revision uint8

const (
	RevisionUnknown Revision = iota
	// RevisionLegacy stores numeric ids in Level.Sections[].Blocks, with
	// optional Add and Data nibble arrays.
	RevisionLegacy
	// RevisionFlatSpanning stores Level.Sections[].Palette and BlockStates;
	// indices may cross 64-bit word boundaries.
	RevisionFlatSpanning
	// RevisionFlatPadded has the same shape as RevisionFlatSpanning but never
	// splits an index across words.
	RevisionFlatPadded
	// RevisionSections stores sections[].block_states{palette, data} with
	// padded packing.
	RevisionSections
)

// Data versions delimiting the revisions.
const (
	FlatteningDataVersion = 1451 // 17w47a, first paletted chunks
	PaddedDataVersion     = 2529 // 20w17a, indices stop spanning words
)

func (r Revision) String() string {
	switch r {
	case RevisionLegacy:
		return "legacy"
	case RevisionFlatSpanning:
		return "flat-spanning"
	case RevisionFlatPadded:
		return "flat-padded"
	case RevisionSections:
		return "sections"
	default:
		return fmt.Sprintf("Revision(%d)", uint8(r))
	}
}

// Paletted reports whether sections of this revision carry a palette.
func (r Revision) Paletted() bool {
	return r == RevisionFlatSpanning || r == RevisionFlatPadded || r == RevisionSections
}

// DetectRevision determines the layout of a decoded chunk root.
//
// The DataVersion field decides between the two flat packings when present.
// Without it the length of the first packed array decides; a length matching
// neither packing is ErrMalformedTag. A root with none of the known section
// lists is ErrUnrecognizedChunkFormat.
func DetectRevision(root *nbt.Compound) (Revision, error) {
	if root == nil {
		return RevisionUnknown, fmt.Errorf("%w: nil root", errs.ErrUnrecognizedChunkFormat)
	}

	if _, ok := root.List("sections"); ok {
		return RevisionSections, nil
	}

	level, ok := root.Compound("Level")
	if !ok {
		return RevisionUnknown, fmt.Errorf("%w: neither sections nor Level present", errs.ErrUnrecognizedChunkFormat)
	}
	if _, ok := level.List("sections"); ok {
		return RevisionSections, nil
	}

	sections, ok := level.List("Sections")
	if !ok {
		return RevisionUnknown, fmt.Errorf("%w: Level has no section list", errs.ErrUnrecognizedChunkFormat)
	}

	dataVersion, hasVersion := root.Integer("DataVersion")
	for i := range sections.Len() {
		sec, ok := sections.Compound(i)
		if !ok {
			return RevisionUnknown, fmt.Errorf("%w: section %d is %s, not a compound",
				errs.ErrMalformedTag, i, sections.At(i).Type())
		}

		switch {
		case sec.Has("Palette"):
			if hasVersion {
				return flatRevision(dataVersion), nil
			}

			return inferPacking(sec)
		case sec.Has("Blocks"):
			return RevisionLegacy, nil
		}
	}

	// Only empty sections (lighting data, or none at all): every revision
	// yields zero blocks, pick the one the version suggests.
	switch {
	case !hasVersion || dataVersion < FlatteningDataVersion:
		return RevisionLegacy, nil
	default:
		return flatRevision(dataVersion), nil
	}
}

func flatRevision(dataVersion int64) Revision {
	if dataVersion >= PaddedDataVersion {
		return RevisionFlatPadded
	}

	return RevisionFlatSpanning
}

// inferPacking picks the flat packing of an unversioned section from the
// length of its BlockStates array. Widths dividing 64 lay out identically
// in both packings and report RevisionFlatPadded.
func inferPacking(sec *nbt.Compound) (Revision, error) {
	palette, ok := sec.List("Palette")
	if !ok {
		return RevisionUnknown, fmt.Errorf("%w: Palette is not a list", errs.ErrMalformedTag)
	}
	words, ok := sec.LongArray("BlockStates")
	if !ok {
		return RevisionUnknown, fmt.Errorf("%w: paletted section without BlockStates", errs.ErrMalformedTag)
	}

	spanning, err := packingFromLength(len(words), palette.Len())
	if err != nil {
		return RevisionUnknown, err
	}
	if spanning {
		return RevisionFlatSpanning, nil
	}

	return RevisionFlatPadded, nil
}

func packingFromLength(words, paletteLen int) (spanning bool, err error) {
	width := bitpack.BitsFor(paletteLen)
	switch words {
	case bitpack.WordsPadded(width, SectionVolume):
		return false, nil
	case bitpack.WordsSpanning(width, SectionVolume):
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d packed words match neither packing for %d-bit indices",
			errs.ErrMalformedTag, words, width)
	}
}
