package chunk

import (
	"fmt"
	"iter"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/internal/options"
	"github.com/arloliu/blocktally/nbt"
)

// Config controls how identifiers are derived from palette entries.
type Config struct {
	blockStates bool
}

// Option configures Parse.
type Option = options.Option[*Config]

// WithBlockStates makes identifiers include block state properties, so
// "minecraft:oak_log[axis=x]" and "minecraft:oak_log[axis=y]" count apart.
func WithBlockStates() Option {
	return options.NoError(func(c *Config) {
		c.blockStates = true
	})
}

// Chunk is the block content of one decoded chunk.
type Chunk struct {
	Revision    Revision
	DataVersion int32 // zero when the chunk carries none
	X, Z        int32 // absolute chunk coordinates, when present
	Sections    []Section
}

// Parse extracts the sections of a decoded chunk root.
//
// Sections holding no block data (lighting only, or above the build limit)
// are left out. A paletted section whose packed array is missing is only
// valid with a single palette entry.
func Parse(root *nbt.Compound, opts ...Option) (*Chunk, error) {
	cfg := &Config{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	rev, err := DetectRevision(root)
	if err != nil {
		return nil, err
	}

	c := &Chunk{Revision: rev}
	if v, ok := root.Int("DataVersion"); ok {
		c.DataVersion = v
	}

	holder := root
	if level, ok := root.Compound("Level"); ok {
		holder = level
	}
	if x, ok := holder.Int("xPos"); ok {
		c.X = x
	}
	if z, ok := holder.Int("zPos"); ok {
		c.Z = z
	}

	var list *nbt.List
	switch rev {
	case RevisionSections:
		if l, ok := root.List("sections"); ok {
			list = l
		} else {
			list, _ = holder.List("sections")
		}
	default:
		list, _ = holder.List("Sections")
	}

	c.Sections = make([]Section, 0, list.Len())
	for i := range list.Len() {
		sec, ok := list.Compound(i)
		if !ok {
			return nil, fmt.Errorf("%w: section %d is %s, not a compound", errs.ErrMalformedTag, i, list.At(i).Type())
		}

		s, present, err := parseSection(sec, rev, root.Has("DataVersion"), cfg.blockStates)
		if err != nil {
			return nil, err
		}
		if present {
			c.Sections = append(c.Sections, s)
		}
	}

	return c, nil
}

func sectionY(sec *nbt.Compound) int {
	y, _ := sec.Integer("Y")
	return int(y)
}

func parseSection(sec *nbt.Compound, rev Revision, versioned, states bool) (Section, bool, error) {
	y := sectionY(sec)

	switch rev {
	case RevisionLegacy:
		return parseLegacySection(sec, y, states)
	case RevisionSections:
		blockStates, ok := sec.Compound("block_states")
		if !ok {
			return Section{}, false, nil
		}
		paletteList, ok := blockStates.List("palette")
		if !ok {
			return Section{}, false, fmt.Errorf("%w: section %d block_states without palette", errs.ErrMalformedTag, y)
		}
		data, hasData := blockStates.LongArray("data")
		if !hasData && blockStates.Has("data") {
			return Section{}, false, fmt.Errorf("%w: section %d data is not a long array", errs.ErrMalformedTag, y)
		}

		return palettedSection(y, paletteList, data, false, states)
	default:
		paletteList, ok := sec.List("Palette")
		if !ok {
			return Section{}, false, nil
		}
		data, ok := sec.LongArray("BlockStates")
		if !ok {
			return Section{}, false, fmt.Errorf("%w: section %d Palette without BlockStates", errs.ErrMalformedTag, y)
		}

		spanning := rev == RevisionFlatSpanning
		if !versioned {
			var err error
			if spanning, err = packingFromLength(len(data), paletteList.Len()); err != nil {
				return Section{}, false, fmt.Errorf("section %d: %w", y, err)
			}
		}

		return palettedSection(y, paletteList, data, spanning, states)
	}
}

func palettedSection(y int, paletteList *nbt.List, data []int64, spanning, states bool) (Section, bool, error) {
	palette, err := parsePalette(paletteList)
	if err != nil {
		return Section{}, false, fmt.Errorf("section %d: %w", y, err)
	}
	if data == nil && len(palette) > 1 {
		return Section{}, false, fmt.Errorf("%w: section %d has %d palette entries but no packed data",
			errs.ErrMalformedTag, y, len(palette))
	}

	return Section{
		Y:        y,
		Palette:  palette,
		ids:      identifiers(palette, states),
		words:    data,
		spanning: spanning,
	}, true, nil
}

func identifiers(palette []BlockState, states bool) []string {
	ids := make([]string, len(palette))
	for i, p := range palette {
		if states {
			ids[i] = p.String()
		} else {
			ids[i] = p.Name
		}
	}

	return ids
}

type sectionCount struct {
	id string
	n  uint64
}

// Count calls fn for every identifier of every section, in section order and
// within a section in order of first occurrence. Either every section
// decodes and all counts are reported, or nothing is reported and the first
// failure is returned.
func (c *Chunk) Count(fn func(id string, n uint64)) error {
	pending := make([]sectionCount, 0, len(c.Sections)*4)
	for i := range c.Sections {
		err := c.Sections[i].Count(func(id string, n uint64) {
			pending = append(pending, sectionCount{id: id, n: n})
		})
		if err != nil {
			return err
		}
	}

	for _, p := range pending {
		fn(p.id, p.n)
	}

	return nil
}

// Volume returns the number of block positions the chunk's sections cover.
func (c *Chunk) Volume() uint64 {
	return uint64(len(c.Sections)) * SectionVolume
}

// Blocks yields the identifier of every position of every section. The
// sequence is single-pass: a decode failure is yielded once with an empty
// identifier and ends it.
func (c *Chunk) Blocks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for i := range c.Sections {
			for id, err := range c.Sections[i].Blocks() {
				if !yield(id, err) || err != nil {
					return
				}
			}
		}
	}
}

// DecodeFilter returns the tag filter naming every field Parse reads, for
// use with nbt.WithFilter. Everything else in a chunk (entities, heightmaps,
// lighting, biomes) is skipped during decoding.
func DecodeFilter() nbt.Filter {
	sections := nbt.Filter{
		"Y":            nil,
		"block_states": nbt.Filter{"palette": nil, "data": nil},
	}
	flat := nbt.Filter{
		"Y":           nil,
		"Palette":     nil,
		"BlockStates": nil,
		"Blocks":      nil,
		"Add":         nil,
		"Data":        nil,
	}

	return nbt.Filter{
		"DataVersion": nil,
		"xPos":        nil,
		"zPos":        nil,
		"sections":    sections,
		"Level": nbt.Filter{
			"xPos":     nil,
			"zPos":     nil,
			"sections": sections,
			"Sections": flat,
		},
	}
}
