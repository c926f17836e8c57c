// Package testutil builds synthetic chunks and region files for tests.
//
// Fixtures are generated in process so tests never depend on world files
// checked into the repository. Every builder produces exactly what a game
// server of the matching revision would write.
package testutil

import (
	"strings"

	"github.com/arloliu/blocktally/internal/bitpack"
	"github.com/arloliu/blocktally/nbt"
)

const (
	// SectionVolume is the number of positions in a 16x16x16 section.
	SectionVolume = 4096
	// PaddedDataVersion is the first data version using padded packing.
	PaddedDataVersion = 2529
)

// Section describes one paletted section.
//
// Palette entries are block names, optionally followed by properties in
// brackets: "minecraft:oak_log[axis=y]". Indices holds SectionVolume palette
// indices; nil means every position uses entry 0.
type Section struct {
	Y       int8
	Palette []string
	Indices []uint16
}

// Uniform returns a section filled with a single block.
func Uniform(y int8, name string) Section {
	return Section{Y: y, Palette: []string{name}}
}

// Alternating returns SectionVolume indices cycling through 0..n-1.
func Alternating(n int) []uint16 {
	out := make([]uint16, SectionVolume)
	for i := range out {
		out[i] = uint16(i % n) //nolint:gosec
	}

	return out
}

// Filled returns SectionVolume copies of idx.
func Filled(idx uint16) []uint16 {
	out := make([]uint16, SectionVolume)
	for i := range out {
		out[i] = idx
	}

	return out
}

// PaletteEntry builds the compound of one palette entry from "name[k=v,...]".
func PaletteEntry(spec string) *nbt.Compound {
	name, props, hasProps := strings.Cut(spec, "[")
	entry := nbt.NewCompound(nbt.Field{Name: "Name", Tag: nbt.String(name)})
	if !hasProps {
		return entry
	}

	p := nbt.NewCompound()
	for _, kv := range strings.Split(strings.TrimSuffix(props, "]"), ",") {
		k, v, _ := strings.Cut(kv, "=")
		p.Set(k, nbt.String(v))
	}
	entry.Set("Properties", p)

	return entry
}

func palette(s Section) *nbt.List {
	items := make([]nbt.Tag, len(s.Palette))
	for i, spec := range s.Palette {
		items[i] = PaletteEntry(spec)
	}

	return &nbt.List{Elem: nbt.TagCompound, Items: items}
}

func pack(s Section, spanning bool) nbt.LongArray {
	idx := s.Indices
	if idx == nil {
		idx = make([]uint16, SectionVolume)
	}
	width := bitpack.BitsFor(len(s.Palette))
	if spanning {
		return bitpack.PackSpanning(idx, width)
	}

	return bitpack.PackPadded(idx, width)
}

func list(items []nbt.Tag) *nbt.List {
	return &nbt.List{Elem: nbt.TagCompound, Items: items}
}

// SectionsChunk builds a chunk in the current layout: a root-level
// "sections" list whose entries hold block_states{palette, data}. As the game
// does, data is omitted for single-entry palettes unless Indices is set.
func SectionsChunk(dataVersion int32, sections ...Section) *nbt.Compound {
	items := make([]nbt.Tag, len(sections))
	for i, s := range sections {
		states := nbt.NewCompound(nbt.Field{Name: "palette", Tag: palette(s)})
		if len(s.Palette) > 1 || s.Indices != nil {
			states.Set("data", pack(s, false))
		}
		items[i] = nbt.NewCompound(
			nbt.Field{Name: "Y", Tag: nbt.Byte(s.Y)},
			nbt.Field{Name: "block_states", Tag: states},
			nbt.Field{Name: "SkyLight", Tag: make(nbt.ByteArray, 2048)},
		)
	}

	return nbt.NewCompound(
		nbt.Field{Name: "DataVersion", Tag: nbt.Int(dataVersion)},
		nbt.Field{Name: "xPos", Tag: nbt.Int(0)},
		nbt.Field{Name: "zPos", Tag: nbt.Int(0)},
		nbt.Field{Name: "Status", Tag: nbt.String("minecraft:full")},
		nbt.Field{Name: "sections", Tag: list(items)},
		nbt.Field{Name: "block_entities", Tag: &nbt.List{Elem: nbt.TagEnd}},
	)
}

// FlatChunk builds a chunk in the post-flattening layout: Level.Sections with
// Palette and BlockStates. A non-positive dataVersion omits the DataVersion
// field. spanning selects the packing of BlockStates.
func FlatChunk(dataVersion int32, spanning bool, sections ...Section) *nbt.Compound {
	items := make([]nbt.Tag, len(sections))
	for i, s := range sections {
		items[i] = nbt.NewCompound(
			nbt.Field{Name: "Y", Tag: nbt.Byte(s.Y)},
			nbt.Field{Name: "Palette", Tag: palette(s)},
			nbt.Field{Name: "BlockStates", Tag: pack(s, spanning)},
			nbt.Field{Name: "BlockLight", Tag: make(nbt.ByteArray, 2048)},
		)
	}

	root := nbt.NewCompound()
	if dataVersion > 0 {
		root.Set("DataVersion", nbt.Int(dataVersion))
	}
	root.Set("Level", nbt.NewCompound(
		nbt.Field{Name: "xPos", Tag: nbt.Int(0)},
		nbt.Field{Name: "zPos", Tag: nbt.Int(0)},
		nbt.Field{Name: "Sections", Tag: list(items)},
		nbt.Field{Name: "Entities", Tag: &nbt.List{Elem: nbt.TagEnd}},
	))

	return root
}

// LegacySection describes one pre-flattening section. Blocks holds SectionVolume
// low id bytes; Add and Data hold SectionVolume/2 nibble bytes and may be nil.
type LegacySection struct {
	Y      int8
	Blocks []byte
	Add    []byte
	Data   []byte
}

// LegacyChunk builds a pre-flattening chunk with numeric block ids.
func LegacyChunk(sections ...LegacySection) *nbt.Compound {
	items := make([]nbt.Tag, len(sections))
	for i, s := range sections {
		sec := nbt.NewCompound(
			nbt.Field{Name: "Y", Tag: nbt.Byte(s.Y)},
			nbt.Field{Name: "Blocks", Tag: nbt.ByteArray(s.Blocks)},
		)
		if s.Add != nil {
			sec.Set("Add", nbt.ByteArray(s.Add))
		}
		data := s.Data
		if data == nil {
			data = make([]byte, SectionVolume/2)
		}
		sec.Set("Data", nbt.ByteArray(data))
		items[i] = sec
	}

	return nbt.NewCompound(
		nbt.Field{Name: "DataVersion", Tag: nbt.Int(1343)},
		nbt.Field{Name: "Level", Tag: nbt.NewCompound(
			nbt.Field{Name: "xPos", Tag: nbt.Int(0)},
			nbt.Field{Name: "zPos", Tag: nbt.Int(0)},
			nbt.Field{Name: "Sections", Tag: list(items)},
		)},
	)
}

// Encode encodes root as an unnamed compound and panics on failure, which is
// only possible for malformed fixtures.
func Encode(root *nbt.Compound) []byte {
	b, err := nbt.Encode("", root)
	if err != nil {
		panic(err)
	}

	return b
}
