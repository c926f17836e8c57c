// Package chunk extracts block identifiers from decoded chunk tag trees.
//
// Four storage layouts are recognized, reported as a Revision:
//
//	RevisionLegacy        Level.Sections[].Blocks/Add/Data     numeric ids
//	RevisionFlatSpanning  Level.Sections[].Palette/BlockStates  DataVersion < 2529
//	RevisionFlatPadded    Level.Sections[].Palette/BlockStates  DataVersion >= 2529
//	RevisionSections      sections[].block_states{palette,data}
//
// Paletted sections store one palette index per position, packed into 64-bit
// words at max(4, ceil(log2(len(palette)))) bits each. Before DataVersion 2529
// an index may continue into the next word; from 2529 on each word holds
// floor(64/bits) indices and its high bits are padding. A section whose
// palette has a single entry usually omits the packed array and is counted
// with one increment of SectionVolume.
//
// Typical use decodes only the fields extraction needs:
//
//	_, root, err := nbt.Decode(payload, nbt.WithFilter(chunk.DecodeFilter()))
//	if err != nil {
//	    return err
//	}
//	c, err := chunk.Parse(root)
//	if err != nil {
//	    return err
//	}
//	err = c.Count(func(id string, n uint64) { table.Add(id, n) })
package chunk
