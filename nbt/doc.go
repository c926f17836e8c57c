// Package nbt decodes and encodes the binary tag format used by chunk payloads.
//
// A tag tree is a closed set of node types discriminated by a one-byte tag
// type: six scalar types, three primitive arrays, strings, homogeneous lists
// and compounds of named children. All multi-byte values are big-endian.
//
// # Decoding
//
// Decode parses a buffer whose root is a named compound:
//
//	name, root, err := nbt.Decode(payload)
//	if err != nil {
//	    var tagErr *errs.TagError
//	    if errors.As(err, &tagErr) {
//	        log.Printf("bad tag at offset %d", tagErr.Offset)
//	    }
//	}
//
// The decoder never trusts a declared length. Negative counts, counts larger
// than the remaining input and nesting deeper than DefaultMaxDepth fail before
// anything is allocated for them.
//
// # Filtering
//
// Chunk payloads carry entities, heightmaps and lighting that block counting
// does not need. A Filter names the fields to materialize; everything else is
// validated and skipped without allocation:
//
//	dec, _ := nbt.NewDecoder(nbt.WithFilter(nbt.Filter{
//	    "DataVersion": nil,
//	    "sections":    {"Y": nil, "block_states": nil},
//	}))
//
// # Access
//
// Compound keeps fields in decode order and offers typed getters. Lookup
// walks mixed field/index paths:
//
//	palette, ok := nbt.Lookup(root, "sections", 0, "block_states", "palette")
//
// # Encoding
//
// Encode is the inverse of Decode; a decoded tree re-encodes to the same bytes.
// Stringify renders the human-readable stringified form.
package nbt
