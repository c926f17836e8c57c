// Package errs defines the error kinds shared by the blocktally decoders.
//
// Every decoder wraps one of the sentinel errors below with fmt.Errorf("%w: ...")
// so callers can classify failures with errors.Is regardless of which layer
// produced them. TagError and ChunkError carry the structured context (byte
// offsets, region and chunk coordinates) needed to point at a damaged file.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader indicates a region header that is inconsistent with the file.
	ErrMalformedHeader = errors.New("malformed region header")
	// ErrTruncatedPayload indicates a declared length or sector range beyond the available bytes.
	ErrTruncatedPayload = errors.New("truncated payload")
	// ErrUnsupportedCompression indicates an unknown compression scheme tag or custom algorithm.
	ErrUnsupportedCompression = errors.New("unsupported compression")
	// ErrDecompressionFailure indicates a corrupt or oversized compressed stream.
	ErrDecompressionFailure = errors.New("decompression failure")
	// ErrMalformedTag indicates a structural violation in a tag tree.
	ErrMalformedTag = errors.New("malformed tag")
	// ErrPaletteIndexOutOfRange indicates a packed index that does not address a palette entry.
	ErrPaletteIndexOutOfRange = errors.New("palette index out of range")
	// ErrUnrecognizedChunkFormat indicates a chunk matching none of the known revisions.
	ErrUnrecognizedChunkFormat = errors.New("unrecognized chunk format")
	// ErrExternalChunk indicates an external chunk payload file that could not be read.
	ErrExternalChunk = errors.New("external chunk unavailable")
	// ErrInvalidRegionName indicates a region file name without parseable coordinates.
	ErrInvalidRegionName = errors.New("invalid region file name")
	// ErrInvalidConfig indicates an invalid option or configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// TagError describes a tag-tree decode failure at a byte offset.
type TagError struct {
	Offset   int    // byte offset of the offending field within the decompressed buffer
	Expected string // expected tag type or structure, empty when not applicable
	Found    string // found tag type or value, empty when not applicable
	Reason   string
}

func (e *TagError) Error() string {
	switch {
	case e.Expected != "" && e.Found != "":
		return fmt.Sprintf("%s at offset %d: %s (expected %s, found %s)", ErrMalformedTag, e.Offset, e.Reason, e.Expected, e.Found)
	case e.Found != "":
		return fmt.Sprintf("%s at offset %d: %s (found %s)", ErrMalformedTag, e.Offset, e.Reason, e.Found)
	default:
		return fmt.Sprintf("%s at offset %d: %s", ErrMalformedTag, e.Offset, e.Reason)
	}
}

func (e *TagError) Unwrap() error {
	return ErrMalformedTag
}

// ChunkError attaches region and chunk coordinates to a per-chunk failure.
//
// ChunkX and ChunkZ are region-local (0..31). They are -1 when the failure
// concerns the whole region file.
type ChunkError struct {
	Path    string
	RegionX int
	RegionZ int
	ChunkX  int
	ChunkZ  int
	Err     error
}

func (e *ChunkError) Error() string {
	if e.ChunkX < 0 {
		return fmt.Sprintf("%s (region %d,%d): %v", e.Path, e.RegionX, e.RegionZ, e.Err)
	}

	return fmt.Sprintf("%s (region %d,%d chunk %d,%d): %v", e.Path, e.RegionX, e.RegionZ, e.ChunkX, e.ChunkZ, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
