// Package bitpack unpacks the fixed-width index arrays stored in chunk sections.
//
// Two layouts exist. In the spanning layout an index may start in one 64-bit
// word and continue in the next, so n indices occupy exactly ceil(n*bits/64)
// words. In the padded layout every word holds floor(64/bits) indices and the
// leftover high bits are unused, so no index crosses a word boundary. Bits are
// consumed from the least significant end of each word in both layouts.
package bitpack

import (
	"errors"
	"fmt"
	"math/bits"
)

const (
	MinBits = 4  // narrowest width used for block palettes
	MaxBits = 16 // widest width representable in the uint16 output
)

// ErrShortArray indicates a packed array holding fewer words than its layout requires.
var ErrShortArray = errors.New("bitpack: packed array too short")

// ErrInvalidWidth indicates a bit width outside [1, MaxBits].
var ErrInvalidWidth = errors.New("bitpack: invalid bit width")

// BitsFor returns the index width used for a palette of n entries:
// max(MinBits, ceil(log2(n))).
func BitsFor(n int) int {
	if n <= 1 {
		return MinBits
	}
	w := bits.Len(uint(n - 1))
	if w < MinBits {
		return MinBits
	}

	return w
}

// WordsPadded returns the number of words the padded layout needs for n indices.
func WordsPadded(width, n int) int {
	per := 64 / width
	return (n + per - 1) / per
}

// WordsSpanning returns the number of words the spanning layout needs for n indices.
func WordsSpanning(width, n int) int {
	return (n*width + 63) / 64
}

func checkWidth(width int) error {
	if width < 1 || width > MaxBits {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}

	return nil
}

// UnpackPadded decodes len(dst) indices of the given width from the padded layout.
func UnpackPadded(dst []uint16, words []int64, width int) error {
	if err := checkWidth(width); err != nil {
		return err
	}
	if need := WordsPadded(width, len(dst)); len(words) < need {
		return fmt.Errorf("%w: have %d words, need %d", ErrShortArray, len(words), need)
	}

	if width == 4 {
		unpackNibbles(dst, words)
		return nil
	}

	per := 64 / width
	mask := uint64(1)<<width - 1
	i := 0
	for _, w := range words {
		u := uint64(w) //nolint:gosec
		for j := 0; j < per && i < len(dst); j++ {
			dst[i] = uint16(u & mask) //nolint:gosec
			u >>= width
			i++
		}
		if i == len(dst) {
			break
		}
	}

	return nil
}

// UnpackSpanning decodes len(dst) indices of the given width from the spanning layout.
func UnpackSpanning(dst []uint16, words []int64, width int) error {
	if err := checkWidth(width); err != nil {
		return err
	}
	if need := WordsSpanning(width, len(dst)); len(words) < need {
		return fmt.Errorf("%w: have %d words, need %d", ErrShortArray, len(words), need)
	}

	// Widths dividing 64 never span, and the two layouts coincide.
	if 64%width == 0 {
		if width == 4 {
			unpackNibbles(dst, words)
			return nil
		}

		return UnpackPadded(dst, words, width)
	}

	mask := uint64(1)<<width - 1
	for i := range dst {
		bit := i * width
		wi := bit >> 6
		off := uint(bit & 63) //nolint:gosec
		v := uint64(words[wi]) >> off //nolint:gosec
		if int(off)+width > 64 {
			v |= uint64(words[wi+1]) << (64 - off) //nolint:gosec
		}
		dst[i] = uint16(v & mask) //nolint:gosec
	}

	return nil
}

// unpackNibbles is the 4-bit fast path shared by both layouts; it covers every
// palette of up to 16 entries, which is the overwhelming majority of sections.
func unpackNibbles(dst []uint16, words []int64) {
	i := 0
	for _, w := range words {
		u := uint64(w) //nolint:gosec
		if len(dst)-i >= 16 {
			d := dst[i : i+16 : i+16]
			for j := range d {
				d[j] = uint16(u & 0xF)
				u >>= 4
			}
			i += 16

			continue
		}
		for ; i < len(dst); i++ {
			dst[i] = uint16(u & 0xF)
			u >>= 4
		}

		return
	}
}

// PackPadded is the inverse of UnpackPadded. It is used to build fixtures and
// to verify round trips.
func PackPadded(values []uint16, width int) []int64 {
	words := make([]int64, WordsPadded(width, len(values)))
	per := 64 / width
	for i, v := range values {
		shift := uint((i % per) * width) //nolint:gosec
		words[i/per] |= int64(uint64(v) << shift) //nolint:gosec
	}

	return words
}

// PackSpanning is the inverse of UnpackSpanning.
func PackSpanning(values []uint16, width int) []int64 {
	words := make([]int64, WordsSpanning(width, len(values)))
	for i, v := range values {
		bit := i * width
		wi := bit >> 6
		off := uint(bit & 63) //nolint:gosec
		words[wi] |= int64(uint64(v) << off) //nolint:gosec
		if int(off)+width > 64 {
			words[wi+1] |= int64(uint64(v) >> (64 - off)) //nolint:gosec
		}
	}

	return words
}
