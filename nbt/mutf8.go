package nbt

import (
	"unicode/utf8"
)

// Tag strings use the JVM "modified UTF-8" encoding: NUL is written as the two
// bytes C0 80 and supplementary characters as a pair of three-byte surrogates.
// For every other character the encoding matches standard UTF-8, which keeps
// the common case a plain conversion.

// needsMUTF8Decode reports whether b contains a sequence that differs from
// standard UTF-8 and so cannot be converted with string(b).
func needsMUTF8Decode(b []byte) bool {
	ascii := true
	for _, c := range b {
		if c < utf8.RuneSelf {
			continue
		}
		ascii = false
		if c == 0xC0 || c == 0xED {
			return true
		}
	}

	return !ascii && !utf8.Valid(b)
}

// decodeMUTF8 converts modified UTF-8 bytes to a Go string. Malformed
// sequences and unpaired surrogates decode as U+FFFD.
func decodeMUTF8(b []byte) string {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			out = append(out, c)
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b) && b[i+1]&0xC0 == 0x80:
			r := rune(c&0x1F)<<6 | rune(b[i+1]&0x3F)
			out = utf8.AppendRune(out, r)
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b) && b[i+1]&0xC0 == 0x80 && b[i+2]&0xC0 == 0x80:
			r := rune(c&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
			i += 3
			if r >= 0xD800 && r <= 0xDBFF && i+2 < len(b) && b[i] == 0xED && b[i+1]&0xF0 == 0xB0 && b[i+2]&0xC0 == 0x80 {
				lo := rune(b[i]&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
				r = 0x10000 + (r-0xD800)<<10 + (lo - 0xDC00)
				i += 3
			}
			out = utf8.AppendRune(out, r) // lone surrogates become utf8.RuneError
		default:
			out = utf8.AppendRune(out, utf8.RuneError)
			i++
		}
	}

	return string(out)
}

// needsMUTF8Encode reports whether s contains NUL or a supplementary character.
func needsMUTF8Encode(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0 || c >= 0xF0 {
			return true
		}
	}

	return false
}

// appendMUTF8 appends the modified UTF-8 encoding of s to dst.
func appendMUTF8(dst []byte, s string) []byte {
	if !needsMUTF8Encode(s) {
		return append(dst, s...)
	}
	for _, r := range s {
		switch {
		case r == 0:
			dst = append(dst, 0xC0, 0x80)
		case r < 0x10000:
			dst = utf8.AppendRune(dst, r)
		default:
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			dst = append(dst,
				byte(0xE0|hi>>12), byte(0x80|(hi>>6)&0x3F), byte(0x80|hi&0x3F),
				byte(0xE0|lo>>12), byte(0x80|(lo>>6)&0x3F), byte(0x80|lo&0x3F),
			)
		}
	}

	return dst
}

// mutf8Len returns the encoded length of s.
func mutf8Len(s string) int {
	if !needsMUTF8Encode(s) {
		return len(s)
	}
	n := 0
	for _, r := range s {
		switch {
		case r == 0:
			n += 2
		case r < 0x10000:
			n += utf8.RuneLen(r)
		default:
			n += 6
		}
	}

	return n
}
