package format

type CompressionType uint8

const (
	CompressionGzip   CompressionType = 0x01 // CompressionGzip represents a gzip (RFC 1952) payload.
	CompressionZlib   CompressionType = 0x02 // CompressionZlib represents a zlib (RFC 1950) payload.
	CompressionNone   CompressionType = 0x03 // CompressionNone represents an uncompressed payload.
	CompressionLZ4    CompressionType = 0x04 // CompressionLZ4 represents an LZ4 frame payload.
	CompressionCustom CompressionType = 0x7F // CompressionCustom represents a payload prefixed by a named algorithm.

	// Cache-only codecs. These never appear in region files and the region reader rejects them.
	CompressionZstd CompressionType = 0x40 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x41 // CompressionS2 represents S2 compression.
)

// ExternalFlag is set on a region compression byte when the chunk payload lives
// in a sibling c.<x>.<z>.mcc file instead of the region sectors.
const ExternalFlag = 0x80

// IsRegionScheme reports whether c may appear as a region payload scheme.
func (c CompressionType) IsRegionScheme() bool {
	switch c {
	case CompressionGzip, CompressionZlib, CompressionNone, CompressionLZ4, CompressionCustom:
		return true
	default:
		return false
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionGzip:
		return "Gzip"
	case CompressionZlib:
		return "Zlib"
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionCustom:
		return "Custom"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a configuration name to a cache codec type.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "none", "None", "":
		return CompressionNone, true
	case "zstd", "Zstd":
		return CompressionZstd, true
	case "s2", "S2":
		return CompressionS2, true
	case "lz4", "LZ4":
		return CompressionLZ4, true
	case "gzip", "Gzip":
		return CompressionGzip, true
	case "zlib", "Zlib":
		return CompressionZlib, true
	default:
		return 0, false
	}
}
