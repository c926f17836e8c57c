// Package intern deduplicates block identifier strings decoded from palettes.
//
// A world with millions of sections repeats the same few hundred identifiers.
// Interning returns the same string for the same bytes, which saves one
// allocation per palette entry and lets later map lookups hit identical keys.
package intern

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arloliu/blocktally/internal/hash"
)

// DefaultSize is the number of distinct strings retained by a default Interner.
const DefaultSize = 4096

// Interner maps byte slices to shared strings. It is safe for concurrent use.
type Interner struct {
	cache *lru.Cache[uint64, string]
}

// New creates an Interner retaining up to size strings. Non-positive sizes use DefaultSize.
func New(size int) *Interner {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[uint64, string](size)
	if err != nil {
		// lru.New only fails for non-positive sizes, excluded above.
		panic(err)
	}

	return &Interner{cache: cache}
}

// Bytes returns a string equal to b, reusing a previous one when possible.
//
// Entries are keyed by xxHash64; a colliding key with different contents is
// replaced rather than returned.
func (in *Interner) Bytes(b []byte) string {
	h := hash.Bytes(b)
	if s, ok := in.cache.Get(h); ok && s == string(b) {
		return s
	}

	s := string(b)
	in.cache.Add(h, s)

	return s
}

// Len returns the number of retained strings.
func (in *Interner) Len() int {
	return in.cache.Len()
}
