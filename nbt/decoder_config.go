package nbt

import (
	"fmt"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/internal/options"
)

// DefaultMaxDepth bounds the nesting of lists and compounds.
const DefaultMaxDepth = 512

// Filter selects which compound fields a decode materializes.
//
// Each key names a field to keep; its value filters that field's own children.
// A nil Filter keeps the whole subtree. Filters apply through lists, so the
// filter given for a list field is used for every compound element.
// Fields that are not selected are skipped but still checked for structural
// validity, so a filtered decode fails on exactly the inputs a full one does.
//
//	f := nbt.Filter{
//		"DataVersion": nil,
//		"sections": {"Y": nil, "block_states": nil},
//	}
type Filter map[string]Filter

// DecoderConfig holds the settings of a Decoder.
type DecoderConfig struct {
	filter   Filter
	intern   func([]byte) string
	maxDepth int
}

// DecodeOption is a functional option for configuring a Decoder.
type DecodeOption = options.Option[*DecoderConfig]

// WithFilter restricts decoding to the fields selected by f.
func WithFilter(f Filter) DecodeOption {
	return options.NoError(func(cfg *DecoderConfig) {
		cfg.filter = f
	})
}

// WithInterner routes every decoded string and field name through fn. Callers
// use it to share identifier strings across many decodes.
func WithInterner(fn func([]byte) string) DecodeOption {
	return options.NoError(func(cfg *DecoderConfig) {
		cfg.intern = fn
	})
}

// WithMaxDepth sets the maximum nesting depth. Default is DefaultMaxDepth.
func WithMaxDepth(depth int) DecodeOption {
	return options.New(func(cfg *DecoderConfig) error {
		if depth <= 0 {
			return fmt.Errorf("%w: max depth must be positive, got %d", errs.ErrInvalidConfig, depth)
		}
		cfg.maxDepth = depth

		return nil
	})
}
