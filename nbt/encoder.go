package nbt

import (
	"fmt"
	"math"

	"github.com/arloliu/blocktally/errs"
)

// Encode encodes root as a named compound.
//
// Decoding a buffer and encoding the result reproduces the buffer byte for
// byte, provided its strings are well-formed modified UTF-8.
func Encode(name string, root *Compound) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root compound", errs.ErrMalformedTag)
	}

	return AppendTag(nil, name, root)
}

// AppendTag appends the encoding of a named tag to dst and returns the
// extended buffer.
func AppendTag(dst []byte, name string, tag Tag) ([]byte, error) {
	if tag == nil || tag.Type() == TagEnd {
		return dst, fmt.Errorf("%w: root must be a non-End tag", errs.ErrMalformedTag)
	}

	dst = append(dst, byte(tag.Type()))
	dst, err := appendString(dst, name)
	if err != nil {
		return dst, err
	}

	return appendPayload(dst, tag, 1)
}

func appendString(dst []byte, s string) ([]byte, error) {
	n := mutf8Len(s)
	if n > math.MaxUint16 {
		return dst, fmt.Errorf("%w: string of %d bytes exceeds %d", errs.ErrMalformedTag, n, math.MaxUint16)
	}
	dst = engine.AppendUint16(dst, uint16(n))

	return appendMUTF8(dst, s), nil
}

func appendCount(dst []byte, n int) ([]byte, error) {
	if n > math.MaxInt32 {
		return dst, fmt.Errorf("%w: %d elements exceed the 32-bit count", errs.ErrMalformedTag, n)
	}

	return engine.AppendUint32(dst, uint32(n)), nil //nolint:gosec
}

func appendPayload(dst []byte, tag Tag, depth int) ([]byte, error) {
	if depth > DefaultMaxDepth {
		return dst, fmt.Errorf("%w: nesting deeper than %d", errs.ErrMalformedTag, DefaultMaxDepth)
	}

	var err error
	switch v := tag.(type) {
	case Byte:
		dst = append(dst, byte(v))
	case Short:
		dst = engine.AppendUint16(dst, uint16(v)) //nolint:gosec
	case Int:
		dst = engine.AppendUint32(dst, uint32(v)) //nolint:gosec
	case Long:
		dst = engine.AppendUint64(dst, uint64(v)) //nolint:gosec
	case Float:
		dst = engine.AppendUint32(dst, math.Float32bits(float32(v)))
	case Double:
		dst = engine.AppendUint64(dst, math.Float64bits(float64(v)))
	case String:
		dst, err = appendString(dst, string(v))
	case ByteArray:
		if dst, err = appendCount(dst, len(v)); err == nil {
			dst = append(dst, v...)
		}
	case IntArray:
		if dst, err = appendCount(dst, len(v)); err == nil {
			for _, x := range v {
				dst = engine.AppendUint32(dst, uint32(x)) //nolint:gosec
			}
		}
	case LongArray:
		if dst, err = appendCount(dst, len(v)); err == nil {
			for _, x := range v {
				dst = engine.AppendUint64(dst, uint64(x)) //nolint:gosec
			}
		}
	case *List:
		dst, err = appendList(dst, v, depth)
	case *Compound:
		dst, err = appendCompound(dst, v, depth)
	default:
		err = fmt.Errorf("%w: cannot encode %T", errs.ErrMalformedTag, tag)
	}

	return dst, err
}

func appendList(dst []byte, l *List, depth int) ([]byte, error) {
	if !l.Elem.Valid() {
		return dst, fmt.Errorf("%w: invalid list element type %s", errs.ErrMalformedTag, l.Elem)
	}
	if l.Elem == TagEnd && len(l.Items) > 0 {
		return dst, fmt.Errorf("%w: non-empty list of End", errs.ErrMalformedTag)
	}

	dst = append(dst, byte(l.Elem))
	dst, err := appendCount(dst, len(l.Items))
	if err != nil {
		return dst, err
	}
	for i, item := range l.Items {
		if item == nil || item.Type() != l.Elem {
			return dst, fmt.Errorf("%w: list item %d is not %s", errs.ErrMalformedTag, i, l.Elem)
		}
		if dst, err = appendPayload(dst, item, depth+1); err != nil {
			return dst, err
		}
	}

	return dst, nil
}

func appendCompound(dst []byte, c *Compound, depth int) ([]byte, error) {
	var err error
	for _, f := range c.Fields() {
		if f.Tag == nil || f.Tag.Type() == TagEnd {
			return dst, fmt.Errorf("%w: field %q has no payload", errs.ErrMalformedTag, f.Name)
		}
		dst = append(dst, byte(f.Tag.Type()))
		if dst, err = appendString(dst, f.Name); err != nil {
			return dst, err
		}
		if dst, err = appendPayload(dst, f.Tag, depth+1); err != nil {
			return dst, err
		}
	}

	return append(dst, byte(TagEnd)), nil
}
