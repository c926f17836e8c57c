package nbt

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arloliu/blocktally/endian"
	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/internal/options"
)

var engine = endian.GetBigEndianEngine()

// Decoder decodes binary tag trees.
//
// A Decoder holds only its configuration, so one instance may be shared by
// many goroutines. Decoded trees never alias the input buffer; callers may
// reuse the buffer as soon as Decode returns.
type Decoder struct {
	cfg DecoderConfig
}

// NewDecoder creates a Decoder with the given options.
func NewDecoder(opts ...DecodeOption) (*Decoder, error) {
	cfg := &DecoderConfig{maxDepth: DefaultMaxDepth}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Decoder{cfg: *cfg}, nil
}

// Decode decodes a buffer whose root is a named compound, the layout of every
// chunk payload.
//
// Trailing bytes after the root compound are ignored.
func Decode(data []byte, opts ...DecodeOption) (string, *Compound, error) {
	d, err := NewDecoder(opts...)
	if err != nil {
		return "", nil, err
	}

	return d.Decode(data)
}

// DecodeTag decodes a buffer holding one named tag of any type.
func DecodeTag(data []byte, opts ...DecodeOption) (string, Tag, error) {
	d, err := NewDecoder(opts...)
	if err != nil {
		return "", nil, err
	}

	return d.DecodeTag(data)
}

// Decode decodes a named root compound.
func (d *Decoder) Decode(data []byte) (string, *Compound, error) {
	if len(data) > 0 && TagType(data[0]) != TagCompound {
		return "", nil, &errs.TagError{
			Offset:   0,
			Expected: TagCompound.String(),
			Found:    TagType(data[0]).String(),
			Reason:   "root tag is not a compound",
		}
	}

	name, tag, err := d.DecodeTag(data)
	if err != nil {
		return "", nil, err
	}

	return name, tag.(*Compound), nil
}

// DecodeTag decodes one named tag of any type except End.
func (d *Decoder) DecodeTag(data []byte) (string, Tag, error) {
	r := reader{data: data, cfg: &d.cfg}

	b, err := r.u8()
	if err != nil {
		return "", nil, err
	}
	t := TagType(b)
	if !t.Valid() || t == TagEnd {
		return "", nil, &errs.TagError{Offset: 0, Expected: "named tag", Found: t.String(), Reason: "invalid root tag type"}
	}

	nameBytes, err := r.stringBytes()
	if err != nil {
		return "", nil, err
	}
	name := r.str(nameBytes)

	tag, err := r.payload(t, d.cfg.filter)
	if err != nil {
		return "", nil, err
	}

	return name, tag, nil
}

// reader is the cursor of one decode.
type reader struct {
	data  []byte
	off   int
	depth int
	cfg   *DecoderConfig
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if n > r.remaining() {
		return nil, &errs.TagError{
			Offset: r.off,
			Reason: fmt.Sprintf("truncated: need %d bytes, %d remain", n, r.remaining()),
		}
	}
	b := r.data[r.off : r.off+n : r.off+n]
	r.off += n

	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}

	return engine.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return engine.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}

	return engine.Uint64(b), nil
}

// count reads a signed 32-bit element count, rejecting negative values.
func (r *reader) count(what string) (int, error) {
	start := r.off
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	n := int32(v) //nolint:gosec
	if n < 0 {
		return 0, &errs.TagError{
			Offset: start,
			Found:  strconv.Itoa(int(n)),
			Reason: what + " count is negative",
		}
	}

	return int(n), nil
}

// sized reads a count of elements of width bytes each and returns their bytes.
func (r *reader) sized(what string, width int) (int, []byte, error) {
	n, err := r.count(what)
	if err != nil {
		return 0, nil, err
	}
	b, err := r.take(n * width)
	if err != nil {
		return 0, nil, err
	}

	return n, b, nil
}

func (r *reader) stringBytes() ([]byte, error) {
	n, err := r.u16()
	if err != nil {
		return nil, err
	}

	return r.take(int(n))
}

func (r *reader) str(b []byte) string {
	if needsMUTF8Decode(b) {
		return decodeMUTF8(b)
	}
	if r.cfg.intern != nil {
		return r.cfg.intern(b)
	}

	return string(b)
}

func (r *reader) enter(start int) error {
	r.depth++
	if r.depth > r.cfg.maxDepth {
		return &errs.TagError{
			Offset: start,
			Reason: fmt.Sprintf("nesting deeper than %d", r.cfg.maxDepth),
		}
	}

	return nil
}

func (r *reader) leave() {
	r.depth--
}

func (r *reader) payload(t TagType, f Filter) (Tag, error) {
	switch t {
	case TagByte:
		v, err := r.u8()
		return Byte(int8(v)), err //nolint:gosec
	case TagShort:
		v, err := r.u16()
		return Short(int16(v)), err //nolint:gosec
	case TagInt:
		v, err := r.u32()
		return Int(int32(v)), err //nolint:gosec
	case TagLong:
		v, err := r.u64()
		return Long(int64(v)), err //nolint:gosec
	case TagFloat:
		v, err := r.u32()
		return Float(math.Float32frombits(v)), err
	case TagDouble:
		v, err := r.u64()
		return Double(math.Float64frombits(v)), err
	case TagByteArray:
		n, b, err := r.sized("byte array", 1)
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, b)

		return ByteArray(out), nil
	case TagString:
		b, err := r.stringBytes()
		if err != nil {
			return nil, err
		}

		return String(r.str(b)), nil
	case TagList:
		return r.list(f)
	case TagCompound:
		return r.compound(f)
	case TagIntArray:
		n, b, err := r.sized("int array", 4)
		if err != nil {
			return nil, err
		}
		out := make([]int32, n)
		endian.Int32s(engine, out, b)

		return IntArray(out), nil
	case TagLongArray:
		n, b, err := r.sized("long array", 8)
		if err != nil {
			return nil, err
		}
		out := make([]int64, n)
		endian.Int64s(engine, out, b)

		return LongArray(out), nil
	default:
		return nil, &errs.TagError{Offset: r.off, Expected: "payload tag type", Found: t.String(), Reason: "unexpected tag type"}
	}
}

// listHeader reads and validates a list's element type and count.
func (r *reader) listHeader() (TagType, int, error) {
	start := r.off
	b, err := r.u8()
	if err != nil {
		return 0, 0, err
	}
	elem := TagType(b)
	if !elem.Valid() {
		return 0, 0, &errs.TagError{Offset: start, Expected: "tag type 0-12", Found: strconv.Itoa(int(b)), Reason: "invalid list element type"}
	}

	n, err := r.count("list")
	if err != nil {
		return 0, 0, err
	}
	if elem == TagEnd && n > 0 {
		return 0, 0, &errs.TagError{Offset: start, Expected: "element type", Found: elem.String(), Reason: fmt.Sprintf("list of %d End elements", n)}
	}
	if n*minPayloadSize[elem] > r.remaining() {
		return 0, 0, &errs.TagError{
			Offset: start,
			Reason: fmt.Sprintf("list declares %d %s elements but only %d bytes remain", n, elem, r.remaining()),
		}
	}

	return elem, n, nil
}

func (r *reader) list(f Filter) (*List, error) {
	start := r.off
	elem, n, err := r.listHeader()
	if err != nil {
		return nil, err
	}
	if err := r.enter(start); err != nil {
		return nil, err
	}
	defer r.leave()

	items := make([]Tag, n)
	for i := range items {
		if items[i], err = r.payload(elem, f); err != nil {
			return nil, err
		}
	}

	return &List{Elem: elem, Items: items}, nil
}

func (r *reader) compound(f Filter) (*Compound, error) {
	if err := r.enter(r.off); err != nil {
		return nil, err
	}
	defer r.leave()

	c := &Compound{}
	for {
		start := r.off
		b, err := r.u8()
		if err != nil {
			return nil, err
		}
		t := TagType(b)
		if t == TagEnd {
			return c, nil
		}
		if !t.Valid() {
			return nil, &errs.TagError{Offset: start, Expected: "tag type 0-12", Found: strconv.Itoa(int(b)), Reason: "invalid field tag type"}
		}

		nameBytes, err := r.stringBytes()
		if err != nil {
			return nil, err
		}

		sub := Filter(nil)
		if f != nil {
			var keep bool
			if sub, keep = f[string(nameBytes)]; !keep {
				if err := r.skip(t); err != nil {
					return nil, err
				}

				continue
			}
		}

		tag, err := r.payload(t, sub)
		if err != nil {
			return nil, err
		}
		c.fields = append(c.fields, Field{Name: r.str(nameBytes), Tag: tag})
	}
}

// fixedSize is the payload width of scalar tag types, zero for the rest.
var fixedSize = [TagLongArray + 1]int{
	TagByte:   1,
	TagShort:  2,
	TagInt:    4,
	TagLong:   8,
	TagFloat:  4,
	TagDouble: 8,
}

// skip validates and steps over one payload without materializing it.
func (r *reader) skip(t TagType) error {
	if w := fixedSize[t]; w > 0 {
		_, err := r.take(w)
		return err
	}

	var err error
	switch t {
	case TagByteArray:
		_, _, err = r.sized("byte array", 1)
	case TagIntArray:
		_, _, err = r.sized("int array", 4)
	case TagLongArray:
		_, _, err = r.sized("long array", 8)
	case TagString:
		_, err = r.stringBytes()
	case TagList:
		err = r.skipList()
	case TagCompound:
		err = r.skipCompound()
	default:
		err = &errs.TagError{Offset: r.off, Expected: "payload tag type", Found: t.String(), Reason: "unexpected tag type"}
	}

	return err
}

func (r *reader) skipList() error {
	start := r.off
	elem, n, err := r.listHeader()
	if err != nil {
		return err
	}
	if w := fixedSize[elem]; w > 0 {
		_, err := r.take(n * w)
		return err
	}
	if err := r.enter(start); err != nil {
		return err
	}
	defer r.leave()

	for range n {
		if err := r.skip(elem); err != nil {
			return err
		}
	}

	return nil
}

func (r *reader) skipCompound() error {
	if err := r.enter(r.off); err != nil {
		return err
	}
	defer r.leave()

	for {
		start := r.off
		b, err := r.u8()
		if err != nil {
			return err
		}
		t := TagType(b)
		if t == TagEnd {
			return nil
		}
		if !t.Valid() {
			return &errs.TagError{Offset: start, Expected: "tag type 0-12", Found: strconv.Itoa(int(b)), Reason: "invalid field tag type"}
		}
		if _, err := r.stringBytes(); err != nil {
			return err
		}
		if err := r.skip(t); err != nil {
			return err
		}
	}
}
