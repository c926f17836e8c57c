package nbt

import (
	"fmt"
	"strconv"
)

// TagType is the one-byte discriminant that precedes every tag payload.
type TagType uint8

const (
	TagEnd       TagType = 0  // TagEnd terminates a compound; it has no payload.
	TagByte      TagType = 1  // TagByte is a signed 8-bit integer.
	TagShort     TagType = 2  // TagShort is a signed 16-bit integer.
	TagInt       TagType = 3  // TagInt is a signed 32-bit integer.
	TagLong      TagType = 4  // TagLong is a signed 64-bit integer.
	TagFloat     TagType = 5  // TagFloat is an IEEE 754 binary32 value.
	TagDouble    TagType = 6  // TagDouble is an IEEE 754 binary64 value.
	TagByteArray TagType = 7  // TagByteArray is a 32-bit count followed by bytes.
	TagString    TagType = 8  // TagString is a 16-bit length followed by modified UTF-8.
	TagList      TagType = 9  // TagList is an element type, a 32-bit count and that many payloads.
	TagCompound  TagType = 10 // TagCompound is a sequence of named tags terminated by TagEnd.
	TagIntArray  TagType = 11 // TagIntArray is a 32-bit count followed by 32-bit integers.
	TagLongArray TagType = 12 // TagLongArray is a 32-bit count followed by 64-bit integers.
)

var tagTypeNames = [...]string{
	"End", "Byte", "Short", "Int", "Long", "Float", "Double",
	"ByteArray", "String", "List", "Compound", "IntArray", "LongArray",
}

// Valid reports whether t is one of the thirteen defined tag types.
func (t TagType) Valid() bool {
	return t <= TagLongArray
}

func (t TagType) String() string {
	if t.Valid() {
		return tagTypeNames[t]
	}

	return "TagType(" + strconv.Itoa(int(t)) + ")"
}

// minPayloadSize is the smallest encoding of one payload of each type. It bounds
// declared list counts against the bytes that remain before anything is allocated.
var minPayloadSize = [...]int{
	TagEnd:       0,
	TagByte:      1,
	TagShort:     2,
	TagInt:       4,
	TagLong:      8,
	TagFloat:     4,
	TagDouble:    8,
	TagByteArray: 4,
	TagString:    2,
	TagList:      5,
	TagCompound:  1,
	TagIntArray:  4,
	TagLongArray: 4,
}

// Tag is a decoded node. The set of implementations is closed: Byte, Short, Int,
// Long, Float, Double, ByteArray, String, *List, *Compound, IntArray and LongArray.
type Tag interface {
	Type() TagType
	isTag()
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	String    string
	ByteArray []byte
	IntArray  []int32
	LongArray []int64
)

func (Byte) Type() TagType      { return TagByte }
func (Short) Type() TagType     { return TagShort }
func (Int) Type() TagType       { return TagInt }
func (Long) Type() TagType      { return TagLong }
func (Float) Type() TagType     { return TagFloat }
func (Double) Type() TagType    { return TagDouble }
func (ByteArray) Type() TagType { return TagByteArray }
func (String) Type() TagType    { return TagString }
func (*List) Type() TagType     { return TagList }
func (*Compound) Type() TagType { return TagCompound }
func (IntArray) Type() TagType  { return TagIntArray }
func (LongArray) Type() TagType { return TagLongArray }

func (Byte) isTag()      {}
func (Short) isTag()     {}
func (Int) isTag()       {}
func (Long) isTag()      {}
func (Float) isTag()     {}
func (Double) isTag()    {}
func (ByteArray) isTag() {}
func (String) isTag()    {}
func (*List) isTag()     {}
func (*Compound) isTag() {}
func (IntArray) isTag()  {}
func (LongArray) isTag() {}

// List is a homogeneous sequence of tags. An empty list may carry TagEnd as its
// element type.
type List struct {
	Elem  TagType
	Items []Tag
}

// NewList builds a list, rejecting items whose type differs from elem.
func NewList(elem TagType, items ...Tag) (*List, error) {
	for i, item := range items {
		if item.Type() != elem {
			return nil, fmt.Errorf("list item %d: expected %s, found %s", i, elem, item.Type())
		}
	}

	return &List{Elem: elem, Items: items}, nil
}

// Len returns the number of items.
func (l *List) Len() int {
	if l == nil {
		return 0
	}

	return len(l.Items)
}

// At returns item i, or nil when i is out of range.
func (l *List) At(i int) Tag {
	if l == nil || i < 0 || i >= len(l.Items) {
		return nil
	}

	return l.Items[i]
}

// Compound returns item i when it is a compound.
func (l *List) Compound(i int) (*Compound, bool) {
	c, ok := l.At(i).(*Compound)
	return c, ok
}

// Field is one named entry of a compound.
type Field struct {
	Name string
	Tag  Tag
}

// Compound is an ordered collection of named tags. Field order is the order
// fields were decoded or added, so a decoded compound re-encodes byte for byte.
type Compound struct {
	fields []Field
}

// NewCompound creates a compound holding fields in order.
func NewCompound(fields ...Field) *Compound {
	return &Compound{fields: fields}
}

// Len returns the number of fields.
func (c *Compound) Len() int {
	if c == nil {
		return 0
	}

	return len(c.fields)
}

// Fields returns the fields in order. The slice must not be modified.
func (c *Compound) Fields() []Field {
	if c == nil {
		return nil
	}

	return c.fields
}

// Get returns the first field called name.
func (c *Compound) Get(name string) (Tag, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.fields {
		if c.fields[i].Name == name {
			return c.fields[i].Tag, true
		}
	}

	return nil, false
}

// Set replaces the field called name, or appends it.
func (c *Compound) Set(name string, tag Tag) {
	for i := range c.fields {
		if c.fields[i].Name == name {
			c.fields[i].Tag = tag
			return
		}
	}
	c.fields = append(c.fields, Field{Name: name, Tag: tag})
}

// Has reports whether a field called name exists.
func (c *Compound) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Compound returns the named field when it is a compound.
func (c *Compound) Compound(name string) (*Compound, bool) {
	t, _ := c.Get(name)
	v, ok := t.(*Compound)

	return v, ok
}

// List returns the named field when it is a list.
func (c *Compound) List(name string) (*List, bool) {
	t, _ := c.Get(name)
	v, ok := t.(*List)

	return v, ok
}

// String returns the named field when it is a string.
func (c *Compound) String(name string) (string, bool) {
	t, _ := c.Get(name)
	v, ok := t.(String)

	return string(v), ok
}

// Int returns the named field when it is an Int.
func (c *Compound) Int(name string) (int32, bool) {
	t, _ := c.Get(name)
	v, ok := t.(Int)

	return int32(v), ok
}

// Long returns the named field when it is a Long.
func (c *Compound) Long(name string) (int64, bool) {
	t, _ := c.Get(name)
	v, ok := t.(Long)

	return int64(v), ok
}

// Byte returns the named field when it is a Byte.
func (c *Compound) Byte(name string) (int8, bool) {
	t, _ := c.Get(name)
	v, ok := t.(Byte)

	return int8(v), ok
}

// Integer returns the named field widened to int64 when it is any integer type.
// Several chunk fields changed width between format revisions.
func (c *Compound) Integer(name string) (int64, bool) {
	t, _ := c.Get(name)
	switch v := t.(type) {
	case Byte:
		return int64(v), true
	case Short:
		return int64(v), true
	case Int:
		return int64(v), true
	case Long:
		return int64(v), true
	default:
		return 0, false
	}
}

// ByteArray returns the named field when it is a byte array.
func (c *Compound) ByteArray(name string) ([]byte, bool) {
	t, _ := c.Get(name)
	v, ok := t.(ByteArray)

	return []byte(v), ok
}

// LongArray returns the named field when it is a long array.
func (c *Compound) LongArray(name string) ([]int64, bool) {
	t, _ := c.Get(name)
	v, ok := t.(LongArray)

	return []int64(v), ok
}

// Lookup walks a path of compound field names (string) and list indices (int)
// starting at root.
//
//	sections, ok := nbt.Lookup(root, "Level", "Sections")
//	palette, ok := nbt.Lookup(root, "sections", 3, "block_states", "palette")
func Lookup(root Tag, path ...any) (Tag, bool) {
	cur := root
	for _, step := range path {
		switch s := step.(type) {
		case string:
			c, ok := cur.(*Compound)
			if !ok {
				return nil, false
			}
			if cur, ok = c.Get(s); !ok {
				return nil, false
			}
		case int:
			l, ok := cur.(*List)
			if !ok {
				return nil, false
			}
			if cur = l.At(s); cur == nil {
				return nil, false
			}
		default:
			return nil, false
		}
	}

	return cur, cur != nil
}
