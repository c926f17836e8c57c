package tally

import (
	"fmt"
	"iter"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/internal/pool"
	"github.com/arloliu/blocktally/nbt"
)

// Table counts block identifiers. It remembers the order in which
// identifiers were first added.
//
// The zero value is an empty table ready to use. A Table is not safe for
// concurrent use; parallel scans give each worker its own table and merge.
type Table struct {
	index  map[string]int
	ids    []string
	counts []uint64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add adds n to the count of id. Adding zero does not record id.
func (t *Table) Add(id string, n uint64) {
	if n == 0 {
		return
	}
	if i, ok := t.index[id]; ok {
		t.counts[i] += n
		return
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[id] = len(t.ids)
	t.ids = append(t.ids, id)
	t.counts = append(t.counts, n)
}

// Count returns the count of id, zero when absent.
func (t *Table) Count(id string) uint64 {
	if i, ok := t.index[id]; ok {
		return t.counts[i]
	}

	return 0
}

// Len returns the number of distinct identifiers.
func (t *Table) Len() int {
	return len(t.ids)
}

// Total returns the sum of all counts.
func (t *Table) Total() uint64 {
	var sum uint64
	for _, n := range t.counts {
		sum += n
	}

	return sum
}

// All yields every identifier and its count in discovery order.
func (t *Table) All() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for i, id := range t.ids {
			if !yield(id, t.counts[i]) {
				return
			}
		}
	}
}

// Map returns the counts as a map.
func (t *Table) Map() map[string]uint64 {
	out := make(map[string]uint64, len(t.ids))
	for i, id := range t.ids {
		out[id] = t.counts[i]
	}

	return out
}

// Merge adds every count of other to t. Identifiers new to t are appended
// in other's discovery order.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	for i, id := range other.ids {
		t.Add(id, other.counts[i])
	}
}

// Filter returns a copy of t without the identifiers matched by ignore.
func (t *Table) Filter(ignore *IgnoreSet) *Table {
	out := NewTable()
	for i, id := range t.ids {
		if ignore.Match(id) {
			continue
		}
		out.Add(id, t.counts[i])
	}

	return out
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	out := &Table{
		index:  make(map[string]int, len(t.ids)),
		ids:    append([]string(nil), t.ids...),
		counts: append([]uint64(nil), t.counts...),
	}
	for i, id := range out.ids {
		out.index[id] = i
	}

	return out
}

// Equal reports whether both tables hold the same counts, regardless of
// discovery order.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i, id := range t.ids {
		if other.Count(id) != t.counts[i] {
			return false
		}
	}

	return true
}

// MarshalBinary encodes the table as a tag tree holding the identifiers in
// discovery order and their counts.
func (t *Table) MarshalBinary() ([]byte, error) {
	ids := make([]nbt.Tag, len(t.ids))
	for i, id := range t.ids {
		ids[i] = nbt.String(id)
	}
	counts := make(nbt.LongArray, len(t.counts))
	for i, n := range t.counts {
		counts[i] = int64(n) //nolint:gosec
	}

	root := nbt.NewCompound(
		nbt.Field{Name: "ids", Tag: &nbt.List{Elem: nbt.TagString, Items: ids}},
		nbt.Field{Name: "counts", Tag: counts},
	)

	buf := pool.GetEncodeBuffer()
	defer pool.PutEncodeBuffer(buf)

	out, err := nbt.AppendTag(buf.B[:0], "tally", root)
	if err != nil {
		return nil, err
	}
	buf.B = out

	return append([]byte(nil), out...), nil
}

// UnmarshalBinary replaces the contents of t with a table encoded by
// MarshalBinary.
func (t *Table) UnmarshalBinary(data []byte) error {
	_, root, err := nbt.Decode(data)
	if err != nil {
		return err
	}

	ids, ok := root.List("ids")
	if !ok || (ids.Len() > 0 && ids.Elem != nbt.TagString) {
		return fmt.Errorf("%w: table without an ids string list", errs.ErrMalformedTag)
	}
	counts, ok := root.LongArray("counts")
	if !ok {
		return fmt.Errorf("%w: table without a counts array", errs.ErrMalformedTag)
	}
	if len(counts) != ids.Len() {
		return fmt.Errorf("%w: table holds %d ids but %d counts", errs.ErrMalformedTag, ids.Len(), len(counts))
	}

	fresh := NewTable()
	for i, n := range counts {
		id := string(ids.At(i).(nbt.String))
		if _, dup := fresh.index[id]; dup {
			return fmt.Errorf("%w: table repeats id %q", errs.ErrMalformedTag, id)
		}
		fresh.Add(id, uint64(n)) //nolint:gosec
	}
	*t = *fresh

	return nil
}
