package chunk

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/nbt"
)

// Property is one block state property.
type Property struct {
	Key   string
	Value string
}

// BlockState is one palette entry.
type BlockState struct {
	Name       string     // namespaced, e.g. "minecraft:oak_log"
	Properties []Property // sorted by key
}

// String returns Name followed by its properties, "name[k=v,...]", or just
// Name when there are none.
func (b BlockState) String() string {
	if len(b.Properties) == 0 {
		return b.Name
	}

	var sb strings.Builder
	sb.Grow(len(b.Name) + 2 + len(b.Properties)*12)
	sb.WriteString(b.Name)
	sb.WriteByte('[')
	for i, p := range b.Properties {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(p.Value)
	}
	sb.WriteByte(']')

	return sb.String()
}

func parseBlockState(tag nbt.Tag) (BlockState, error) {
	entry, ok := tag.(*nbt.Compound)
	if !ok {
		return BlockState{}, fmt.Errorf("%w: palette entry is %s, not a compound", errs.ErrMalformedTag, tag.Type())
	}
	name, ok := entry.String("Name")
	if !ok {
		return BlockState{}, fmt.Errorf("%w: palette entry without a Name string", errs.ErrMalformedTag)
	}

	state := BlockState{Name: name}
	props, ok := entry.Compound("Properties")
	if !ok || props.Len() == 0 {
		return state, nil
	}

	state.Properties = make([]Property, 0, props.Len())
	for _, f := range props.Fields() {
		v, ok := f.Tag.(nbt.String)
		if !ok {
			return BlockState{}, fmt.Errorf("%w: property %q of %s is %s, not a string",
				errs.ErrMalformedTag, f.Name, name, f.Tag.Type())
		}
		state.Properties = append(state.Properties, Property{Key: f.Name, Value: string(v)})
	}
	slices.SortFunc(state.Properties, func(a, b Property) int {
		return strings.Compare(a.Key, b.Key)
	})

	return state, nil
}

func parsePalette(list *nbt.List) ([]BlockState, error) {
	if list.Len() == 0 {
		return nil, fmt.Errorf("%w: empty palette", errs.ErrMalformedTag)
	}

	palette := make([]BlockState, list.Len())
	for i := range palette {
		state, err := parseBlockState(list.At(i))
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		palette[i] = state
	}

	return palette, nil
}
