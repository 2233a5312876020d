// Package block defines the persisted form of a block state and the resolver
// that maps it to and from the runtime ids held by chunks.
package block

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/tag"
)

// State is a block type name plus its property values.
type State struct {
	Name       string
	Properties map[string]string
}

// Air is the default block state. Region palettes reserve id 0 for it.
var Air = State{Name: "air"}

// keyEscaper backslash-escapes the delimiters of a Key, so distinct states
// never share one.
var keyEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `=`, `\=`)

// Key returns the canonical identity of s: the name, followed by the
// properties in key order as "[k1=v1,k2=v2]" when there are any. Delimiter
// characters inside the name, keys and values are escaped with a backslash.
func (s State) Key() string {
	if len(s.Properties) == 0 {
		return keyEscaper.Replace(s.Name)
	}

	var b strings.Builder
	_, _ = keyEscaper.WriteString(&b, s.Name)
	b.WriteByte('[')
	for i, k := range slices.Sorted(maps.Keys(s.Properties)) {
		if i > 0 {
			b.WriteByte(',')
		}
		_, _ = keyEscaper.WriteString(&b, k)
		b.WriteByte('=')
		_, _ = keyEscaper.WriteString(&b, s.Properties[k])
	}
	b.WriteByte(']')

	return b.String()
}

// Equal reports whether s and o have the same name and properties.
func (s State) Equal(o State) bool {
	return s.Name == o.Name && maps.Equal(s.Properties, o.Properties)
}

// String returns Key.
func (s State) String() string {
	return s.Key()
}

// Tag encodes s as a Compound with a "name" String and, when s has
// properties, a "props" Compound of Strings.
func (s State) Tag() tag.Tag {
	c := tag.NewCompound()
	c.Set("name", tag.String(s.Name))
	if len(s.Properties) > 0 {
		props := c.GetOrCreateCompound("props")
		for k, v := range s.Properties {
			props.Set(k, tag.String(v))
		}
	}

	return c.Tag()
}

// StateFromTag decodes a Compound produced by State.Tag.
func StateFromTag(t tag.Tag) (State, error) {
	c, ok := t.AsCompound()
	if !ok {
		return State{}, fmt.Errorf("%w: block state is %s", errs.ErrUnknownBlockState, t.Type())
	}

	name := c.GetString("name", "")
	if name == "" {
		return State{}, fmt.Errorf("%w: block state without a name", errs.ErrUnknownBlockState)
	}

	s := State{Name: name}
	if props, ok := c.GetCompound("props"); ok && props.Len() > 0 {
		s.Properties = make(map[string]string, props.Len())
		for k, v := range props.All() {
			s.Properties[k], _ = v.AsString()
		}
	}

	return s, nil
}
