package palette

import (
	"fmt"
	"slices"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/format"
	"github.com/voxelforge/worldstore/tag"
)

// EmptyID is the id of the empty string. It is never interned.
const EmptyID int32 = -1

// Strings maps strings to dense ids assigned in first-seen order from 0.
type Strings struct {
	ids    map[string]int32
	values []string
}

var _ tag.StringTable = (*Strings)(nil)

// NewStrings creates an empty string palette.
func NewStrings() *Strings {
	return &Strings{ids: make(map[string]int32)}
}

// ID returns the id of s, interning it on first use.
// The empty string always maps to EmptyID.
func (p *Strings) ID(s string) int32 {
	if s == "" {
		return EmptyID
	}
	if id, ok := p.ids[s]; ok {
		return id
	}

	id := int32(len(p.values)) //nolint:gosec
	p.values = append(p.values, s)
	p.ids[s] = id

	return id
}

// Lookup returns the id of s without interning it.
func (p *Strings) Lookup(s string) (int32, bool) {
	if s == "" {
		return EmptyID, true
	}
	id, ok := p.ids[s]

	return id, ok
}

// Value returns the string for id, or "" when id is unknown.
func (p *Strings) Value(id int32) string {
	if id < 0 || int(id) >= len(p.values) {
		return ""
	}

	return p.values[id]
}

// Len returns the number of id slots, including slots left blank by
// StringsFromTag.
func (p *Strings) Len() int {
	return len(p.values)
}

// Values returns the strings in id order.
func (p *Strings) Values() []string {
	return slices.Clone(p.values)
}

// Tag serializes the palette as a List of String tags whose position is the id.
// The strings are written inline, never through a palette.
func (p *Strings) Tag() tag.Tag {
	l := tag.NewList()
	for _, s := range p.values {
		_ = l.Add(tag.String(s))
	}

	return l.Tag()
}

// StringsFromTag rebuilds a palette from the List produced by Tag.
//
// Zero-length entries keep their position but are not interned, so their id
// reads back as "".
func StringsFromTag(t tag.Tag) (*Strings, error) {
	l, ok := t.AsList()
	if !ok {
		return nil, fmt.Errorf("%w: string palette is %s, want %s", errs.ErrUnsupportedTagType, t.Type(), format.TypeList)
	}
	if l.Len() > 0 && l.ElemType() != format.TypeString {
		return nil, fmt.Errorf("%w: string palette holds %s", errs.ErrListTypeMismatch, l.ElemType())
	}

	p := &Strings{
		ids:    make(map[string]int32, l.Len()),
		values: make([]string, 0, l.Len()),
	}
	for i, item := range l.All() {
		s, _ := item.AsString()
		p.values = append(p.values, s)
		if s == "" {
			continue
		}
		if _, dup := p.ids[s]; !dup {
			p.ids[s] = int32(i) //nolint:gosec
		}
	}

	return p, nil
}
