package tag

import (
	"fmt"
	"iter"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/format"
)

// List is an ordered sequence of tags sharing one element type.
//
// An empty List has element type TypeEmpty; the first Add fixes the type until
// Clear. Read methods accept a nil receiver.
type List struct {
	elemType format.TagType
	items    []Tag
}

// NewList creates an empty List with no element type.
func NewList() *List {
	return &List{}
}

// Tag wraps l in a List tag.
func (l *List) Tag() Tag {
	return Tag{typ: format.TypeList, list: l}
}

// ElemType returns the element type, or TypeEmpty before the first insert.
func (l *List) ElemType() format.TagType {
	if l == nil {
		return format.TypeEmpty
	}

	return l.elemType
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}

	return len(l.items)
}

// Add appends v. It fails with ErrListTypeMismatch when v's type differs from
// the established element type and with ErrEmptyListElement for Empty tags.
func (l *List) Add(v Tag) error {
	if err := l.check(v); err != nil {
		return err
	}
	l.elemType = v.typ
	l.items = append(l.items, v)

	return nil
}

// Set replaces the element at i, keeping the element type.
func (l *List) Set(i int, v Tag) error {
	if i < 0 || i >= l.Len() {
		return fmt.Errorf("%w: list index %d, length %d", errs.ErrIndexOutOfRange, i, l.Len())
	}
	if err := l.check(v); err != nil {
		return err
	}
	l.items[i] = v

	return nil
}

func (l *List) check(v Tag) error {
	if v.typ == format.TypeEmpty {
		return errs.ErrEmptyListElement
	}
	if len(l.items) > 0 && v.typ != l.elemType {
		return fmt.Errorf("%w: list holds %s, got %s", errs.ErrListTypeMismatch, l.elemType, v.typ)
	}

	return nil
}

// Get returns the element at i, or Empty when i is out of range.
func (l *List) Get(i int) Tag {
	if i < 0 || i >= l.Len() {
		return Tag{}
	}

	return l.items[i]
}

// Clear removes all elements and forgets the element type.
func (l *List) Clear() {
	clear(l.items)
	l.items = l.items[:0]
	l.elemType = format.TypeEmpty
}

// All yields elements in order.
func (l *List) All() iter.Seq2[int, Tag] {
	return func(yield func(int, Tag) bool) {
		for i := range l.Len() {
			if !yield(i, l.items[i]) {
				return
			}
		}
	}
}

// Equal compares element type and elements in order.
func (l *List) Equal(other *List) bool {
	if l.Len() != other.Len() || l.ElemType() != other.ElemType() {
		return false
	}
	for i, v := range l.All() {
		if !v.Equal(other.items[i]) {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of l.
func (l *List) Clone() *List {
	out := &List{elemType: l.ElemType(), items: make([]Tag, 0, l.Len())}
	for _, v := range l.All() {
		out.items = append(out.items, v.Clone())
	}

	return out
}
