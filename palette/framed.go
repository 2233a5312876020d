package palette

import (
	"io"

	"github.com/voxelforge/worldstore/tag"
)

// EncodeFramed encodes body with every string routed through a fresh string
// palette, preceded by the palette itself:
//
//	string palette List tag | body tag
//
// The body is encoded first so the palette is complete when it is written.
func EncodeFramed(body tag.Tag, opts ...tag.Option) ([]byte, error) {
	strs := NewStrings()

	bodyEnc, err := tag.NewEncoder(append(opts, tag.WithStringTable(strs))...)
	if err != nil {
		return nil, err
	}
	defer bodyEnc.Release()

	if err := bodyEnc.Encode(body); err != nil {
		return nil, err
	}

	headEnc, err := tag.NewEncoder(opts...)
	if err != nil {
		return nil, err
	}
	defer headEnc.Release()

	if err := headEnc.Encode(strs.Tag()); err != nil {
		return nil, err
	}

	out := make([]byte, 0, headEnc.Len()+bodyEnc.Len())
	out = append(out, headEnc.Bytes()...)
	out = append(out, bodyEnc.Bytes()...)

	return out, nil
}

// DecodeFramed reads a string palette followed by one body tag from r.
//
// Exactly the framed bytes are consumed, so r is left positioned on whatever
// follows the body.
func DecodeFramed(r io.Reader, opts ...tag.Option) (tag.Tag, *Strings, error) {
	headDec, err := tag.NewDecoder(r, opts...)
	if err != nil {
		return tag.Tag{}, nil, err
	}
	head, err := headDec.Decode()
	if err != nil {
		return tag.Tag{}, nil, err
	}
	strs, err := StringsFromTag(head)
	if err != nil {
		return tag.Tag{}, nil, err
	}

	bodyDec, err := tag.NewDecoder(r, append(opts, tag.WithStringTable(strs))...)
	if err != nil {
		return tag.Tag{}, nil, err
	}
	body, err := bodyDec.Decode()
	if err != nil {
		return tag.Tag{}, nil, err
	}

	return body, strs, nil
}
