package tag

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/voxelforge/worldstore/errs"
)

// sliceTable is a minimal StringTable for exercising id-encoded strings.
type sliceTable struct {
	values []string
	ids    map[string]int32
}

func newSliceTable() *sliceTable {
	return &sliceTable{ids: make(map[string]int32)}
}

func (s *sliceTable) ID(v string) int32 {
	if v == "" {
		return -1
	}
	if id, ok := s.ids[v]; ok {
		return id
	}
	id := int32(len(s.values))
	s.values = append(s.values, v)
	s.ids[v] = id

	return id
}

func (s *sliceTable) Value(id int32) string {
	if id < 0 || int(id) >= len(s.values) {
		return ""
	}

	return s.values[id]
}

// streamReader hides the concrete reader type so the decoder takes its
// streaming path.
type streamReader struct{ r io.Reader }

func (s streamReader) Read(p []byte) (int, error) { return s.r.Read(p) }

func sampleTree() Tag {
	root := NewCompound()
	for i, v := range allValueTags() {
		if v.IsEmpty() {
			continue
		}
		root.Set(string(rune('a'+i)), v)
	}

	inner := NewCompound()
	inner.Set("empty", Empty())
	inner.Set("nested", ListOf[int16](1, -1, 300).Tag())
	root.Set("inner", inner.Tag())

	lists := NewList()
	_ = lists.Add(ListOf("x", "y").Tag())
	_ = lists.Add(NewList().Tag())
	root.Set("lists", lists.Tag())

	compounds := NewList()
	for i := range 3 {
		c := NewCompound()
		c.Set("i", Int32(int32(i)))
		_ = compounds.Add(c.Tag())
	}
	root.Set("compounds", compounds.Tag())
	root.Set("", String("empty key"))

	return root.Tag()
}

func TestRoundTrip_AllVariants(t *testing.T) {
	for _, v := range allValueTags() {
		t.Run(v.Type().String(), func(t *testing.T) {
			data, err := Marshal(v)
			require.NoError(t, err)

			got, err := Unmarshal(data)
			require.NoError(t, err)
			require.True(t, v.Equal(got), "got %#v", got)
		})
	}
}

func TestRoundTrip_Tree(t *testing.T) {
	tree := sampleTree()

	tests := []struct {
		name string
		opts func() []Option
	}{
		{"inline strings", func() []Option { return nil }},
		{"string table", func() []Option { return []Option{WithStringTable(newSliceTable())} }},
		{"big endian", func() []Option { return []Option{WithBigEndian()} }},
		{"native endian", func() []Option { return []Option{WithNativeEndian()} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts()
			data, err := Marshal(tree, opts...)
			require.NoError(t, err)

			got, err := Unmarshal(data, opts...)
			require.NoError(t, err)
			require.True(t, tree.Equal(got))

			dec, err := NewDecoder(streamReader{bytes.NewReader(data)}, opts...)
			require.NoError(t, err)
			streamed, err := dec.Decode()
			require.NoError(t, err)
			require.True(t, tree.Equal(streamed))
			require.Equal(t, int64(len(data)), dec.Offset())
		})
	}
}

func TestEncode_WireLayout(t *testing.T) {
	c := NewCompound()
	c.Set("a", Uint8(7))

	data, err := Marshal(c.Tag())
	require.NoError(t, err)
	require.Equal(t, []byte{
		15,
		11, 0, 0, 0, 0, 0, 0, 0, // byte length after this field
		1, 0, 0, 0, // count
		1, 0, 0, 0, 'a', // key
		1, 7,
	}, data)

	data, err = Marshal(ListOf[int16](1, -1).Tag())
	require.NoError(t, err)
	require.Equal(t, []byte{
		16,
		9, 0, 0, 0, 0, 0, 0, 0,
		2, 0, 0, 0,
		4,
		1, 0,
		0xFF, 0xFF,
	}, data)

	data, err = Marshal(NewList().Tag())
	require.NoError(t, err)
	require.Equal(t, []byte{16, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, data)

	data, err = Marshal(Char('A'), WithBigEndian())
	require.NoError(t, err)
	require.Equal(t, []byte{13, 0, 'A'}, data)
}

func TestEncode_StringTableIDs(t *testing.T) {
	table := newSliceTable()
	c := NewCompound()
	c.Set("k", String(""))

	data, err := Marshal(c.Tag(), WithStringTable(table))
	require.NoError(t, err)
	require.Equal(t, []byte{
		15,
		13, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 0, // "k" -> id 0
		14,
		0xFF, 0xFF, 0xFF, 0xFF, // "" -> -1
	}, data)

	got, err := Unmarshal(data, WithStringTable(newSliceTable()))
	require.NoError(t, err)
	require.Equal(t, []string{""}, got.Compound().Keys(), "unknown ids decode as empty strings")
}

func TestDecode_Errors(t *testing.T) {
	valid, err := Marshal(sampleTree())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"unknown type", []byte{99}, errs.ErrUnsupportedTagType},
		{"empty input", nil, errs.ErrTruncated},
		{"short int", []byte{6, 1, 2}, errs.ErrTruncated},
		{"truncated tree", valid[:len(valid)-1], errs.ErrTruncated},
		{"trailing bytes", []byte{1, 7, 0}, errs.ErrInvalidLength},
		{"negative length", []byte{15, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}, errs.ErrInvalidLength},
		{"length mismatch", []byte{15, 6, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, errs.ErrInvalidLength},
		{"empty list element type", []byte{16, 5, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0}, errs.ErrUnsupportedTagType},
		{"string length negative", []byte{14, 0xFF, 0xFF, 0xFF, 0xFF}, errs.ErrInvalidLength},
		{"length beyond input", []byte{16, 0, 0, 0, 0x04, 0, 0, 0, 0, 1, 0, 0, 0, 1}, errs.ErrTruncated},
		{"list count beyond payload", []byte{16, 9, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 6, 1, 0, 0, 0}, errs.ErrInvalidLength},
		{"compound count beyond payload", []byte{15, 8, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0}, errs.ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_HugeDeclaredList(t *testing.T) {
	// 60MiB body with 60M Uint8 elements declared, 14 bytes supplied.
	data := []byte{16}
	data = binary.LittleEndian.AppendUint64(data, 60<<20)
	data = binary.LittleEndian.AppendUint32(data, 60_000_000)
	data = append(data, 1)

	_, err := Unmarshal(data)
	require.ErrorIs(t, err, errs.ErrTruncated)

	dec, err := NewDecoder(streamReader{bytes.NewReader(data)})
	require.NoError(t, err)
	_, err = dec.Decode()
	require.ErrorIs(t, err, errs.ErrTruncated)
	require.Equal(t, int64(len(data)), dec.Offset())
}

func TestDecode_TruncatedStream(t *testing.T) {
	data, err := Marshal(sampleTree())
	require.NoError(t, err)

	dec, err := NewDecoder(iotest.OneByteReader(bytes.NewReader(data[:len(data)/2])))
	require.NoError(t, err)
	_, err = dec.Decode()
	require.ErrorIs(t, err, errs.ErrTruncated)
}

func TestDepthLimit(t *testing.T) {
	root := NewCompound()
	cur := root
	for range 5 {
		cur = cur.GetOrCreateCompound("c")
	}

	_, err := Marshal(root.Tag(), WithMaxDepth(3))
	require.ErrorIs(t, err, errs.ErrMaxDepthExceeded)

	data, err := Marshal(root.Tag())
	require.NoError(t, err)
	_, err = Unmarshal(data, WithMaxDepth(3))
	require.ErrorIs(t, err, errs.ErrMaxDepthExceeded)

	_, err = Unmarshal(data, WithMaxDepth(6))
	require.NoError(t, err)
}

func TestOptions_Invalid(t *testing.T) {
	_, err := NewEncoder(WithMaxDepth(0))
	require.ErrorIs(t, err, errs.ErrMaxDepthExceeded)

	_, err = NewDecoder(bytes.NewReader(nil), WithMaxLength(-1))
	require.ErrorIs(t, err, errs.ErrInvalidLength)
}

func TestSkipTag(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	defer enc.Release()

	require.NoError(t, enc.Encode(sampleTree()))
	require.NoError(t, enc.Encode(String("skip me")))
	require.NoError(t, enc.Encode(Float64(1.5)))
	require.NoError(t, enc.Encode(Int32(42)))
	data := append([]byte(nil), enc.Bytes()...)

	readers := map[string]func() io.Reader{
		"memory": func() io.Reader { return bytes.NewReader(data) },
		"stream": func() io.Reader { return streamReader{bytes.NewReader(data)} },
	}

	for name, mk := range readers {
		t.Run(name, func(t *testing.T) {
			dec, err := NewDecoder(mk())
			require.NoError(t, err)

			require.NoError(t, dec.SkipTag())
			require.NoError(t, dec.SkipTag())
			require.NoError(t, dec.SkipTag())

			got, err := dec.Decode()
			require.NoError(t, err)
			require.Equal(t, int32(42), Value(got, int32(0)))
			require.Equal(t, int64(len(data)), dec.Offset())

			require.ErrorIs(t, dec.SkipTag(), errs.ErrTruncated)
		})
	}
}

func TestSkip_PastEnd(t *testing.T) {
	dec, err := NewDecoder(bytes.NewReader([]byte{1, 2, 3}))
	require.NoError(t, err)
	require.ErrorIs(t, dec.Skip(4), errs.ErrTruncated)
	require.NoError(t, dec.Skip(3))
}

// seekReader is seekable without being a *bytes.Reader, like an open file.
type seekReader struct{ io.ReadSeeker }

func TestSkip_SeekerPastEnd(t *testing.T) {
	data, err := Marshal(sampleTree())
	require.NoError(t, err)
	short := data[:len(data)-3]

	dec, err := NewDecoder(seekReader{bytes.NewReader(short)})
	require.NoError(t, err)
	require.ErrorIs(t, dec.SkipTag(), errs.ErrTruncated)

	dec, err = NewDecoder(seekReader{bytes.NewReader(data)})
	require.NoError(t, err)
	require.NoError(t, dec.SkipTag())
	require.Equal(t, int64(len(data)), dec.Offset())
	require.ErrorIs(t, dec.Skip(1), errs.ErrTruncated)
	require.Equal(t, int64(len(data)), dec.Offset())
}

func TestEncoder_Reset(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	defer enc.Release()

	require.NoError(t, enc.Encode(Int64(1)))
	require.Equal(t, 9, enc.Len())

	enc.Reset()
	require.Equal(t, 0, enc.Len())
	require.NoError(t, enc.Encode(Bool(true)))
	require.Equal(t, []byte{12, 1}, enc.Bytes())
}
