package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagTypeClassification(t *testing.T) {
	tests := []struct {
		typ        TagType
		name       string
		size       int
		primitive  bool
		collection bool
	}{
		{TypeEmpty, "Empty", 0, false, false},
		{TypeUint8, "Uint8", 1, true, false},
		{TypeInt16, "Int16", 2, true, false},
		{TypeInt32, "Int32", 4, true, false},
		{TypeFloat64, "Float64", 8, true, false},
		{TypeDecimal128, "Decimal128", 16, true, false},
		{TypeBool, "Bool", 1, true, false},
		{TypeChar, "Char", 2, true, false},
		{TypeString, "String", -1, false, false},
		{TypeCompound, "Compound", -1, false, true},
		{TypeList, "List", -1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.typ.Valid())
			require.Equal(t, tt.name, tt.typ.String())
			require.Equal(t, tt.size, tt.typ.FixedSize())
			require.Equal(t, tt.primitive, tt.typ.IsPrimitive())
			require.Equal(t, tt.collection, tt.typ.IsCollection())
		})
	}
}

func TestTagTypeUnknown(t *testing.T) {
	unknown := TagType(17)
	require.False(t, unknown.Valid())
	require.Equal(t, "Unknown", unknown.String())
	require.Equal(t, -1, unknown.FixedSize())
}
