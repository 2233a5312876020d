package tag

// Scalar lists the Go types that map one-to-one onto value tags.
// Char is deliberately absent: uint16 always maps to Uint16.
type Scalar interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 |
		float32 | float64 | Decimal128 | bool | string
}

// Of wraps v in the value tag matching its Go type.
func Of[T Scalar](v T) Tag {
	switch x := any(v).(type) {
	case uint8:
		return Uint8(x)
	case int8:
		return Int8(x)
	case uint16:
		return Uint16(x)
	case int16:
		return Int16(x)
	case uint32:
		return Uint32(x)
	case int32:
		return Int32(x)
	case uint64:
		return Uint64(x)
	case int64:
		return Int64(x)
	case float32:
		return Float32(x)
	case float64:
		return Float64(x)
	case Decimal128:
		return Decimal(x)
	case bool:
		return Bool(x)
	case string:
		return String(x)
	default:
		return Empty()
	}
}

// As extracts a T from t; ok is false when t holds a different type.
func As[T Scalar](t Tag) (T, bool) {
	var zero T
	var (
		v  any
		ok bool
	)

	switch any(zero).(type) {
	case uint8:
		v, ok = t.AsUint8()
	case int8:
		v, ok = t.AsInt8()
	case uint16:
		v, ok = t.AsUint16()
	case int16:
		v, ok = t.AsInt16()
	case uint32:
		v, ok = t.AsUint32()
	case int32:
		v, ok = t.AsInt32()
	case uint64:
		v, ok = t.AsUint64()
	case int64:
		v, ok = t.AsInt64()
	case float32:
		v, ok = t.AsFloat32()
	case float64:
		v, ok = t.AsFloat64()
	case Decimal128:
		v, ok = t.AsDecimal()
	case bool:
		v, ok = t.AsBool()
	case string:
		v, ok = t.AsString()
	}
	if !ok {
		return zero, false
	}

	return v.(T), true
}

// Value extracts a T from t, or returns def when t holds a different type.
func Value[T Scalar](t Tag, def T) T {
	if v, ok := As[T](t); ok {
		return v
	}

	return def
}

// Get returns the T stored under key in c, or def when the key is absent or
// holds another type.
func Get[T Scalar](c *Compound, key string, def T) T {
	return Value(c.Get(key), def)
}

// ListOf builds a List from values of one Go type.
func ListOf[T Scalar](values ...T) *List {
	l := NewList()
	for _, v := range values {
		// a single Go type always yields a single tag type
		_ = l.Add(Of(v))
	}

	return l
}

// Values collects the T elements of l, skipping elements of another type.
func Values[T Scalar](l *List) []T {
	out := make([]T, 0, l.Len())
	for _, item := range l.All() {
		if v, ok := As[T](item); ok {
			out = append(out, v)
		}
	}

	return out
}
