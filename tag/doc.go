// Package tag implements the self-describing binary tag tree used by every
// worldstore file.
//
// A Tag is a tagged union over an absent value (Empty), thirteen fixed-width
// primitives, String, Compound (string-keyed map) and List (homogeneous
// sequence). Every tag on the wire starts with its one-byte format.TagType;
// Compound and List payloads carry an int64 byte length so a reader can skip
// them without parsing.
//
// # Basic Usage
//
//	root := tag.NewCompound()
//	root.Set("name", tag.String("overworld"))
//	root.Set("seed", tag.Int64(42))
//
//	data, err := tag.Marshal(root.Tag())
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := tag.Unmarshal(data)
//	seed := tag.Get(decoded.Compound(), "seed", int64(0))
//
// # String Tables
//
// Strings (including Compound keys) can be written as int32 ids through a
// StringTable instead of inline bytes. The palette package provides the
// implementation; this package only depends on the StringTable contract.
//
// # Thread Safety
//
// Value tags are immutable. Compound and List are mutable in place and are not
// safe for concurrent mutation. Encoder and Decoder instances are not thread-safe.
package tag
