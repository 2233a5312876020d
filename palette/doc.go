// Package palette interns repeated values into small dense integer ids.
//
// Two palettes are provided:
//   - Strings deduplicates compound keys and string values. It satisfies
//     tag.StringTable, so an Encoder or Decoder configured with
//     tag.WithStringTable writes int32 ids instead of inline strings.
//   - Values interns arbitrary keyed values (block states) for region files.
//     Id 0 is always the default value given to NewValues.
//
// Palettes are built per encode or decode session and are never shared
// between sessions. None of the types are safe for concurrent use.
package palette
