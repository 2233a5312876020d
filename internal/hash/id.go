// Package hash computes the 64-bit identities used to index palette values.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given canonical key.
func ID(key string) uint64 {
	return xxhash.Sum64String(key)
}
