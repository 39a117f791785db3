// Package safeconv converts between integer types and panics when the value
// does not fit, for conversions whose range is guaranteed by the caller.
package safeconv

import "math"

// MustIntToUint32 converts an arena size or index to a node handle.
func MustIntToUint32(v int) uint32 {
	if v < 0 || v > math.MaxUint32 {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// MustIntToUint64 converts a non-negative size, e.g. a byte count.
func MustIntToUint64(v int) uint64 {
	if v < 0 {
		panic("safeconv: negative int to uint64 conversion")
	}

	return uint64(v)
}
