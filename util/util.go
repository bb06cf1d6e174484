// Package util contains helper functions used across the kernel.
package util

import "math/bits"

// Int is satisfied by all built-in integer types.
type Int interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Min returns the smaller of a and b.
func Min[T Int](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T Int](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T Int](v, lo, hi T) T {
	return Max(lo, Min(v, hi))
}

// Ffs returns the index of the lowest set bit in w, or -1 if w is zero.
func Ffs(w uint64) int {
	if w == 0 {
		return -1
	}
	return bits.TrailingZeros64(w)
}
