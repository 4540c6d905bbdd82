// Package unsafehelpers centralises the unavoidable uses of the `unsafe`
// standard-library package so the rest of bones stays auditable. Every
// helper documents its pre/post-conditions.
//
// These helpers deliberately step outside the Go memory-safety model for the
// sake of zero-copy schema-driven layout work (SchemaBox, SchemaVec, field
// offset computation). Use only inside this repository.
//
// © 2025 bones authors. MIT License.
package unsafehelpers

import "unsafe"

// BytesToString converts a byte slice to a string without allocating. The
// caller must guarantee b is never modified for the lifetime of the result.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// StringToBytes reinterprets string data as a byte slice. The result must be
// treated as read-only.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// PtrSlice converts a *T pointer and element count into a []T without
// copying.
func PtrSlice[T any](ptr *T, n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice(ptr, n)
}

// ByteSliceFrom returns a []byte view of raw memory starting at ptr with the
// given length. Caller must ensure the block is at least length bytes.
func ByteSliceFrom(ptr unsafe.Pointer, length uintptr) []byte {
	if length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), length)
}

// AlignUp rounds x up to the nearest multiple of align, which must be a
// power of two.
func AlignUp(x, align uintptr) uintptr {
	if align == 0 {
		return x
	}
	return (x + align - 1) &^ (align - 1)
}

// IsPowerOfTwo returns true if x has exactly one bit set.
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && (x&(x-1)) == 0
}

// Add offsets a pointer by n bytes. Caller guarantees the result stays
// within the bounds of the originating allocation.
func Add(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) + n)
}

// CopyBytes copies n bytes from src to dst using a byte-slice view. Ranges
// must not overlap (matches copy's stdlib semantics for overlapping src<dst
// growth in Resizable, which always copies into freshly allocated memory).
func CopyBytes(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	copy(ByteSliceFrom(dst, n), ByteSliceFrom(src, n))
}

// ZeroBytes zeroes n bytes starting at p.
func ZeroBytes(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	b := ByteSliceFrom(p, n)
	for i := range b {
		b[i] = 0
	}
}
