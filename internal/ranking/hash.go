package ranking

import "unicode/utf16"

// Cyrb53 returns the 53-bit cyrb53 hash of s.
//
// It walks UTF-16 code units and uses wrapping 32-bit multiplication, so for any
// (s, seed) it yields the same value as the browser implementation of the hash.
func Cyrb53(s string, seed uint32) uint64 {
	h1 := uint32(0xdeadbeef) ^ seed
	h2 := uint32(0x41c6ce57) ^ seed

	for _, ch := range utf16.Encode([]rune(s)) {
		h1 = (h1 ^ uint32(ch)) * 2654435761
		h2 = (h2 ^ uint32(ch)) * 1597334677
	}

	h1 = (h1^h1>>16)*2246822507 ^ (h2^h2>>13)*3266489909
	h2 = (h2^h2>>16)*2246822507 ^ (h1^h1>>13)*3266489909

	return uint64(h2&0x1fffff)<<32 | uint64(h1)
}
