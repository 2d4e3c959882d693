package buffer

import "unicode/utf8"

// DecodeUnits decodes the first rune of p and reports its length in bytes
// and in UTF-16 code units. Invalid bytes count as one byte and one unit,
// the same way ranging over a string treats them.
func DecodeUnits(p []byte) (size, units int) {
	r, size := utf8.DecodeRune(p)
	if r >= 0x10000 {
		return size, 2
	}
	return size, 1
}

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
