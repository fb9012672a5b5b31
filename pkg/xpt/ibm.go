package xpt

import (
	"encoding/binary"
	"math"
)

// IBMToIEEE converts a big-endian IBM System/360 hexadecimal double
// (1-bit sign, 7-bit excess-64 base-16 exponent, 56-bit fraction) to an
// IEEE 754 double. The conversion is total: out-of-range inputs produce
// whatever bit pattern the arithmetic yields.
func IBMToIEEE(raw uint64) float64 {
	if raw == 0 {
		return 0
	}

	sign := raw & 0x8000000000000000
	exponent := (raw & 0x7f00000000000000) >> 56
	mantissa := raw & 0x00ffffffffffffff

	// Normalize on the leading bit of the first hex digit.
	var shift uint64
	switch {
	case raw&0x0080000000000000 != 0:
		shift = 3
	case raw&0x0040000000000000 != 0:
		shift = 2
	case raw&0x0020000000000000 != 0:
		shift = 1
	}

	mantissa >>= shift
	mantissa &= 0xffefffffffffffff // drop the implicit bit

	exponent -= 65
	exponent <<= 2
	exponent += shift + 1023

	return math.Float64frombits(sign | (exponent&0x7ff)<<52 | mantissa)
}

// decodeNumeric decodes a numeric field of 2 to 8 bytes. Short fields are
// truncated doubles and get their low-order bytes back as zeros.
func decodeNumeric(field []byte, missingAsNaN bool) float64 {
	if missingAsNaN && isMissing(field) {
		return math.NaN()
	}
	var raw [8]byte
	copy(raw[:], field)
	return IBMToIEEE(binary.BigEndian.Uint64(raw[:]))
}

// isMissing reports whether a numeric field holds a SAS missing value: '.',
// '_' or 'A'..'Z' followed only by zero bytes.
func isMissing(field []byte) bool {
	if len(field) == 0 {
		return false
	}
	c := field[0]
	if c != '.' && c != '_' && (c < 'A' || c > 'Z') {
		return false
	}
	for _, b := range field[1:] {
		if b != 0 {
			return false
		}
	}
	return true
}
