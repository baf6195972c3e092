package protocol

import "bytes"

// DecodeUint reads width bytes of b as an unsigned integer. Widths above
// eight bytes are not representable and only the low eight are kept.
func DecodeUint(b []byte, width int, littleEndian bool) uint64 {
	if width > len(b) {
		width = len(b)
	}
	var v uint64
	for i := 0; i < width; i++ {
		var x byte
		if littleEndian {
			x = b[i]
		} else {
			x = b[width-i-1]
		}
		v |= uint64(x) << (uint(i) * 8)
	}
	return v
}

// Uint32LE reads the first four bytes of b.
func Uint32LE(b []byte) uint32 {
	return uint32(DecodeUint(b, LengthLen, true))
}

// TrimName strips the zero padding from a name field.
func TrimName(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
