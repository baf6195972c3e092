package protocol

// EncodeUint writes the low width bytes of value. Bits above width*8 are
// dropped without error; callers that care must range-check first.
func EncodeUint(value uint64, width int, littleEndian bool) []byte {
	buf := make([]byte, width)
	for i := 0; i < width; i++ {
		b := byte(value >> (uint(i) * 8))
		if littleEndian {
			buf[i] = b
		} else {
			buf[width-i-1] = b
		}
	}
	return buf
}

// PutUint32LE writes v into the first four bytes of b.
func PutUint32LE(b []byte, v uint32) {
	copy(b[:LengthLen], EncodeUint(uint64(v), LengthLen, true))
}

// PadName returns name right-padded with zero bytes to NameLen.
func PadName(name []byte) ([]byte, error) {
	return PadNameWidth(name, NameLen)
}

// PadNameWidth is PadName for an arbitrary field width.
func PadNameWidth(name []byte, width int) ([]byte, error) {
	if len(name) > width {
		return nil, ErrNameTooLong
	}
	buf := make([]byte, width)
	copy(buf, name)
	return buf, nil
}
