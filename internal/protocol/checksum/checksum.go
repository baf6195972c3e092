// Package checksum implements the CRC32 accumulator used on every LiNa frame.
package checksum

// Polynomial is the reflected IEEE 802.3 polynomial.
const Polynomial uint32 = 0xEDB88320

const initial uint32 = 0xFFFFFFFF

// CRC32 is a stateful table-driven CRC-32/ISO-HDLC accumulator.
// Feed order matters: name field, length field, then payload.
type CRC32 struct {
	table [256]uint32
	value uint32
}

// New builds the lookup table and returns a reset accumulator.
func New() *CRC32 {
	c := &CRC32{value: initial}
	for i := range c.table {
		v := uint32(i)
		for bit := 0; bit < 8; bit++ {
			if v&1 == 1 {
				v = (v >> 1) ^ Polynomial
			} else {
				v >>= 1
			}
		}
		c.table[i] = v
	}
	return c
}

// Update folds b into the accumulator.
func (c *CRC32) Update(b []byte) {
	v := c.value
	for _, x := range b {
		v = (v >> 8) ^ c.table[byte(v)^x]
	}
	c.value = v
}

// Write implements io.Writer so the accumulator can sit behind an io.MultiWriter.
func (c *CRC32) Write(b []byte) (int, error) {
	c.Update(b)
	return len(b), nil
}

// Finalize returns the published checksum and resets the accumulator.
func (c *CRC32) Finalize() uint32 {
	out := ^c.value
	c.value = initial
	return out
}

// Reset discards everything fed since the last Finalize.
func (c *CRC32) Reset() {
	c.value = initial
}

// Sum returns the checksum of the concatenation of parts.
func Sum(parts ...[]byte) uint32 {
	c := New()
	for _, p := range parts {
		c.Update(p)
	}
	return c.Finalize()
}
