package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// LE16 reads a little-endian 16 bit value from the start of b.
// Missing bytes read as zero.
func LE16(b []byte) uint16 {
	return uint16(at(b, 0)) | uint16(at(b, 1))<<8
}

// LE24 reads a little-endian 24 bit value from the start of b.
func LE24(b []byte) uint32 {
	return uint32(at(b, 0)) | uint32(at(b, 1))<<8 | uint32(at(b, 2))<<16
}

// LE32 reads a little-endian 32 bit value from the start of b.
func LE32(b []byte) uint32 {
	return uint32(at(b, 0)) | uint32(at(b, 1))<<8 | uint32(at(b, 2))<<16 | uint32(at(b, 3))<<24
}

// BE16 reads a big-endian 16 bit value from the start of b.
func BE16(b []byte) uint16 {
	return Combine(at(b, 0), at(b, 1))
}

func at(b []byte, i int) uint8 {
	if i < len(b) {
		return b[i]
	}
	return 0
}

// IsSet will check if the bit at the specified index is Set to 1 or not.
func IsSet(index, value uint8) bool {
	return ((value >> index) & 1) == 1
}

// IsSet32 is IsSet for 32 bit fields (header clock flags).
func IsSet32(index uint8, value uint32) bool {
	return ((value >> index) & 1) == 1
}

// Clear will return the passed byte with the bit at the specified index Set to 0.
func Clear(index, value uint8) uint8 {
	return value & ^(1 << index)
}

// Set will return the passed byte with the bit at the specified index Set to 1.
func Set(index, value uint8) uint8 {
	return value | (1 << index)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// ExtractBits extracts bits from highBit to lowBit (inclusive)
// Example: ExtractBits(0b11010110, 6, 4) -> 0b101 (extracts bits 6, 5, 4)
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	shift := lowBit
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> shift) & mask
}

// Mask returns a mask with the low n bits set, n in [0, 32].
func Mask(n uint8) uint32 {
	if n >= 32 {
		return 0xFFFFFFFF
	}
	return (1 << n) - 1
}

// Clamp16 saturates a mixed sample to the signed 16 bit range.
func Clamp16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
