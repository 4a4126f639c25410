package stream

import "github.com/valerio/go-vgm/vgm/bit"

// Opcodes with a meaning outside plain register writes.
const (
	OpSN76489Dual   = 0x30
	OpGGStereoDual  = 0x3F
	OpGGStereo      = 0x4F
	OpSN76489       = 0x50
	OpWaitN         = 0x61
	OpWait735       = 0x62
	OpWait882       = 0x63
	OpEnd           = 0x66
	OpDataBlock     = 0x67
	OpPCMRAMWrite   = 0x68
	OpDACSetup      = 0x90
	OpDACSetData    = 0x91
	OpDACFrequency  = 0x92
	OpDACStart      = 0x93
	OpDACStop       = 0x94
	OpDACStartBlock = 0x95
	OpAY8910        = 0xA0
	OpPCMSeek       = 0xE0
)

const (
	// DataBlockHeader is the fixed part of 0x67: 67 66 tt ssssssss.
	DataBlockHeader = 7
	// DataBlockSizeMask strips the "second chip" flag from a data block size.
	DataBlockSizeMask = 0x7FFFFFFF
)

// nibbleLength is the command length, opcode included, by high nibble.
// Reserved ranges take their documented operand counts so unknown commands
// can be skipped.
var nibbleLength = [16]int{1, 1, 1, 2, 2, 3, 1, 1, 1, 1, 3, 3, 4, 4, 5, 5}

// fixedLength overrides nibbleLength for commands whose length differs from
// the rest of their row.
var fixedLength = map[uint8]int{
	OpSN76489:       2,
	OpWaitN:         3,
	OpWait735:       1,
	OpWait882:       1,
	OpEnd:           1,
	OpPCMRAMWrite:   12,
	OpDACSetup:      5,
	OpDACSetData:    5,
	OpDACFrequency:  6,
	OpDACStart:      11,
	OpDACStop:       2,
	OpDACStartBlock: 5,
}

// Length returns the full length of the command starting at b[0], or
// ok=false when b is too short to know it (only possible for 0x67).
func Length(b []byte) (n int, ok bool) {
	if len(b) == 0 {
		return 0, false
	}
	op := b[0]
	if op == OpDataBlock {
		if len(b) < DataBlockHeader {
			return 0, false
		}
		size := bit.LE32(b[3:]) & DataBlockSizeMask
		return DataBlockHeader + int(size), true
	}
	if n, found := fixedLength[op]; found {
		return n, true
	}
	return nibbleLength[op>>4], true
}

// IsWait reports whether op advances virtual time.
func IsWait(op uint8) bool {
	switch {
	case op == OpWaitN, op == OpWait735, op == OpWait882:
		return true
	case op >= 0x70 && op <= 0x8F:
		return true
	}
	return false
}

// Wait returns the number of VGM ticks a command waits for.
func Wait(c Command) int {
	op := c.Op()
	switch {
	case op == OpWaitN:
		return int(bit.LE16(c.Data[1:]))
	case op == OpWait735:
		return 735
	case op == OpWait882:
		return 882
	case op >= 0x70 && op <= 0x7F:
		return int(op&0x0F) + 1
	case op >= 0x80 && op <= 0x8F:
		return int(op & 0x0F)
	}
	return 0
}
