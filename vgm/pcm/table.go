package pcm

import (
	"fmt"

	"github.com/valerio/go-vgm/vgm/bit"
)

const tableHeader = 6

// Table is a decompression table (data block type 0x7F).
type Table struct {
	Codec   uint8
	SubType uint8
	BitDec  uint8
	BitCmp  uint8
	Entries []uint16
}

// ParseTable decodes a 0x7F data block payload. Entries are one byte wide
// when BitDec is at most 8, otherwise two bytes little-endian.
func ParseTable(raw []byte) (*Table, error) {
	if len(raw) < tableHeader {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadTable, len(raw))
	}
	t := &Table{
		Codec:   raw[0],
		SubType: raw[1],
		BitDec:  raw[2],
		BitCmp:  raw[3],
	}
	count := int(bit.LE16(raw[4:]))
	width := valueSize(t.BitDec)
	body := raw[tableHeader:]
	if len(body) < count*width {
		return nil, fmt.Errorf("%w: %d entries need %d bytes, have %d", ErrBadTable, count, count*width, len(body))
	}

	t.Entries = make([]uint16, count)
	for i := range t.Entries {
		if width == 1 {
			t.Entries[i] = uint16(body[i])
		} else {
			t.Entries[i] = bit.LE16(body[2*i:])
		}
	}
	return t, nil
}

func (t *Table) lookup(i uint32) uint16 {
	if int(i) >= len(t.Entries) {
		return 0
	}
	return t.Entries[i]
}

// valueSize is the number of output bytes per decoded value.
func valueSize(bitDec uint8) int {
	if bitDec <= 8 {
		return 1
	}
	return 2
}
