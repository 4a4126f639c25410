// Package header parses the fixed-layout VGM file header.
//
// The header is read once into a zero-filled image of MaxSize bytes. Only the
// first Size() bytes are taken from the file (fewer if the file is shorter), so
// fields a file's version does not declare always read as zero.
package header

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/valerio/go-vgm/vgm/bit"
)

const (
	// MinSize is the header length of every VGM version before 1.50.
	MinSize = 0x40
	// MaxSize is the largest header this package understands (VGM 1.71).
	MaxSize = 0x100
)

// Field offsets, as documented by the VGM 1.71 format description.
const (
	offMagic          = 0x00
	offEOF            = 0x04
	offVersion        = 0x08
	offGD3            = 0x14
	offTotalSamples   = 0x18
	offLoop           = 0x1C
	offLoopSamples    = 0x20
	offRate           = 0x24
	offSNFeedback     = 0x28
	offSNShiftWidth   = 0x2A
	offSNFlags        = 0x2B
	offData           = 0x34
	offAYType         = 0x78
	offAYFlags        = 0x79
	offVolumeModifier = 0x7C
	offLoopBase       = 0x7E
	offLoopModifier   = 0x7F
	offExtraHeader    = 0xBC
)

const (
	clockMask   = 0x3FFFFFFF
	dualBit     = 30
	variantBit  = 31
	loopNone    = 0xFFFFFFFF
	defaultRate = 44100
)

var magic = []byte("Vgm ")

var (
	ErrTooSmall   = errors.New("vgm header: file too small")
	ErrBadMagic   = errors.New("vgm header: bad magic")
	ErrDataOffset = errors.New("vgm header: data offset outside file")
)

// Clock is a decoded per-chip clock field.
type Clock struct {
	Hz      uint32
	Dual    bool // a second instance of the chip is present
	Variant bool // chip-specific variant flag (YM2610B, T6W28, K052539, ...)
}

// Header is an immutable, parsed VGM header.
type Header struct {
	raw  [MaxSize]byte
	size int

	Version      uint32
	TotalSamples uint32
	LoopSamples  uint32
	Rate         uint32

	// Absolute file offsets. LoopOffset and GD3Offset are zero when absent.
	EOFOffset  uint32
	GD3Offset  uint32
	LoopOffset uint32
	DataOffset uint32

	SNFeedback     uint16
	SNShiftWidth   uint8
	SNFlags        uint8
	AYType         uint8
	AYFlags        uint8
	VolumeModifier uint8
	LoopBase       int8
	LoopModifier   uint8
}

// Parse decodes the header at the start of data. It fails only when the data
// cannot be a VGM file at all.
func Parse(data []byte) (*Header, error) {
	if len(data) < MinSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(data))
	}
	if !bytes.Equal(data[offMagic:offMagic+4], magic) {
		return nil, ErrBadMagic
	}

	h := &Header{}
	h.Version = bit.LE32(data[offVersion:])
	h.size = declaredSize(h.Version, bit.LE32(data[offData:]))
	copy(h.raw[:], data[:min(h.size, len(data))])

	h.TotalSamples = h.u32(offTotalSamples)
	h.LoopSamples = h.u32(offLoopSamples)
	h.Rate = h.u32(offRate)
	h.SNFeedback = bit.LE16(h.raw[offSNFeedback:])
	h.SNShiftWidth = h.raw[offSNShiftWidth]
	h.SNFlags = h.raw[offSNFlags]
	h.AYType = h.raw[offAYType]
	h.AYFlags = h.raw[offAYFlags]
	h.VolumeModifier = h.raw[offVolumeModifier]
	h.LoopBase = int8(h.raw[offLoopBase])
	h.LoopModifier = h.raw[offLoopModifier]

	if h.Version < 0x110 {
		h.SNFeedback = 0x0009
		h.SNShiftWidth = 16
	}

	h.EOFOffset = relative(h.u32(offEOF), offEOF)
	h.GD3Offset = relative(h.u32(offGD3), offGD3)
	if loop := h.u32(offLoop); loop != loopNone {
		h.LoopOffset = relative(loop, offLoop)
	}

	h.DataOffset = MinSize
	if h.Version >= 0x150 {
		if rel := h.u32(offData); rel != 0 {
			off := uint64(rel) + offData
			if off < MinSize || off > math.MaxUint32 {
				return nil, fmt.Errorf("%w: relative 0x%X", ErrDataOffset, rel)
			}
			h.DataOffset = uint32(off)
		}
	}
	if int(h.DataOffset) >= len(data) {
		return nil, fmt.Errorf("%w: 0x%X >= 0x%X", ErrDataOffset, h.DataOffset, len(data))
	}

	return h, nil
}

// declaredSize derives the header length from the version and clamps it.
func declaredSize(version, dataRel uint32) int {
	if version < 0x150 || dataRel == 0 {
		return MinSize
	}
	size := int(dataRel) + offData
	if dataRel > MaxSize {
		size = MaxSize
	}
	return max(MinSize, min(size, MaxSize))
}

func relative(v uint32, base uint32) uint32 {
	if v == 0 {
		return 0
	}
	return v + base
}

func (h *Header) u32(off int) uint32 {
	return bit.LE32(h.raw[off:])
}

// Size returns the version-derived header length, in [MinSize, MaxSize].
func (h *Header) Size() int {
	return h.size
}

// ClockAt decodes the 32 bit clock field at the given header offset. Offsets
// outside the declared size read as zero.
func (h *Header) ClockAt(off int) Clock {
	if off < 0 || off+4 > MaxSize {
		return Clock{}
	}
	v := h.u32(off)
	return Clock{
		Hz:      v & clockMask,
		Dual:    bit.IsSet32(dualBit, v),
		Variant: bit.IsSet32(variantBit, v),
	}
}

// Byte returns the raw header byte at off, zero outside the declared size.
func (h *Header) Byte(off int) uint8 {
	if off < 0 || off >= MaxSize {
		return 0
	}
	return h.raw[off]
}

// SampleRate returns the playback rate the file was authored for. It is
// informational only; VGM timing is always in 44100 Hz ticks.
func (h *Header) SampleRate() uint32 {
	if h.Rate == 0 {
		return defaultRate
	}
	return h.Rate
}

// HasLoop reports whether the header declares a loop point.
func (h *Header) HasLoop() bool {
	return h.LoopOffset != 0 && h.LoopSamples != 0
}

// ExtraHeaderOffset returns the absolute offset of the 1.70+ extra header, or 0.
func (h *Header) ExtraHeaderOffset() uint32 {
	if h.Version < 0x170 {
		return 0
	}
	return relative(h.u32(offExtraHeader), offExtraHeader)
}

// StreamEnd returns the end of the command stream inside a buffer of n bytes.
func (h *Header) StreamEnd(n int) int {
	end := n
	if h.EOFOffset > h.DataOffset && int(h.EOFOffset) < end {
		end = int(h.EOFOffset)
	}
	return end
}

// VersionString formats the BCD version, e.g. "1.71".
func (h *Header) VersionString() string {
	return fmt.Sprintf("%X.%02X", h.Version>>8, h.Version&0xFF)
}
