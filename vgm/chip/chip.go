// Package chip defines the contract every emulated sound chip implements,
// the table of chip families a VGM file can address and a few chips that
// produce no sound (for tests, tracing and hosts without synthesizers).
package chip

import "github.com/valerio/go-vgm/vgm/blip"

// Chip is one emulated sound chip instance.
//
// Times passed to RunUntil and EndFrame are in the chip's native domain and
// relative to the current frame. Stream domain chips render interleaved
// stereo frames into the buffer given to BeginFrame; blip domain chips add
// deltas to the bus given to Output and close their frame in EndFrame.
type Chip interface {
	Enable(on bool)
	Enabled() bool
	Reset()
	SetRate(sampleRate float64, clock uint32) error
	Setup(ratio, rolloff, gain float64)
	TrebleEq(treble float64)
	MuteVoices(mask int)

	Write(port, reg, data uint8)

	// RunUntil advances the chip to time t and returns the number of
	// samples it produced.
	RunUntil(t int) int
	BeginFrame(out []int16)
	EndFrame(t int)
	Output(bus *blip.Bus)
}

// ROMLoader is implemented by chips that accept ROM dumps (data blocks
// 0x80-0xBF).
type ROMLoader interface {
	LoadROM(romType uint8, total, start uint32, data []byte)
}

// RAMWriter is implemented by chips with RAM the stream writes directly
// (data blocks 0xC0-0xFF and command 0x68).
type RAMWriter interface {
	WriteRAM(ramType uint8, start uint32, data []byte)
}

// Factory builds the chip for one family instance (id 0 or 1).
type Factory func(f Family, id int) Chip

// NullFactory builds silent chips for every family.
func NullFactory(Family, int) Chip {
	return &Null{}
}
