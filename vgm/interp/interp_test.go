package interp

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-vgm/vgm/chip"
	"github.com/valerio/go-vgm/vgm/header"
	"github.com/valerio/go-vgm/vgm/stream"
)

const dataStart = 0x100

// file builds a 1.71 image with the stream at 0x100. loop is an offset into
// cmds, or -1 for no loop.
func file(loop int, cmds ...byte) []byte {
	b := make([]byte, dataStart+len(cmds))
	copy(b, "Vgm ")
	le := binary.LittleEndian
	le.PutUint32(b[0x04:], uint32(len(b)-0x04))
	le.PutUint32(b[0x08:], 0x171)
	le.PutUint32(b[0x0C:], 3579545)
	le.PutUint32(b[0x2C:], 7670453)
	le.PutUint32(b[0x34:], dataStart-0x34)
	if loop >= 0 {
		le.PutUint32(b[0x1C:], uint32(dataStart+loop-0x1C))
		le.PutUint32(b[0x20:], 735)
	}
	copy(b[dataStart:], cmds)
	return b
}

type fixture struct {
	in  *Interp
	rec *chip.RecorderFactory
}

func newFixture(t *testing.T, data []byte, opts ...Option) *fixture {
	t.Helper()
	hdr, err := header.Parse(data)
	require.NoError(t, err)

	rf := chip.NewRecorderFactory()
	rack := chip.NewRack(rf.New)
	rack.Chip(chip.SN76489, 0).Enable(true)
	rack.Chip(chip.YM2612, 0).Enable(true)

	in := New(data, hdr, rack, opts...)
	tb := in.Timebase()
	tb.Stream = Conv{Factor: 1 << TimeBits}
	tb.Blip[chip.BusPSG] = Conv{Factor: 1 << TimeBits}
	return &fixture{in: in, rec: rf}
}

func (f *fixture) events(fam chip.Family) []chip.Event {
	return f.rec.Get(fam, 0).Events
}

func TestRunCarriesOvershoot(t *testing.T) {
	f := newFixture(t, file(-1,
		0x61, 0x10, 0x00,
		0x50, 0x9F,
		0x66,
	))

	assert.Equal(t, 10, f.in.Run(10))
	assert.Equal(t, 6, f.in.Time())
	assert.False(t, f.in.Ended())
	f.rec.Get(chip.SN76489, 0).EndFrame(10)

	f.in.Run(10)
	require.Len(t, f.events(chip.SN76489), 1)
	assert.Equal(t, chip.Event{Family: chip.SN76489, Time: 16, Data: 0x9F}, f.events(chip.SN76489)[0])
	assert.True(t, f.in.Ended())
	assert.Equal(t, int64(20), f.in.Elapsed())
	assert.Nil(t, f.in.Warning())
}

func TestZeroLengthLoopTerminates(t *testing.T) {
	f := newFixture(t, file(0,
		0x50, 0x9F,
		0x66,
	))

	f.in.Run(1000)
	assert.True(t, f.in.Ended())
	assert.Equal(t, 1, f.in.Loops())
	assert.Equal(t, -1, f.in.LoopStart())
	assert.True(t, errors.Is(f.in.Warning(), ErrZeroLengthLoop))
	assert.Len(t, f.events(chip.SN76489), 2)
}

func TestLoopJumps(t *testing.T) {
	f := newFixture(t, file(0,
		0x62,
		0x66,
	))

	f.in.Run(3 * 735)
	assert.Equal(t, 2, f.in.Loops())
	assert.False(t, f.in.Ended())
	assert.Equal(t, dataStart, f.in.LoopStart())
	assert.Nil(t, f.in.Warning())
}

func TestLoopLimit(t *testing.T) {
	f := newFixture(t, file(0, 0x62, 0x66), WithLoopLimit(1))

	f.in.Run(10000)
	assert.Equal(t, 1, f.in.Loops())
	assert.True(t, f.in.Ended())
}

func TestUnknownOpcodeIsSkipped(t *testing.T) {
	f := newFixture(t, file(-1,
		0x41, 0xFF,
		0xC9, 0x01, 0x02, 0x03,
		0x50, 0x9F,
		0x66,
	))

	f.in.Run(100)
	assert.True(t, errors.Is(f.in.Warning(), ErrUnknownOpcode))
	assert.Equal(t, 2, f.in.Warnings())
	assert.Len(t, f.events(chip.SN76489), 1)
	assert.True(t, f.in.Ended())
}

func TestTruncatedStreamStops(t *testing.T) {
	f := newFixture(t, file(-1,
		0x50, 0x9F,
		0x61, 0x10,
	))

	f.in.Run(100)
	assert.True(t, f.in.Ended())
	assert.True(t, errors.Is(f.in.Warning(), stream.ErrTruncated))
	assert.Len(t, f.events(chip.SN76489), 1)

	// Further runs are silence.
	f.in.Run(100)
	assert.Equal(t, int64(200), f.in.Elapsed())
}

func TestBankDACWrites(t *testing.T) {
	f := newFixture(t, file(-1,
		0x67, 0x66, 0x00, 0x03, 0x00, 0x00, 0x00, 0x11, 0x22, 0x33,
		0xE0, 0x01, 0x00, 0x00, 0x00,
		0x81,
		0x81,
		0x81,
		0x66,
	))

	f.in.Run(100)
	ev := f.events(chip.YM2612)
	require.Len(t, ev, 2)
	assert.Equal(t, chip.Event{Family: chip.YM2612, Time: 0, Reg: 0x2A, Data: 0x22}, ev[0])
	assert.Equal(t, chip.Event{Family: chip.YM2612, Time: 1, Reg: 0x2A, Data: 0x33}, ev[1])
	assert.Equal(t, 4, f.in.PCMPos())
	assert.Equal(t, 3, f.in.Banks().Bank(0).Len())
}

func TestDACStreamThroughInterpreter(t *testing.T) {
	f := newFixture(t, file(-1,
		0x67, 0x66, 0x00, 0x04, 0x00, 0x00, 0x00, 0x10, 0x20, 0x30, 0x40,
		0x90, 0x00, 0x02, 0x00, 0x2A,
		0x91, 0x00, 0x00, 0x01, 0x00,
		0x92, 0x00, 0x44, 0xAC, 0x00, 0x00,
		0x93, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x04, 0x00, 0x00, 0x00,
		0x61, 0x20, 0x00,
		0x66,
	))

	f.in.Run(100)
	ev := f.events(chip.YM2612)
	require.Len(t, ev, 4)
	prev := -1
	for i, e := range ev {
		assert.Equal(t, uint8(0x2A), e.Reg)
		assert.Equal(t, uint8(0x10*(i+1)), e.Data)
		assert.GreaterOrEqual(t, e.Time, prev)
		assert.Less(t, e.Time, 0x20)
		prev = e.Time
	}
	assert.False(t, f.in.DAC().Active())
}

func TestWritesToUnclockedChipsAreDropped(t *testing.T) {
	f := newFixture(t, file(-1,
		0x30, 0x9F,
		0x54, 0x08, 0x00,
		0x66,
	))
	f.in.Run(10)
	assert.Empty(t, f.rec.Get(chip.SN76489, 1).Events)
	assert.Empty(t, f.rec.Get(chip.YM2151, 0).Events)
	assert.Nil(t, f.in.Warning())
}

func TestRestartIsIdempotent(t *testing.T) {
	data := file(-1,
		0x67, 0x66, 0x00, 0x02, 0x00, 0x00, 0x00, 0x7F, 0x80,
		0x80,
		0x61, 0x05, 0x00,
		0x81,
		0x66,
	)
	f := newFixture(t, data)

	f.in.Run(50)
	first := append([]chip.Event(nil), f.events(chip.YM2612)...)
	bankLen := f.in.Banks().Bank(0).Len()

	f.in.Restart()
	f.rec.Get(chip.YM2612, 0).Reset()
	f.in.Run(50)

	assert.Equal(t, first, f.events(chip.YM2612))
	assert.Equal(t, bankLen, f.in.Banks().Bank(0).Len())
	assert.Len(t, f.in.Banks().Bank(0).Blocks, 1)
	assert.Zero(t, f.in.Loops())
}

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		name string
		cmd  []byte
		want []Write
	}{
		{"ym2612 port 1", []byte{0x53, 0xB4, 0xC0}, []Write{{Family: chip.YM2612, Port: 1, Reg: 0xB4, Data: 0xC0}}},
		{"ym2151 second", []byte{0xA4, 0x08, 0x78}, []Write{{Family: chip.YM2151, ID: 1, Reg: 0x08, Data: 0x78}}},
		{"ay second", []byte{0xA0, 0x87, 0x38}, []Write{{Family: chip.AY8910, ID: 1, Reg: 0x07, Data: 0x38}}},
		{"gg stereo", []byte{0x4F, 0xF0}, []Write{{Family: chip.SN76489, Port: 1, Data: 0xF0}}},
		{"gb dmg second", []byte{0xB3, 0x92, 0x80}, []Write{{Family: chip.GBDMG, ID: 1, Reg: 0x12, Data: 0x80}}},
		{"pwm", []byte{0xB2, 0x31, 0x23}, []Write{{Family: chip.PWM, Port: 3, Reg: 1, Data: 0x23}}},
		{"segapcm", []byte{0xC0, 0x86, 0x80, 0x11}, []Write{{Family: chip.SegaPCM, ID: 1, Reg: 0x86, Data: 0x11}}},
		{"rf5c68 memory", []byte{0xC1, 0x34, 0x02, 0x7F}, []Write{{Family: chip.RF5C68, Port: 0x82, Reg: 0x34, Data: 0x7F}}},
		{"qsound", []byte{0xC4, 0x12, 0x34, 0x05}, []Write{{Family: chip.QSound, Port: 0x12, Reg: 0x34, Data: 0x05}}},
		{"ymf278b", []byte{0xD0, 0x82, 0x10, 0x01}, []Write{{Family: chip.YMF278B, ID: 1, Port: 2, Reg: 0x10, Data: 0x01}}},
		{"multipcm bank", []byte{0xC3, 0x05, 0x34, 0x12}, []Write{
			{Family: chip.MultiPCM, Port: 0x80, Reg: 5, Data: 0x34},
			{Family: chip.MultiPCM, Port: 0x81, Reg: 5, Data: 0x12},
		}},
		{"c352", []byte{0xE1, 0x01, 0x02, 0xAB, 0xCD}, []Write{
			{Family: chip.C352, Port: 1, Reg: 2, Data: 0xAB},
			{Family: chip.C352, Port: 0x81, Reg: 2, Data: 0xCD},
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, n := Decode(stream.Command{Data: tc.cmd})
			assert.Equal(t, tc.want, w[:n])
		})
	}

	_, n := Decode(stream.Command{Data: []byte{0x41, 0x00}})
	assert.Zero(t, n)
}
