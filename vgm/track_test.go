package vgm

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-vgm/vgm/chip"
	"github.com/valerio/go-vgm/vgm/header"
	"github.com/valerio/go-vgm/vgm/interp"
)

const (
	dataStart = 0x100
	psgClock  = 3579545
	fmClock   = 7670453
)

type image struct {
	clocks      map[int]uint32
	total       uint32
	loop        int // offset into cmds, -1 for none
	loopSamples uint32
}

func (im image) build(cmds ...byte) []byte {
	b := make([]byte, dataStart+len(cmds))
	copy(b, "Vgm ")
	le := binary.LittleEndian
	le.PutUint32(b[0x04:], uint32(len(b)-0x04))
	le.PutUint32(b[0x08:], 0x171)
	le.PutUint32(b[0x18:], im.total)
	le.PutUint32(b[0x34:], dataStart-0x34)
	for off, hz := range im.clocks {
		le.PutUint32(b[off:], hz)
	}
	if im.loop >= 0 {
		le.PutUint32(b[0x1C:], uint32(dataStart+im.loop-0x1C))
		le.PutUint32(b[0x20:], im.loopSamples)
	}
	copy(b[dataStart:], cmds)
	return b
}

func psgFile(cmds ...byte) []byte {
	return image{clocks: map[int]uint32{0x0C: psgClock}, loop: -1}.build(cmds...)
}

func fmFile(cmds ...byte) []byte {
	return image{clocks: map[int]uint32{0x2C: fmClock}, loop: -1}.build(cmds...)
}

// levelChip is a blip chip whose output level follows the last data byte.
type levelChip struct {
	chip.Null
	now   int
	level int
}

func (c *levelChip) Reset() {
	c.Null.Reset()
	c.now, c.level = 0, 0
}

func (c *levelChip) RunUntil(t int) int {
	c.now = t
	return c.Null.RunUntil(t)
}

func (c *levelChip) EndFrame(t int) {
	c.now -= t
	c.Null.EndFrame(t)
}

func (c *levelChip) Write(port, reg, data uint8) {
	v := int(data) * 10
	if bus := c.Bus(); bus != nil {
		bus.Center.AddDelta(c.now, v-c.level)
	}
	c.level = v
}

// flatChip is a stream chip rendering a constant level.
type flatChip struct {
	chip.Null
	out   []int16
	pos   int
	level int16
}

func (c *flatChip) BeginFrame(out []int16) {
	c.out = out
	c.pos = 0
}

func (c *flatChip) RunUntil(t int) int {
	t = min(t, len(c.out)/2)
	start := c.pos
	for ; c.pos < t; c.pos++ {
		c.out[2*c.pos] += c.level
		c.out[2*c.pos+1] += c.level
	}
	return c.pos - start
}

func (c *flatChip) Write(port, reg, data uint8) {
	c.level = int16(data) * 20
}

// testChips builds levelChips for blip families and flatChips for the rest,
// keeping them for inspection.
type testChips map[chip.Family]*[2]chip.Chip

func (tc testChips) factory(f chip.Family, id int) chip.Chip {
	var c chip.Chip = &flatChip{}
	if f.Info().Domain == chip.Blip {
		c = &levelChip{}
	}
	if tc[f] == nil {
		tc[f] = &[2]chip.Chip{}
	}
	tc[f][id] = c
	return c
}

func render(t *testing.T, tr *Track, frames int) []int16 {
	t.Helper()
	out := make([]int16, 2*frames)
	n, err := tr.Play(frames, out)
	require.NoError(t, err)
	require.Equal(t, frames, n)
	return out
}

func TestNewRejectsBadHeader(t *testing.T) {
	_, err := New([]byte("Vgm "))
	assert.True(t, errors.Is(err, header.ErrTooSmall))

	_, err = New(make([]byte, 0x80))
	assert.True(t, errors.Is(err, header.ErrBadMagic))
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(psgFile(0x66), WithSampleRate(100))
	assert.ErrorIs(t, err, ErrSampleRate)

	_, err = New(psgFile(0x66), WithTempo(0))
	assert.ErrorIs(t, err, ErrTempo)
}

func TestPSGOnlySecond(t *testing.T) {
	tr, err := New(psgFile(
		0x50, 0x9F,
		0x61, 0xFF, 0xFF,
		0x61, 0xFF, 0xFF,
		0x66,
	))
	require.NoError(t, err)
	assert.False(t, tr.UsesFM())
	assert.Equal(t, []string{"SN76489"}, tr.Voices())

	render(t, tr, 44100)
	assert.Equal(t, int64(44100), tr.Elapsed())
	assert.Equal(t, time.Second, tr.Position())
	assert.False(t, tr.Ended())
	assert.Nil(t, tr.Warning())
}

func TestPSGWriteBeforeWait(t *testing.T) {
	tests := []struct {
		name string
		cmds []byte
	}{
		{"one write", []byte{0x50, 0x9F, 0x61, 0x44, 0xAC, 0x62, 0x66}},
		{"two writes", []byte{0x50, 0x9F, 0x50, 0xBF, 0x61, 0x44, 0xAC, 0x62, 0x66}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(psgFile(tt.cmds...))
			require.NoError(t, err)

			render(t, tr, 44100)
			assert.Equal(t, int64(44100), tr.Elapsed())
			assert.False(t, tr.Ended())
			assert.Nil(t, tr.Warning())
		})
	}
}

func TestPlayReportsEndOnce(t *testing.T) {
	tr, err := New(psgFile(
		0x61, 0xE8, 0x03,
		0x66,
	))
	require.NoError(t, err)

	out := make([]int16, 2*512)
	total, short := 0, 0
	for calls := 0; calls < 100; calls++ {
		n, err := tr.Play(512, out)
		require.NoError(t, err)
		total += n
		if n < 512 {
			short++
			break
		}
	}
	assert.Equal(t, 1, short)
	assert.True(t, tr.Ended())
	assert.GreaterOrEqual(t, total, 1000)
	assert.LessOrEqual(t, total, 1000+2*735)

	for range 3 {
		n, err := tr.Play(512, out)
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	_, err = tr.Play(10, make([]int16, 19))
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestStartTrackIsIdempotent(t *testing.T) {
	chips := testChips{}
	tr, err := New(psgFile(
		0x50, 0x10,
		0x61, 0xF4, 0x01,
		0x50, 0x30,
		0x61, 0xD0, 0x07,
		0x50, 0x05,
		0x61, 0xB8, 0x0B,
		0x66,
	), WithChipFactory(chips.factory))
	require.NoError(t, err)

	first := render(t, tr, 5000)
	assert.NotEqual(t, make([]int16, len(first)), first)

	tr.StartTrack()
	assert.Zero(t, tr.Elapsed())
	assert.Equal(t, first, render(t, tr, 5000))
}

func TestFMPathMixesStreamChips(t *testing.T) {
	for _, oversample := range []bool{true, false} {
		chips := testChips{}
		tr, err := New(fmFile(
			0x52, 0x2A, 0x40,
			0x61, 0x44, 0xAC,
			0x66,
		), WithChipFactory(chips.factory), WithOversampling(oversample))
		require.NoError(t, err)
		assert.True(t, tr.UsesFM())

		out := render(t, tr, 4410)
		for i := 200; i < 4410; i++ {
			require.InDelta(t, 1280, float64(out[2*i]), 4, "oversample %v frame %d", oversample, i)
			require.InDelta(t, 1280, float64(out[2*i+1]), 4, "oversample %v frame %d", oversample, i)
		}
		assert.InDelta(t, 4410, tr.Elapsed(), 800)
	}
}

func TestTempoScalesVirtualTime(t *testing.T) {
	tr, err := New(psgFile(
		0x61, 0xFF, 0xFF,
		0x61, 0xFF, 0xFF,
		0x66,
	), WithTempo(2))
	require.NoError(t, err)

	render(t, tr, 44100)
	assert.Equal(t, int64(88200), tr.Elapsed())

	assert.ErrorIs(t, tr.SetTempo(5), ErrTempo)
	require.NoError(t, tr.SetTempo(1))
	render(t, tr, 735)
	assert.Equal(t, int64(88200+735), tr.Elapsed())
}

func TestSetSampleRateKeepsPosition(t *testing.T) {
	tr, err := New(psgFile(
		0x61, 0xFF, 0xFF,
		0x66,
	))
	require.NoError(t, err)

	render(t, tr, 735)
	require.NoError(t, tr.SetSampleRate(22050))
	assert.Equal(t, 22050, tr.SampleRate())
	render(t, tr, 2205)
	assert.InDelta(t, 735+4410, tr.Elapsed(), 2*735)

	assert.ErrorIs(t, tr.SetSampleRate(1), ErrSampleRate)
	assert.Equal(t, 22050, tr.SampleRate())
}

func TestLength(t *testing.T) {
	data := image{
		clocks:      map[int]uint32{0x0C: psgClock},
		total:       44100,
		loop:        0,
		loopSamples: 22050,
	}.build(0x61, 0x22, 0x56, 0x66)

	tr, err := New(data)
	require.NoError(t, err)
	assert.Equal(t, int64(44100), tr.Length())

	tr, err = New(data, WithLoopLimit(2))
	require.NoError(t, err)
	assert.Equal(t, int64(88200), tr.Length())

	tr, err = New(data, WithLoopLimit(2), WithSampleRate(22050))
	require.NoError(t, err)
	assert.Equal(t, int64(44100), tr.Length())
}

func TestLoopLimitEndsTrack(t *testing.T) {
	data := image{
		clocks:      map[int]uint32{0x0C: psgClock},
		total:       735,
		loop:        0,
		loopSamples: 735,
	}.build(0x62, 0x66)

	tr, err := New(data, WithLoopLimit(2))
	require.NoError(t, err)

	n, err := tr.Play(44100, make([]int16, 2*44100))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 3*735)
	assert.Less(t, n, 44100)
	assert.True(t, tr.Ended())
	assert.Equal(t, 2, tr.Interp().Loops())
}

func TestWarningsArePolled(t *testing.T) {
	tr, err := New(psgFile(
		0x41, 0x00,
		0x62,
		0x66,
	))
	require.NoError(t, err)
	render(t, tr, 100)
	assert.ErrorIs(t, tr.Warning(), interp.ErrUnknownOpcode)
}

func TestMuteVoices(t *testing.T) {
	chips := testChips{}
	data := image{
		clocks: map[int]uint32{0x0C: psgClock | 1<<30, 0x2C: fmClock},
		loop:   -1,
	}.build(0x66)
	tr, err := New(data, WithChipFactory(chips.factory))
	require.NoError(t, err)

	assert.Equal(t, []string{"SN76489", "SN76489 #2", "YM2612"}, tr.Voices())

	tr.MuteVoices(0b101)
	muted := func(f chip.Family, id int) int {
		switch c := chips[f][id].(type) {
		case *levelChip:
			return c.Muted()
		case *flatChip:
			return c.Muted()
		}
		return 0
	}
	assert.Equal(t, -1, muted(chip.SN76489, 0))
	assert.Equal(t, 0, muted(chip.SN76489, 1))
	assert.Equal(t, -1, muted(chip.YM2612, 0))
}

func TestChipsGetHeaderRates(t *testing.T) {
	chips := testChips{}
	data := image{
		clocks: map[int]uint32{0x0C: psgClock, 0x2C: fmClock},
		loop:   -1,
	}.build(0x66)
	_, err := New(data, WithChipFactory(chips.factory), WithSampleRate(48000))
	require.NoError(t, err)

	sn := chips[chip.SN76489][0].(*levelChip)
	assert.Equal(t, uint32(psgClock), sn.Clock())
	assert.Equal(t, float64(48000), sn.SampleRate())
	require.NotNil(t, sn.Bus())
	assert.Equal(t, float64(psgClock), sn.Bus().Center.ClockRate())

	ym := chips[chip.YM2612][0].(*flatChip)
	assert.Equal(t, float64(72000), ym.SampleRate())
	assert.False(t, chips[chip.YM2612][1].Enabled())
}
