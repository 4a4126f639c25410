package blip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T) *Buffer {
	t.Helper()
	b, err := NewBuffer(44100, 100)
	require.NoError(t, err)
	b.SetClockRate(44100 * 4)
	b.Bass(0)
	return b
}

func TestKernelRowsAreNormalized(t *testing.T) {
	for p, row := range kernel {
		var sum int32
		for _, v := range row {
			sum += v
		}
		assert.Equal(t, int32(deltaUnit), sum, "phase %d", p)
	}
}

func TestNewBufferRejectsBadLength(t *testing.T) {
	_, err := NewBuffer(44100, 0)
	assert.ErrorIs(t, err, ErrBufferLength)
	_, err = NewBuffer(0, 100)
	assert.ErrorIs(t, err, ErrBufferLength)
}

func TestCountClocksAndEndFrame(t *testing.T) {
	b := newTestBuffer(t)
	assert.Equal(t, 400, b.CountClocks(100))

	b.EndFrame(400)
	assert.Equal(t, 100, b.SamplesAvail())

	// Requests are capped at the free space.
	assert.Equal(t, (b.Size()-100)*4, b.CountClocks(1<<20))
}

func TestCountClocksGuaranteesSamples(t *testing.T) {
	b, err := NewBuffer(44100, 250)
	require.NoError(t, err)
	b.SetClockRate(3579545)

	for i := 0; i < 50; i++ {
		n := 37 + i*13%200
		clocks := b.CountClocks(n)
		b.EndFrame(clocks)
		require.GreaterOrEqual(t, b.SamplesAvail(), n)
		b.RemoveSamples(n)
		require.Less(t, b.SamplesAvail(), 2)
		b.RemoveSamples(b.SamplesAvail())
	}
}

func TestStepSettles(t *testing.T) {
	b := newTestBuffer(t)
	b.AddDelta(10, 1000)
	b.EndFrame(400)

	out := make([]int16, 100)
	n := b.ReadSamples(out, 100, false)
	require.Equal(t, 100, n)

	assert.Zero(t, out[0])
	for i := 20; i < 100; i++ {
		assert.Equal(t, int16(1000), out[i], "sample %d", i)
	}
	assert.True(t, b.NonSilent())
	assert.Zero(t, b.SamplesAvail())
}

func TestIntegratorCarriesAcrossReads(t *testing.T) {
	b := newTestBuffer(t)
	b.AddDelta(0, -500)
	b.EndFrame(400)

	out := make([]int16, 50)
	b.ReadSamples(out, 50, false)
	b.EndFrame(400)
	b.ReadSamples(out, 50, false)
	for _, s := range out {
		assert.Equal(t, int16(-500), s)
	}
}

func TestBassFilterDecays(t *testing.T) {
	b := newTestBuffer(t)
	b.Bass(16)
	b.AddDelta(0, 10000)
	b.EndFrame(b.CountClocks(4000))

	out := make([]int16, 4000)
	b.ReadSamples(out, 4000, false)
	assert.Greater(t, out[20], int16(9000))
	assert.Less(t, out[3999], out[20])
}

func TestStereoRead(t *testing.T) {
	b := newTestBuffer(t)
	b.AddDelta(0, 200)
	b.EndFrame(400)

	out := make([]int16, 200)
	for i := range out {
		out[i] = -1
	}
	n := b.ReadSamples(out, 100, true)
	assert.Equal(t, 100, n)
	assert.Equal(t, int16(200), out[180])
	assert.Equal(t, int16(-1), out[181])
}

func TestClear(t *testing.T) {
	b := newTestBuffer(t)
	b.AddDelta(0, 200)
	b.EndFrame(400)
	b.Clear()
	assert.Zero(t, b.SamplesAvail())
	assert.False(t, b.NonSilent())
}

func TestBusMonoMerge(t *testing.T) {
	bus, err := NewBus(44100, 100)
	require.NoError(t, err)
	bus.SetClockRate(44100)
	bus.Bass(0)

	bus.Center.AddDelta(0, 300)
	bus.EndFrame(64)
	assert.False(t, bus.Stereo())

	out := make([]int32, 128)
	n := bus.Mix(out, 64)
	require.Equal(t, 64, n)
	assert.Equal(t, int32(300), out[100])
	assert.Equal(t, int32(300), out[101])
	assert.Zero(t, bus.SamplesAvail())
}

func TestBusStereo(t *testing.T) {
	bus, err := NewBus(44100, 100)
	require.NoError(t, err)
	bus.SetClockRate(44100)
	bus.Bass(0)

	bus.Center.AddDelta(0, 100)
	bus.Left.AddDelta(0, 50)
	bus.Right.AddDelta(0, -50)
	bus.EndFrame(64)
	assert.True(t, bus.Stereo())

	out := make([]int32, 128)
	bus.Mix(out, 64)
	assert.Equal(t, int32(150), out[100])
	assert.Equal(t, int32(50), out[101])
}

func TestBusSilentSkipsWork(t *testing.T) {
	bus, err := NewBus(44100, 100)
	require.NoError(t, err)
	bus.SetClockRate(44100)
	bus.EndFrame(64)

	out := make([]int32, 128)
	assert.Equal(t, 64, bus.Mix(out, 64))
	assert.Equal(t, make([]int32, 128), out)
	assert.Zero(t, bus.SamplesAvail())
}
