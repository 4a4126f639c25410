package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-vgm/vgm/blip"
)

// stepSource raises the bus level once and renders a constant stream.
type stepSource struct {
	bus    *blip.Bus
	level  int16
	frames int
	asked  []int
}

func (s *stepSource) PlayFrame(pairs int, blipTimes []int, minStream int, stream []int16) int {
	if s.frames == 0 {
		s.bus.Center.AddDelta(0, 1000)
	}
	s.frames++
	s.asked = append(s.asked, blipTimes[0])

	n := min(minStream, len(stream)/2)
	for i := 0; i < n; i++ {
		stream[2*i] = s.level
		stream[2*i+1] = s.level
	}
	return n
}

func newDual(t *testing.T, stream bool) (*Dual, *stepSource) {
	t.Helper()
	bus, err := blip.NewBus(44100, 250)
	require.NoError(t, err)
	bus.SetClockRate(4 * 44100)
	bus.Bass(0)

	d := NewDual()
	require.NoError(t, d.Setup(1.5, 0.99, 1))
	d.EnableStream(stream)
	require.NoError(t, d.Reset(200, []*blip.Bus{bus}))
	return d, &stepSource{bus: bus, level: 500}
}

func render(d *Dual, src Source, chunks []int) []int16 {
	var out []int16
	for _, n := range chunks {
		buf := make([]int16, n)
		d.Play(n, buf, src)
		out = append(out, buf...)
	}
	return out
}

func TestResetRejectsOddFrame(t *testing.T) {
	d := NewDual()
	assert.ErrorIs(t, d.Reset(0, nil), ErrFrameSize)
	assert.ErrorIs(t, d.Reset(201, nil), ErrFrameSize)
	assert.NoError(t, d.Reset(202, nil))
	assert.Equal(t, 202, d.FrameSize())
}

func TestPlayIgnoresRequestSlicing(t *testing.T) {
	for _, stream := range []bool{false, true} {
		whole, src := newDual(t, stream)
		want := render(whole, src, []int{6000})
		assert.Equal(t, 30, whole.Frames())

		sliced, src := newDual(t, stream)
		got := render(sliced, src, []int{74, 2, 300, 1000, 198, 26, 4400})
		assert.Equal(t, 30, sliced.Frames())
		assert.Zero(t, sliced.Buffered())
		assert.Equal(t, want, got, "stream %v", stream)
	}
}

func TestCarryOverServesLeftovers(t *testing.T) {
	d, src := newDual(t, false)
	out := make([]int16, 50)
	d.Play(50, out, src)
	assert.Equal(t, 1, d.Frames())
	assert.Equal(t, 150, d.Buffered())

	d.Play(150, make([]int16, 150), src)
	assert.Equal(t, 1, d.Frames())
	assert.Zero(t, d.Buffered())
}

func TestBlipTimesCoverFrame(t *testing.T) {
	d, src := newDual(t, false)
	render(d, src, []int{2000})
	for _, clocks := range src.asked {
		assert.Equal(t, 400, clocks)
	}
}

func TestMixesStreamWithBus(t *testing.T) {
	d, src := newDual(t, true)
	out := render(d, src, []int{2000})

	// The bus holds 1000 on both sides and the stream adds 500 after the
	// filter latency.
	for i := 200; i < 1000; i++ {
		assert.InDelta(t, 1500, float64(out[2*i]), 4, "left %d", i)
		assert.InDelta(t, 1500, float64(out[2*i+1]), 4, "right %d", i)
	}
}

func TestBusOnlyMixesWithoutStream(t *testing.T) {
	d, src := newDual(t, false)
	out := render(d, src, []int{2000})
	assert.False(t, d.Stream())
	for i := 200; i < 1000; i++ {
		assert.InDelta(t, 1000, float64(out[2*i]), 2, "pair %d", i)
		assert.Equal(t, out[2*i], out[2*i+1])
	}
}

func TestClampsMix(t *testing.T) {
	d, src := newDual(t, true)
	src.level = 32000
	out := render(d, src, []int{2000})
	assert.Equal(t, int16(32767), out[2*900])
}
