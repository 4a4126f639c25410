// Package blip implements band-limited synthesis buffers: chips running in
// their own clock domain add amplitude deltas at native clock times and the
// buffer resamples them to the output rate.
package blip

import (
	"errors"
	"fmt"
	"math"

	"github.com/valerio/go-vgm/vgm/bit"
)

const (
	fracBits   = 32
	phaseBits  = 5
	phaseCount = 1 << phaseBits
	deltaBits  = 15
	deltaUnit  = 1 << deltaBits
	halfWidth  = 8
	kernelSize = halfWidth * 2
	bufExtra   = kernelSize + 2

	maxBufferMs = 1000
)

// DefaultBass is the high-pass cutoff new buffers start with, in Hz.
const DefaultBass = 16

var ErrBufferLength = errors.New("blip: buffer length out of range")

// kernel holds the band-limited step for every phase, plus one extra row so
// adjacent phases can be interpolated.
var kernel = makeKernel()

func makeKernel() [phaseCount + 1][kernelSize]int32 {
	var k [phaseCount + 1][kernelSize]int32
	const cutoff = 0.9
	for p := 0; p <= phaseCount; p++ {
		frac := float64(p) / phaseCount
		var taps [kernelSize]float64
		var sum float64
		for i := range taps {
			x := float64(i) - (halfWidth - 1) - frac
			v := cutoff * sinc(cutoff*x)
			w := 0.42 + 0.5*math.Cos(math.Pi*x/halfWidth) + 0.08*math.Cos(2*math.Pi*x/halfWidth)
			if math.Abs(x) >= halfWidth {
				w = 0
			}
			taps[i] = v * w
			sum += taps[i]
		}

		var total int32
		peak := 0
		for i := range taps {
			k[p][i] = int32(math.Round(taps[i] / sum * deltaUnit))
			total += k[p][i]
			if k[p][i] > k[p][peak] {
				peak = i
			}
		}
		// Every row integrates to exactly one delta unit.
		k[p][peak] += deltaUnit - total
	}
	return k
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// Buffer is a mono band-limited buffer.
type Buffer struct {
	factor     uint64
	offset     uint64
	avail      int
	size       int
	integrator int
	bassShift  uint
	buf        []int

	sampleRate int
	clockRate  float64
	bassHz     int

	// nonSilent is set once a delta was ever added since the last Clear.
	nonSilent bool
}

// NewBuffer returns a buffer holding up to msec milliseconds at sampleRate.
func NewBuffer(sampleRate, msec int) (*Buffer, error) {
	b := &Buffer{bassHz: DefaultBass}
	if err := b.SetSampleRate(sampleRate, msec); err != nil {
		return nil, err
	}
	return b, nil
}

// SetSampleRate resizes the buffer and clears it.
func (b *Buffer) SetSampleRate(sampleRate, msec int) error {
	if sampleRate <= 0 || msec <= 0 || msec > maxBufferMs {
		return fmt.Errorf("%w: %d Hz, %d ms", ErrBufferLength, sampleRate, msec)
	}
	b.sampleRate = sampleRate
	b.size = sampleRate*msec/1000 + 1
	b.buf = make([]int, b.size+bufExtra)
	if b.clockRate > 0 {
		b.SetClockRate(b.clockRate)
	}
	b.Bass(b.bassHz)
	b.Clear()
	return nil
}

// SetClockRate sets the rate of the time units passed to AddDelta and EndFrame.
func (b *Buffer) SetClockRate(hz float64) {
	b.clockRate = hz
	if hz <= 0 || b.sampleRate == 0 {
		b.factor = 0
		return
	}
	b.factor = uint64(math.Ceil(float64(b.sampleRate) / hz * (1 << fracBits)))
}

func (b *Buffer) ClockRate() float64 { return b.clockRate }
func (b *Buffer) SampleRate() int    { return b.sampleRate }

// Size returns the capacity in samples.
func (b *Buffer) Size() int { return b.size }

// Bass sets the high-pass corner frequency of ReadSamples. Zero disables the
// filter.
func (b *Buffer) Bass(hz int) {
	b.bassHz = hz
	b.bassShift = 0
	if b.sampleRate == 0 || hz <= 0 {
		return
	}
	shift := uint(13)
	for f := (hz << 16) / b.sampleRate; ; {
		f >>= 1
		if f == 0 {
			break
		}
		shift--
		if shift == 0 {
			break
		}
	}
	b.bassShift = shift
}

// Clear discards all samples and the frame in progress.
func (b *Buffer) Clear() {
	b.offset = 0
	b.avail = 0
	b.integrator = 0
	b.nonSilent = false
	clear(b.buf)
}

// AddDelta adds an amplitude step at clock time t of the current frame.
func (b *Buffer) AddDelta(t int, delta int) {
	if delta == 0 || t < 0 {
		return
	}
	fixed := uint64(t)*b.factor + b.offset
	pos := b.avail + int(fixed>>fracBits)
	if pos+kernelSize > len(b.buf) {
		return
	}

	phaseShift := fracBits - phaseBits
	phase := int(fixed>>phaseShift) & (phaseCount - 1)
	interp := int(fixed>>(phaseShift-deltaBits)) & (deltaUnit - 1)
	delta2 := (delta * interp) >> deltaBits
	delta -= delta2

	in, next := &kernel[phase], &kernel[phase+1]
	out := b.buf[pos : pos+kernelSize]
	for i := range out {
		out[i] += int(in[i])*delta + int(next[i])*delta2
	}
	b.nonSilent = true
}

// EndFrame closes the current frame at clock time t, making its samples
// available. The next frame starts at time 0.
func (b *Buffer) EndFrame(t int) {
	off := uint64(t)*b.factor + b.offset
	b.avail += int(off >> fracBits)
	b.offset = off & (1<<fracBits - 1)
	if b.avail > b.size {
		b.avail = b.size
	}
}

// CountClocks returns the number of clocks needed until n more samples are
// available.
func (b *Buffer) CountClocks(n int) int {
	if b.factor == 0 {
		return 0
	}
	n = min(n, b.size-b.avail)
	if uint64(n)<<fracBits <= b.offset {
		return 0
	}
	needed := uint64(n)<<fracBits - b.offset
	return int((needed + b.factor - 1) / b.factor)
}

// SamplesAvail returns the number of samples ready to be read.
func (b *Buffer) SamplesAvail() int {
	return b.avail
}

// NonSilent reports whether any delta was added since the last Clear.
func (b *Buffer) NonSilent() bool {
	return b.nonSilent
}

// ReadSamples integrates and high-pass filters up to count samples into out,
// writing every second element when stereo is set. The samples are removed.
func (b *Buffer) ReadSamples(out []int16, count int, stereo bool) int {
	step := 1
	if stereo {
		step = 2
	}
	count = min(count, b.avail, (len(out)+step-1)/step)

	sum := b.integrator
	for i := 0; i < count; i++ {
		v := b.next(&sum, i)
		out[i*step] = v
	}
	b.integrator = sum
	b.RemoveSamples(count)
	return count
}

// MixSamples reads like ReadSamples but adds into a 32 bit accumulator.
func (b *Buffer) MixSamples(out []int32, count int, stereo bool) int {
	step := 1
	if stereo {
		step = 2
	}
	count = min(count, b.avail, (len(out)+step-1)/step)

	sum := b.integrator
	for i := 0; i < count; i++ {
		out[i*step] += int32(b.next(&sum, i))
	}
	b.integrator = sum
	b.RemoveSamples(count)
	return count
}

func (b *Buffer) next(sum *int, i int) int16 {
	s := *sum >> deltaBits
	*sum += b.buf[i]
	v := clamp(s)
	if b.bassShift != 0 {
		*sum -= int(v) << (deltaBits - b.bassShift)
	}
	return v
}

func clamp(s int) int16 {
	if s > math.MaxInt32 {
		s = math.MaxInt32
	} else if s < math.MinInt32 {
		s = math.MinInt32
	}
	return bit.Clamp16(int32(s))
}

// RemoveSamples drops n samples from the front without reading them.
func (b *Buffer) RemoveSamples(n int) {
	n = min(n, b.avail)
	if n <= 0 {
		return
	}
	copy(b.buf, b.buf[n:])
	clear(b.buf[len(b.buf)-n:])
	b.avail -= n
}
