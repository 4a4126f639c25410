// Package resample converts the stream-domain chip output to the host rate
// and mixes it with the band-limited buses.
package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/valerio/go-vgm/vgm/bit"
)

const (
	firWidth   = 16
	firPhases  = 64
	posBits    = 32
	posOne     = 1 << posBits
	coeffBits  = 14
	coeffUnit  = 1 << coeffBits
	historyLen = firWidth - 1
)

var ErrRatio = errors.New("resample: ratio out of range")

// FIR is a stereo windowed-sinc resampler. Input frames are written into the
// buffer returned by Buffer and consumed by Read.
type FIR struct {
	ratio  float64
	step   uint64
	pos    uint64 // fractional read position, posBits of fraction
	coeffs [firPhases + 1][firWidth]int32

	buf   []int16 // interleaved stereo, history first
	write int     // frames in buf
}

// NewFIR returns a resampler whose buffer holds capacity input frames.
func NewFIR(capacity int) *FIR {
	r := &FIR{}
	r.Resize(capacity)
	r.setRatio(1, 0.99, 1)
	return r
}

// Resize sets the input capacity in frames and clears the resampler.
func (r *FIR) Resize(capacity int) {
	r.buf = make([]int16, 2*(capacity+historyLen))
	r.Clear()
}

// SetRatio sets input rate / output rate. rolloff sets the passband edge as
// a fraction of the lower Nyquist frequency and gain scales the output.
func (r *FIR) SetRatio(ratio, rolloff, gain float64) error {
	if ratio <= 0 || ratio > 64 || rolloff <= 0 || rolloff > 1 {
		return fmt.Errorf("%w: ratio %g rolloff %g", ErrRatio, ratio, rolloff)
	}
	r.setRatio(ratio, rolloff, gain)
	return nil
}

// setRatio recomputes the filter for arguments already known to be valid.
func (r *FIR) setRatio(ratio, rolloff, gain float64) {
	r.ratio = ratio
	r.step = uint64(math.Round(ratio * posOne))

	cutoff := rolloff / max(ratio, 1)
	for p := 0; p <= firPhases; p++ {
		frac := float64(p) / firPhases
		var taps [firWidth]float64
		var sum float64
		for i := range taps {
			x := float64(i) - (firWidth/2 - 1) - frac
			w := 0.42 + 0.5*math.Cos(math.Pi*x/(firWidth/2)) + 0.08*math.Cos(2*math.Pi*x/(firWidth/2))
			if math.Abs(x) >= firWidth/2 {
				w = 0
			}
			taps[i] = cutoff * sinc(cutoff*x) * w
			sum += taps[i]
		}
		for i := range taps {
			r.coeffs[p][i] = int32(math.Round(taps[i] / sum * gain * coeffUnit))
		}
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// Ratio returns the current input/output ratio.
func (r *FIR) Ratio() float64 {
	return r.ratio
}

// Clear drops buffered input and resets history to silence.
func (r *FIR) Clear() {
	clear(r.buf)
	r.write = historyLen
	r.pos = 0
}

// Buffer returns the free space for new input frames (interleaved stereo).
func (r *FIR) Buffer() []int16 {
	return r.buf[2*r.write:]
}

// Write commits n frames written into Buffer.
func (r *FIR) Write(n int) {
	r.write = min(r.write+n, len(r.buf)/2)
}

// Written returns the buffered input frames beyond the filter history.
func (r *FIR) Written() int {
	return max(r.write-historyLen, 0)
}

// Capacity returns the number of input frames the buffer can hold.
func (r *FIR) Capacity() int {
	return len(r.buf)/2 - historyLen
}

// InputNeeded returns how many more input frames must be written before
// Read can produce n output frames.
func (r *FIR) InputNeeded(n int) int {
	if n <= 0 {
		return 0
	}
	last := (r.pos + uint64(n-1)*r.step) >> posBits
	need := int(last) + firWidth - r.write
	return max(need, 0)
}

// Read produces up to n output frames into out (interleaved stereo) and
// returns how many were produced.
func (r *FIR) Read(out []int16, n int) int {
	n = min(n, len(out)/2)
	produced := 0
	for ; produced < n; produced++ {
		i := int(r.pos >> posBits)
		if i+firWidth > r.write {
			break
		}
		frac := r.pos & (posOne - 1)
		phase := int(frac * firPhases >> posBits)
		c := &r.coeffs[phase]

		var left, right int64
		in := r.buf[2*i : 2*(i+firWidth)]
		for k := 0; k < firWidth; k++ {
			left += int64(in[2*k]) * int64(c[k])
			right += int64(in[2*k+1]) * int64(c[k])
		}
		out[2*produced] = clamp(left >> coeffBits)
		out[2*produced+1] = clamp(right >> coeffBits)
		r.pos += r.step
	}

	// Drop consumed frames, keeping the history the next output needs.
	consumed := int(r.pos >> posBits)
	if consumed > 0 {
		consumed = min(consumed, r.write)
		copy(r.buf, r.buf[2*consumed:2*r.write])
		r.write -= consumed
		r.pos -= uint64(consumed) << posBits
	}
	return produced
}

func clamp(v int64) int16 {
	if v > math.MaxInt32 {
		v = math.MaxInt32
	} else if v < math.MinInt32 {
		v = math.MinInt32
	}
	return bit.Clamp16(int32(v))
}
