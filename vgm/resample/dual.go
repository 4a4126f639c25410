package resample

import (
	"errors"

	"github.com/valerio/go-vgm/vgm/bit"
	"github.com/valerio/go-vgm/vgm/blip"
)

var ErrFrameSize = errors.New("resample: frame size must be a positive even number")

// Source renders one output frame for Dual.
type Source interface {
	// PlayFrame emulates one frame of pairs stereo output samples. Chips on
	// bus i must be run to blipTimes[i], the bus clock count that yields
	// exactly pairs samples. When stream output is enabled at least
	// minStream frames must be rendered into stream (interleaved stereo).
	// It returns the number of stream frames rendered.
	PlayFrame(pairs int, blipTimes []int, minStream int, stream []int16) int
}

// Dual produces fixed-size frames by resampling stream-domain output and
// mixing it with the blip buses. Requests that do not line up with the frame
// size are served from a carry-over buffer.
type Dual struct {
	fir       *FIR
	stream    bool
	buses     []*blip.Bus
	frameSize int // int16 samples per frame, always even

	sampleBuf []int16
	bufPos    int
	mix       []int32
	blipTimes []int
	frames    int
}

// NewDual returns a resampler without buses and with stream output disabled.
func NewDual() *Dual {
	return &Dual{fir: NewFIR(0)}
}

// Setup configures the stream-domain path. ratio is the stream rate over the
// output rate; gain scales stream output before mixing.
func (d *Dual) Setup(ratio, rolloff, gain float64) error {
	if err := d.fir.SetRatio(ratio, rolloff, gain); err != nil {
		return err
	}
	if d.frameSize > 0 {
		d.resizeFIR()
	}
	return nil
}

// resizeFIR makes room for one frame of input plus the filter window.
func (d *Dual) resizeFIR() {
	pairs := d.frameSize / 2
	d.fir.Resize(int(float64(pairs)*d.fir.Ratio()) + 2*firWidth + 2)
}

// EnableStream turns the stream-domain path on or off. When off, frames hold
// only the buses.
func (d *Dual) EnableStream(on bool) {
	d.stream = on
}

// Stream reports whether the stream-domain path is enabled.
func (d *Dual) Stream() bool {
	return d.stream
}

// Reset sets the frame size in int16 samples and the buses to mix, then
// clears all buffered audio.
func (d *Dual) Reset(frameSize int, buses []*blip.Bus) error {
	if frameSize <= 0 || frameSize%2 != 0 {
		return ErrFrameSize
	}
	d.frameSize = frameSize
	d.buses = buses
	d.sampleBuf = make([]int16, frameSize)
	d.mix = make([]int32, frameSize)
	d.blipTimes = make([]int, len(buses))
	d.frames = 0
	d.resizeFIR()
	d.Clear()
	return nil
}

// Clear drops the carry-over and the resampler history.
func (d *Dual) Clear() {
	d.bufPos = d.frameSize
	d.fir.Clear()
	clear(d.sampleBuf)
	for _, b := range d.buses {
		b.Clear()
	}
}

// FrameSize returns the frame size in int16 samples.
func (d *Dual) FrameSize() int {
	return d.frameSize
}

// Frames returns how many frames were rendered since the last Reset.
func (d *Dual) Frames() int {
	return d.frames
}

// Buffered returns the int16 samples waiting in the carry-over buffer.
func (d *Dual) Buffered() int {
	return d.frameSize - d.bufPos
}

// Play writes exactly count int16 samples (count must be even) into out.
func (d *Dual) Play(count int, out []int16, src Source) {
	count = min(count, len(out)) &^ 1

	if remain := d.frameSize - d.bufPos; remain > 0 && count > 0 {
		n := min(remain, count)
		copy(out, d.sampleBuf[d.bufPos:d.bufPos+n])
		d.bufPos += n
		out = out[n:]
		count -= n
	}

	for count >= d.frameSize {
		d.playFrame(src, out[:d.frameSize])
		out = out[d.frameSize:]
		count -= d.frameSize
	}

	if count > 0 {
		d.playFrame(src, d.sampleBuf)
		copy(out, d.sampleBuf[:count])
		d.bufPos = count
	}
}

func (d *Dual) playFrame(src Source, out []int16) {
	pairs := d.frameSize / 2
	for i, b := range d.buses {
		d.blipTimes[i] = b.CountClocks(pairs)
	}

	need := 0
	var in []int16
	if d.stream {
		need = d.fir.InputNeeded(pairs)
		in = d.fir.Buffer()
	}
	n := src.PlayFrame(pairs, d.blipTimes, need, in)

	for i, b := range d.buses {
		b.EndFrame(d.blipTimes[i])
	}

	if d.stream {
		d.fir.Write(n)
		got := d.fir.Read(d.sampleBuf, pairs)
		clear(d.sampleBuf[2*got:])
	}
	d.mixFrame(out, pairs)
	d.frames++
}

func (d *Dual) mixFrame(out []int16, pairs int) {
	mix := d.mix[:2*pairs]
	clear(mix)
	for _, b := range d.buses {
		b.Mix(mix, pairs)
	}
	if d.stream {
		for i, s := range d.sampleBuf[:2*pairs] {
			mix[i] += int32(s)
		}
	}
	for i, v := range mix {
		out[i] = bit.Clamp16(v)
	}
}
