package interp

import (
	"math"

	"github.com/valerio/go-vgm/vgm/chip"
)

// TimeBits is the fixed-point precision of every time conversion.
const TimeBits = 12

// Conv converts VGM ticks into a native time with a fixed-point factor. Offset
// carries the fraction left over by the previous frame.
type Conv struct {
	Factor int64
	Offset int64
}

// BlipConv returns the conversion into the clock of a blip family.
func BlipConv(clock, vgmRate float64) Conv {
	if vgmRate <= 0 {
		return Conv{}
	}
	return Conv{Factor: int64(math.Floor((1<<TimeBits)/vgmRate*clock + 0.5))}
}

// StreamConv returns the conversion into stream-domain frames at rate.
func StreamConv(rate, vgmRate float64) Conv {
	if vgmRate <= 0 || rate <= 0 {
		return Conv{}
	}
	return Conv{Factor: 2 + int64(math.Floor(rate*(1<<TimeBits)/vgmRate+0.5))}
}

// To converts t ticks.
func (c Conv) To(t int) int {
	return int((int64(t)*c.Factor + c.Offset) >> TimeBits)
}

// Span returns the smallest tick count t with To(t) >= n.
func (c Conv) Span(n int) int {
	if c.Factor <= 0 || n <= 0 {
		return 0
	}
	t := int((int64(n)<<TimeBits-c.Offset)/c.Factor) - 1
	t = max(t, 0)
	for c.To(t) < n {
		t++
	}
	return t
}

// Carry keeps the fraction of t ticks beyond the n native units consumed.
func (c *Conv) Carry(t, n int) {
	c.Offset += int64(t)*c.Factor - int64(n)<<TimeBits
}

// Timebase holds the conversions of one interpreter: one for all stream
// chips and one per blip bus.
type Timebase struct {
	Stream Conv
	Blip   [chip.BusCount]Conv
}

// Native converts a tick count into the native time of family f.
func (tb *Timebase) Native(f chip.Family, t int) int {
	info := f.Info()
	if info.Domain == chip.Blip {
		return tb.Blip[info.Bus].To(t)
	}
	return tb.Stream.To(t)
}
