package vgm

import (
	"github.com/valerio/go-vgm/vgm/chip"
	"github.com/valerio/go-vgm/vgm/interp"
	"github.com/valerio/go-vgm/vgm/resample"
)

// driver runs the interpreter one output frame at a time, keeping the stream
// and blip domains on the same virtual clock.
type driver struct {
	in         *interp.Interp
	stream     []chip.Chip
	blip       []blipChip
	fm         bool
	vgmRate    int
	sampleRate int
	acc        int // remainder of the blip span division
}

type blipChip struct {
	bus int
	c   chip.Chip
}

// load collects the enabled chips of rack by domain.
func (d *driver) load(rack *chip.Rack) {
	d.stream = d.stream[:0]
	d.blip = d.blip[:0]
	rack.Enabled(func(f chip.Family, _ int, c chip.Chip) {
		info := f.Info()
		if info.Domain == chip.Blip {
			d.blip = append(d.blip, blipChip{bus: info.Bus, c: c})
			return
		}
		d.stream = append(d.stream, c)
	})
	d.fm = len(d.stream) > 0
}

func (d *driver) reset() {
	d.acc = 0
	d.in.Timebase().Stream.Offset = 0
}

// PlayFrame implements resample.Source.
func (d *driver) PlayFrame(pairs int, blipTimes []int, minStream int, buf []int16) int {
	if !d.fm {
		total := pairs*d.vgmRate + d.acc
		d.in.Run(total / d.sampleRate)
		d.acc = total % d.sampleRate
		d.endBlip(blipTimes)
		return 0
	}

	conv := &d.in.Timebase().Stream
	span := conv.Span(minStream)
	n := min(conv.To(span), len(buf)/2)

	out := buf[:2*n]
	clear(out)
	for _, c := range d.stream {
		c.BeginFrame(out)
	}
	d.in.Run(span)
	for _, c := range d.stream {
		c.RunUntil(n)
	}
	conv.Carry(span, n)
	d.endBlip(blipTimes)
	return n
}

func (d *driver) endBlip(blipTimes []int) {
	for _, b := range d.blip {
		b.c.EndFrame(blipTimes[b.bus])
	}
}

var _ resample.Source = (*driver)(nil)
